// Package slug derives URL slugs for jobs and specialization tags.
//
// The job-slug and tag-slug algorithms are part of the site's URL
// contract: every subsystem that turns a job row into a URL must
// produce the same bytes, so both functions are pure and
// deterministic.
package slug

import (
	"regexp"
	"strings"
)

var (
	nonAlnum    = regexp.MustCompile(`[^a-z0-9]+`)
	tagStripSet = regexp.MustCompile(`[/\\#,+()$~%.'":*?<>{}]`)
	whitespace  = regexp.MustCompile(`\s+`)
	multiHyphen = regexp.MustCompile(`-+`)
)

// ForJob derives a job slug from title, company and city.
// An empty city means remote. Returns "" when title or company is
// missing — a slug cannot be meaningfully derived without them.
func ForJob(title, company, city string) string {
	title = strings.TrimSpace(title)
	company = strings.TrimSpace(company)
	if title == "" || company == "" {
		return ""
	}

	city = strings.TrimSpace(city)
	if city == "" {
		city = "remote"
	}

	s := strings.ToLower(title + "-" + company + "-" + city)
	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Resolve returns the snapshot's stored slug when present, otherwise
// derives one from title+company+city.
func Resolve(stored, title, company, city string) string {
	if s := strings.TrimSpace(stored); s != "" {
		return s
	}
	return ForJob(title, company, city)
}

// ForTag derives the listing-path slug for a specialization tag.
// Distinct from the job-slug algorithm: "&" becomes "and", a fixed
// punctuation set is stripped, whitespace runs become hyphens.
func ForTag(tag string) string {
	s := strings.ToLower(strings.TrimSpace(tag))
	s = strings.ReplaceAll(s, "&", "and")
	s = tagStripSet.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, "-")
	s = multiHyphen.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// tagDisplayNames maps known specialization slugs back to their
// canonical display names.
var tagDisplayNames = map[string]string{
	"local-seo":         "Local SEO",
	"technical-seo":     "Technical SEO",
	"content-seo":       "Content SEO",
	"ecommerce-seo":     "Ecommerce SEO",
	"on-page-seo":       "On-Page SEO",
	"off-page-seo":      "Off-Page SEO",
	"international-seo": "International SEO",
	"enterprise-seo":    "Enterprise SEO",
	"link-building":     "Link Building",
	"seo-strategy":      "SEO Strategy",
	"geo":               "GEO",
}

// DisplayName recovers the display name for a tag slug. Unmapped
// slugs fall back to naive title-casing with the SEO/GEO acronyms
// restored.
func DisplayName(tagSlug string) string {
	if name, ok := tagDisplayNames[tagSlug]; ok {
		return name
	}

	words := strings.Split(tagSlug, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	name := strings.Join(words, " ")
	name = strings.ReplaceAll(name, "Seo", "SEO")
	name = strings.ReplaceAll(name, "Geo", "GEO")
	return name
}
