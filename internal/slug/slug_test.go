package slug_test

import (
	"testing"

	"seojobs/propagation-service/internal/slug"
)

// ── ForJob ─────────────────────────────────────────────────────────────────

func TestForJob_BasicDerivation(t *testing.T) {
	cases := []struct {
		title, company, city string
		want                 string
	}{
		{"SEO Manager", "Acme", "London", "seo-manager-acme-london"},
		{"Growth Lead", "Foo", "", "growth-lead-foo-remote"},
		{"Head of SEO & Content", "Big Corp!", "New York", "head-of-seo-content-big-corp-new-york"},
		{"  Senior   Analyst ", "Söme GmbH", "Köln", "senior-analyst-s-me-gmbh-k-ln"},
	}
	for _, c := range cases {
		got := slug.ForJob(c.title, c.company, c.city)
		if got != c.want {
			t.Errorf("ForJob(%q, %q, %q) = %q, want %q", c.title, c.company, c.city, got, c.want)
		}
	}
}

func TestForJob_MissingTitleOrCompany(t *testing.T) {
	if got := slug.ForJob("", "Acme", "London"); got != "" {
		t.Errorf("ForJob with empty title = %q, want empty", got)
	}
	if got := slug.ForJob("SEO Manager", "  ", "London"); got != "" {
		t.Errorf("ForJob with blank company = %q, want empty", got)
	}
}

func TestForJob_Deterministic(t *testing.T) {
	a := slug.ForJob("SEO Manager", "Acme", "London")
	b := slug.ForJob("SEO Manager", "Acme", "London")
	if a != b {
		t.Errorf("ForJob not deterministic: %q vs %q", a, b)
	}
}

// ── Resolve ────────────────────────────────────────────────────────────────

func TestResolve_PrefersStoredSlug(t *testing.T) {
	got := slug.Resolve("custom-slug", "SEO Manager", "Acme", "London")
	if got != "custom-slug" {
		t.Errorf("Resolve = %q, want %q", got, "custom-slug")
	}
}

func TestResolve_DerivesWhenStoredBlank(t *testing.T) {
	got := slug.Resolve("   ", "SEO Manager", "Acme", "London")
	if got != "seo-manager-acme-london" {
		t.Errorf("Resolve = %q, want %q", got, "seo-manager-acme-london")
	}
}

// ── ForTag ─────────────────────────────────────────────────────────────────

func TestForTag(t *testing.T) {
	cases := []struct {
		tag  string
		want string
	}{
		{"Local SEO", "local-seo"},
		{"Technical SEO", "technical-seo"},
		{"SEO & Content", "seo-and-content"},
		{"On-Page SEO", "on-page-seo"},
		{"C++ / Rust", "c-rust"},
		{"  spaced   out  ", "spaced-out"},
	}
	for _, c := range cases {
		got := slug.ForTag(c.tag)
		if got != c.want {
			t.Errorf("ForTag(%q) = %q, want %q", c.tag, got, c.want)
		}
	}
}

func TestForTag_Deterministic(t *testing.T) {
	if slug.ForTag("Local SEO") != slug.ForTag("Local SEO") {
		t.Error("ForTag not deterministic")
	}
}

// ── DisplayName ────────────────────────────────────────────────────────────

func TestDisplayName_KnownSlugs(t *testing.T) {
	cases := map[string]string{
		"local-seo":     "Local SEO",
		"technical-seo": "Technical SEO",
		"link-building": "Link Building",
		"geo":           "GEO",
	}
	for in, want := range cases {
		if got := slug.DisplayName(in); got != want {
			t.Errorf("DisplayName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDisplayName_FallbackTitleCasing(t *testing.T) {
	if got := slug.DisplayName("seo-consulting"); got != "SEO Consulting" {
		t.Errorf("DisplayName(\"seo-consulting\") = %q, want \"SEO Consulting\"", got)
	}
	if got := slug.DisplayName("something-else"); got != "Something Else" {
		t.Errorf("DisplayName(\"something-else\") = %q, want \"Something Else\"", got)
	}
}
