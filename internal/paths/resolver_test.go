package paths_test

import (
	"reflect"
	"testing"

	"seojobs/propagation-service/internal/model"
	"seojobs/propagation-service/internal/paths"
)

var globals = []string{"/", "/feed.xml", "/sitemap.xml", "/sitemap.txt", "/robots.txt"}

func assertContains(t *testing.T, set *paths.Set, want ...string) {
	t.Helper()
	for _, p := range want {
		if !set.Contains(p) {
			t.Errorf("path set missing %q (got %v)", p, set.Sorted())
		}
	}
}

func TestResolve_GlobalPathsAlwaysPresent(t *testing.T) {
	events := []model.JobChangeEvent{
		{Type: model.ChangeInserted, Current: &model.JobSnapshot{}},
		{Type: model.ChangeDeleted, Previous: &model.JobSnapshot{}},
		{Type: model.ChangeUpdated, Current: &model.JobSnapshot{}, Previous: &model.JobSnapshot{}},
	}
	for _, ev := range events {
		set := paths.Resolve(ev)
		assertContains(t, set, globals...)
	}
}

func TestResolve_EmptySnapshotsYieldOnlyGlobals(t *testing.T) {
	set := paths.Resolve(model.JobChangeEvent{
		Type:    model.ChangeInserted,
		Current: &model.JobSnapshot{},
	})
	if set.Len() != len(globals) {
		t.Errorf("expected only %d global paths, got %v", len(globals), set.Sorted())
	}
}

func TestResolve_InsertFansOutAllSurfaces(t *testing.T) {
	set := paths.Resolve(model.JobChangeEvent{
		Type: model.ChangeInserted,
		Current: &model.JobSnapshot{
			Title:       "SEO Manager",
			CompanyName: "Acme",
			City:        "London",
			Tags:        []string{"Local SEO"},
		},
	})
	assertContains(t, set,
		"/job/seo-manager-acme-london",
		"/jobs/city/london",
		"/feed/city/london",
		"/jobs/tag/local-seo",
	)
	assertContains(t, set, globals...)
}

func TestResolve_CityMoveUnionsBothCities(t *testing.T) {
	set := paths.Resolve(model.JobChangeEvent{
		Type: model.ChangeUpdated,
		Previous: &model.JobSnapshot{
			Title: "SEO Manager", CompanyName: "Acme", City: "Berlin",
		},
		Current: &model.JobSnapshot{
			Title: "SEO Manager", CompanyName: "Acme", City: "Paris",
		},
	})
	assertContains(t, set,
		"/jobs/city/berlin", "/feed/city/berlin",
		"/jobs/city/paris", "/feed/city/paris",
	)
}

func TestResolve_TagChangeScenario(t *testing.T) {
	prev := &model.JobSnapshot{
		Title: "SEO Manager", CompanyName: "Acme", City: "London",
		Tags: []string{"Local SEO"},
	}
	curr := &model.JobSnapshot{
		Title: "SEO Manager", CompanyName: "Acme", City: "London",
		Tags: []string{"Local SEO", "Technical SEO"},
	}
	set := paths.Resolve(model.JobChangeEvent{Type: model.ChangeUpdated, Previous: prev, Current: curr})

	assertContains(t, set,
		"/job/seo-manager-acme-london",
		"/jobs/city/london",
		"/feed/city/london",
		"/jobs/tag/local-seo",
		"/jobs/tag/technical-seo",
	)
	assertContains(t, set, globals...)
	if set.Len() != 10 {
		t.Errorf("expected 10 distinct paths, got %d: %v", set.Len(), set.Sorted())
	}
}

func TestResolve_StoredSlugWins(t *testing.T) {
	set := paths.Resolve(model.JobChangeEvent{
		Type: model.ChangeInserted,
		Current: &model.JobSnapshot{
			Slug: "hand-picked", Title: "SEO Manager", CompanyName: "Acme",
		},
	})
	assertContains(t, set, "/job/hand-picked")
	if set.Contains("/job/seo-manager-acme-remote") {
		t.Error("derived slug used despite stored slug being present")
	}
}

func TestResolve_CityIsLowercasedAndEscaped(t *testing.T) {
	set := paths.Resolve(model.JobChangeEvent{
		Type: model.ChangeInserted,
		Current: &model.JobSnapshot{
			Title: "SEO Lead", CompanyName: "Acme", City: "New York",
		},
	})
	assertContains(t, set, "/jobs/city/new%20york", "/feed/city/new%20york")
}

func TestResolve_Idempotent(t *testing.T) {
	ev := model.JobChangeEvent{
		Type: model.ChangeUpdated,
		Previous: &model.JobSnapshot{
			Title: "SEO Manager", CompanyName: "Acme", City: "Berlin",
			Tags: []string{"Local SEO", "Local SEO"},
		},
		Current: &model.JobSnapshot{
			Title: "SEO Manager", CompanyName: "Acme", City: "Paris",
		},
	}
	a := paths.Resolve(ev).Sorted()
	b := paths.Resolve(ev).Sorted()
	if !reflect.DeepEqual(a, b) {
		t.Errorf("Resolve not idempotent: %v vs %v", a, b)
	}
}
