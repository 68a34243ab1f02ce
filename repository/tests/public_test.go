package tests

import (
	"strconv"
	"testing"
)

func TestPublicSearchShowsOnlyPublished(t *testing.T) {
	env := setupTestEnv(t)

	student, err := env.newStudent("alice")
	if err != nil {
		t.Fatal(err)
	}
	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	thesisId := submitTestThesis(t, student, "Graph Databases")

	anonymous := env.newClient()

	results, err := anonymous.searchPublished(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Fatalf("unpublished thesis visible in public search: %+v", results)
	}

	if _, err := admin.decide(thesisId, "APPROVE", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := admin.publish(thesisId); err != nil {
		t.Fatal(err)
	}

	results, err = anonymous.searchPublished(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Title != "Graph Databases" {
		t.Fatalf("published thesis missing from public search: %+v", results)
	}
}

func TestPublicSearchFilters(t *testing.T) {
	env := setupTestEnv(t)

	student, err := env.newStudent("bob")
	if err != nil {
		t.Fatal(err)
	}
	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	thesis, err := student.submitThesis(submission{
		Title:    "Streaming Query Engines",
		Abstract: "low latency data processing",
		Keywords: "streams, queries",
		Faculty:  "Engineering",
		Major:    "CS",
	}, testDoc)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := admin.decide(thesis.Id.String(), "APPROVE", ""); err != nil {
		t.Fatal(err)
	}
	published, err := admin.publish(thesis.Id.String())
	if err != nil {
		t.Fatal(err)
	}

	anonymous := env.newClient()

	cases := []struct {
		name   string
		params map[string]string
		hits   int
	}{
		{"by title fragment", map[string]string{"q": "Streaming"}, 1},
		{"by abstract fragment", map[string]string{"q": "latency"}, 1},
		{"by keyword fragment", map[string]string{"q": "queries"}, 1},
		{"no match", map[string]string{"q": "robotics"}, 0},
		{"by year", map[string]string{"year": strconv.Itoa(*published.YearPublished)}, 1},
		{"wrong year", map[string]string{"year": "1990"}, 0},
		{"by faculty", map[string]string{"faculty": "Engineering"}, 1},
		{"wrong faculty", map[string]string{"faculty": "Law"}, 0},
		{"by major", map[string]string{"major": "CS"}, 1},
		{"by author", map[string]string{"author": "bob@mail.com"}, 1},
		{"wrong author", map[string]string{"author": "alice@mail.com"}, 0},
	}

	for _, tc := range cases {
		results, err := anonymous.searchPublished(tc.params)
		if err != nil {
			t.Fatalf("%v: %v", tc.name, err)
		}
		if len(results) != tc.hits {
			t.Fatalf("%v: expected %d hits, got %+v", tc.name, tc.hits, results)
		}
	}
}
