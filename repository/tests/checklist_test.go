package tests

import (
	"errors"
	"slices"
	"testing"

	"github.com/google/uuid"
)

func checkedKeys(t *testing.T, admin client, thesisId string) []string {
	t.Helper()

	keys, err := admin.getChecked(thesisId)
	if err != nil {
		t.Fatal(err)
	}
	slices.Sort(keys)
	return keys
}

func TestChecklistApplyAndLazyCatalogCreation(t *testing.T) {
	env := setupTestEnv(t)

	student, err := env.newStudent("alice")
	if err != nil {
		t.Fatal(err)
	}
	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	thesisId := submitTestThesis(t, student, "checklist target")

	err = admin.applyChecklist(thesisId, []selection{
		{Key: "format.margins", Label: "Margins follow the style guide", Category: "formatting"},
		{Key: "content.abstract"},
	}, false)
	if err != nil {
		t.Fatal(err)
	}

	keys := checkedKeys(t, admin, thesisId)
	if !slices.Equal(keys, []string{"content.abstract", "format.margins"}) {
		t.Fatalf("unexpected checked keys %v", keys)
	}

	catalog, err := admin.listCatalog()
	if err != nil {
		t.Fatal(err)
	}
	if len(catalog) != 2 {
		t.Fatalf("expected 2 catalog items, got %+v", catalog)
	}
	for _, item := range catalog {
		if item.Key == "content.abstract" && item.Label != "content.abstract" {
			t.Fatalf("bare key should default label to the key, got %v", item.Label)
		}
		if item.Key == "format.margins" && item.Label != "Margins follow the style guide" {
			t.Fatalf("supplied label not stored, got %v", item.Label)
		}
	}
}

func TestChecklistReplaceIsIdempotent(t *testing.T) {
	env := setupTestEnv(t)

	student, err := env.newStudent("bob")
	if err != nil {
		t.Fatal(err)
	}
	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	thesisId := submitTestThesis(t, student, "replace target")

	selections := []selection{{Key: "a"}, {Key: "b"}, {Key: "c"}}

	if err := admin.applyChecklist(thesisId, selections, true); err != nil {
		t.Fatal(err)
	}
	first := checkedKeys(t, admin, thesisId)

	if err := admin.applyChecklist(thesisId, selections, true); err != nil {
		t.Fatal(err)
	}
	second := checkedKeys(t, admin, thesisId)

	if !slices.Equal(first, second) || !slices.Equal(first, []string{"a", "b", "c"}) {
		t.Fatalf("replace not idempotent: first %v second %v", first, second)
	}
}

func TestChecklistReplaceUnchecksComplement(t *testing.T) {
	env := setupTestEnv(t)

	student, err := env.newStudent("carol")
	if err != nil {
		t.Fatal(err)
	}
	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	thesisId := submitTestThesis(t, student, "replace complement")

	if err := admin.applyChecklist(thesisId, []selection{{Key: "a"}, {Key: "b"}}, true); err != nil {
		t.Fatal(err)
	}

	if err := admin.applyChecklist(thesisId, []selection{{Key: "b"}}, true); err != nil {
		t.Fatal(err)
	}

	keys := checkedKeys(t, admin, thesisId)
	if !slices.Equal(keys, []string{"b"}) {
		t.Fatalf("expected only 'b' checked after replace, got %v", keys)
	}
}

func TestChecklistAdditiveIsMonotonic(t *testing.T) {
	env := setupTestEnv(t)

	student, err := env.newStudent("dave")
	if err != nil {
		t.Fatal(err)
	}
	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	thesisId := submitTestThesis(t, student, "additive target")

	if err := admin.applyChecklist(thesisId, []selection{{Key: "a"}}, false); err != nil {
		t.Fatal(err)
	}
	if err := admin.applyChecklist(thesisId, []selection{{Key: "b"}}, false); err != nil {
		t.Fatal(err)
	}

	keys := checkedKeys(t, admin, thesisId)
	if !slices.Equal(keys, []string{"a", "b"}) {
		t.Fatalf("additive apply lost previously checked keys: %v", keys)
	}
}

func TestChecklistBlankKeysSkipped(t *testing.T) {
	env := setupTestEnv(t)

	student, err := env.newStudent("erin")
	if err != nil {
		t.Fatal(err)
	}
	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	thesisId := submitTestThesis(t, student, "blank keys")

	err = admin.applyChecklist(thesisId, []selection{{Key: "  "}, {Key: ""}, {Key: "x"}}, false)
	if err != nil {
		t.Fatal(err)
	}

	keys := checkedKeys(t, admin, thesisId)
	if !slices.Equal(keys, []string{"x"}) {
		t.Fatalf("expected only 'x' checked, got %v", keys)
	}
}

func TestChecklistUnknownThesis(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	err = admin.applyChecklist(uuid.NewString(), []selection{{Key: "a"}}, false)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}

	_, err = admin.getChecked(uuid.NewString())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestChecklistSharedCatalogAcrossTheses(t *testing.T) {
	env := setupTestEnv(t)

	student, err := env.newStudent("frank")
	if err != nil {
		t.Fatal(err)
	}
	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	first := submitTestThesis(t, student, "one")
	second := submitTestThesis(t, student, "two")

	if err := admin.applyChecklist(first, []selection{{Key: "shared"}}, false); err != nil {
		t.Fatal(err)
	}
	if err := admin.applyChecklist(second, []selection{{Key: "shared"}}, false); err != nil {
		t.Fatal(err)
	}

	catalog, err := admin.listCatalog()
	if err != nil {
		t.Fatal(err)
	}
	if len(catalog) != 1 {
		t.Fatalf("catalog item duplicated across theses: %+v", catalog)
	}

	if keys := checkedKeys(t, admin, first); !slices.Equal(keys, []string{"shared"}) {
		t.Fatalf("unexpected keys for first thesis: %v", keys)
	}
	if keys := checkedKeys(t, admin, second); !slices.Equal(keys, []string{"shared"}) {
		t.Fatalf("unexpected keys for second thesis: %v", keys)
	}
}
