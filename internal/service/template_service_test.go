package service

import (
	"context"
	"errors"
	"testing"

	"gorm.io/datatypes"
)

func screeningQuestions() datatypes.JSON {
	return datatypes.JSON([]byte(`[
		{"id": "q1", "label": "Do you drive?", "type": "mcq", "options": ["Yes", "No"], "correct_answer": "Yes"}
	]`))
}

func TestTemplateCreateRejectsDuplicateName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.templates.Create(ctx, TemplateContent{Name: "commuters", Layer1Questions: screeningQuestions()}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := env.templates.Create(ctx, TemplateContent{Name: "commuters"})
	if !errors.Is(err, ErrDuplicateTemplateName) {
		t.Fatalf("expected ErrDuplicateTemplateName, got %v", err)
	}
}

func TestTemplateUpdateForksFromLatest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	v1, err := env.templates.Create(ctx, TemplateContent{Name: "commuters", Layer1Questions: screeningQuestions()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	v2, err := env.templates.Update(ctx, v1.ID, TemplateContent{Name: "commuters"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if v2.Version != 2 {
		t.Fatalf("expected version 2, got %d", v2.Version)
	}

	// Editing through the old v1 id still forks from the latest version, and
	// the name stays pinned even if the request says otherwise.
	v3, err := env.templates.Update(ctx, v1.ID, TemplateContent{Name: "renamed"})
	if err != nil {
		t.Fatalf("update via old id: %v", err)
	}
	if v3.Version != 3 {
		t.Fatalf("expected version 3, got %d", v3.Version)
	}
	if v3.Name != "commuters" {
		t.Fatalf("expected name pinned to commuters, got %q", v3.Name)
	}

	// Existing rows are untouched.
	got, err := env.templates.Get(ctx, v1.ID)
	if err != nil {
		t.Fatalf("get v1: %v", err)
	}
	if got.Version != 1 {
		t.Fatalf("v1 row mutated: version %d", got.Version)
	}
}

func TestTemplateRollbackAppendsNewVersion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	v1, err := env.templates.Create(ctx, TemplateContent{
		Name:            "commuters",
		Layer1Questions: screeningQuestions(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := env.templates.Update(ctx, v1.ID, TemplateContent{Name: "commuters"}); err != nil {
		t.Fatalf("update: %v", err)
	}

	restored, err := env.templates.Rollback(ctx, v1.ID)
	if err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if restored.Version != 3 {
		t.Fatalf("rollback must append, got version %d", restored.Version)
	}
	if string(restored.Layer1Questions) != string(v1.Layer1Questions) {
		t.Fatalf("rollback content mismatch")
	}
	if restored.IsDeleted {
		t.Fatal("rolled back version must not be deleted")
	}

	history, err := env.templates.History(ctx, "commuters")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 versions in history, got %d", len(history))
	}
}

func TestTemplateSoftDeleteHidesAllVersions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	v1, err := env.templates.Create(ctx, TemplateContent{Name: "commuters"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := env.templates.Update(ctx, v1.ID, TemplateContent{Name: "commuters"}); err != nil {
		t.Fatalf("update: %v", err)
	}

	if err := env.templates.SoftDelete(ctx, "commuters"); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	if _, err := env.templates.Get(ctx, v1.ID); !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("deleted version still readable: %v", err)
	}

	active, err := env.templates.ListLatestActive(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("deleted template still listed: %d entries", len(active))
	}

	// History keeps the full audit trail, deletion flags included.
	history, err := env.templates.History(ctx, "commuters")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 versions in history, got %d", len(history))
	}
	for _, v := range history {
		if !v.IsDeleted {
			t.Fatalf("version %d not flagged deleted", v.Version)
		}
	}
}

func TestTemplateListLatestActiveOnePerName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a1, err := env.templates.Create(ctx, TemplateContent{Name: "alpha"})
	if err != nil {
		t.Fatalf("create alpha: %v", err)
	}
	if _, err := env.templates.Update(ctx, a1.ID, TemplateContent{Name: "alpha"}); err != nil {
		t.Fatalf("update alpha: %v", err)
	}
	if _, err := env.templates.Create(ctx, TemplateContent{Name: "beta"}); err != nil {
		t.Fatalf("create beta: %v", err)
	}

	active, err := env.templates.ListLatestActive(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected one entry per name, got %d", len(active))
	}
	versions := map[string]int{}
	for _, tmpl := range active {
		versions[tmpl.Name] = tmpl.Version
	}
	if versions["alpha"] != 2 || versions["beta"] != 1 {
		t.Fatalf("wrong latest versions: %v", versions)
	}
}

func TestTemplateVersionsStayDense(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	v1, err := env.templates.Create(ctx, TemplateContent{Name: "commuters"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 0; i < 4; i++ {
		if _, err := env.templates.Update(ctx, v1.ID, TemplateContent{Name: "commuters"}); err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
	}

	history, err := env.templates.History(ctx, "commuters")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	seen := map[int]bool{}
	for _, v := range history {
		seen[v.Version] = true
	}
	for want := 1; want <= 5; want++ {
		if !seen[want] {
			t.Fatalf("version sequence has a gap at %d: %v", want, seen)
		}
	}
}
