package store

import (
	"context"
	"testing"
)

func TestTagStoreAttachAndForRule(t *testing.T) {
	s, db := testStore(t)
	ctx := context.Background()
	cat := mustCategory(t, s, "Frontend", "frontend", nil)
	rule := mustRule(t, db, ruleFixture{title: "Hooks", category: cat.ID})

	for _, name := range []string{"React", "JavaScript"} {
		if _, err := db.Exec(`INSERT INTO tags (name) VALUES ($1)`, name); err != nil {
			t.Fatalf("insert tag %s: %v", name, err)
		}
	}

	react, err := s.Tags.FindByName(ctx, "React")
	if err != nil || react == nil {
		t.Fatalf("FindByName: %v, %v", react, err)
	}
	if react.Color != "#3b82f6" {
		t.Errorf("default color: got %q", react.Color)
	}

	// Attaching twice is harmless.
	for i := 0; i < 2; i++ {
		if err := s.Tags.Attach(ctx, rule, react.ID); err != nil {
			t.Fatalf("Attach #%d: %v", i+1, err)
		}
	}

	tags, err := s.Tags.ForRule(ctx, rule)
	if err != nil {
		t.Fatalf("ForRule: %v", err)
	}
	if len(tags) != 1 || tags[0].Name != "React" {
		t.Errorf("ForRule: got %+v", tags)
	}

	all, err := s.Tags.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 || all[0].Name != "JavaScript" {
		t.Errorf("List: got %+v", all)
	}

	missing, err := s.Tags.FindByName(ctx, "Cobol")
	if err != nil || missing != nil {
		t.Errorf("FindByName (missing): got %v, %v", missing, err)
	}
}
