package store_test

import (
	"context"
	"errors"
	"testing"

	"picksort/internal/condition"
	"picksort/internal/store"
	"picksort/internal/testsupport"
)

func TestExportRuleLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	project := testsupport.NewProject(t, st, "rules", "/data")
	testsupport.NewGroup(t, st, project.ID, "Subject", true, false, 1, "cat")
	testsupport.NewGroup(t, st, project.ID, "Style", false, false, 1, "photo")

	// Rules run after every group, so even the last group is referenceable.
	rule, err := st.CreateExportRule(ctx, project.ID, "styled", "Style[completed]", []string{"high quality"})
	if err != nil {
		t.Fatalf("CreateExportRule: %v", err)
	}
	if !rule.Enabled {
		t.Fatal("new rule not enabled")
	}
	if len(rule.TagsToAdd) != 1 || rule.TagsToAdd[0] != "high quality" {
		t.Fatalf("tags_to_add = %v, want [high quality]", rule.TagsToAdd)
	}

	second, err := st.CreateExportRule(ctx, project.ID, "feline", "Subject[has:cat]", []string{"cat photo"})
	if err != nil {
		t.Fatalf("CreateExportRule: %v", err)
	}

	rules, err := st.ListExportRules(ctx, project.ID)
	if err != nil {
		t.Fatalf("ListExportRules: %v", err)
	}
	if len(rules) != 2 || rules[0].ID != rule.ID || rules[1].ID != second.ID {
		t.Fatalf("rule order = %+v, want creation order", rules)
	}

	rule.Condition = "Subject[count >= 1] AND Style[completed]"
	rule.TagsToAdd = []string{"high quality", "styled"}
	if err := st.UpdateExportRule(ctx, rule); err != nil {
		t.Fatalf("UpdateExportRule: %v", err)
	}

	if err := st.SetExportRuleEnabled(ctx, rule.ID, false); err != nil {
		t.Fatalf("SetExportRuleEnabled: %v", err)
	}
	reloaded, err := st.GetExportRule(ctx, rule.ID)
	if err != nil {
		t.Fatalf("GetExportRule: %v", err)
	}
	if reloaded.Enabled {
		t.Fatal("rule still enabled after toggle")
	}
	if len(reloaded.TagsToAdd) != 2 {
		t.Fatalf("tags_to_add = %v, want two entries", reloaded.TagsToAdd)
	}

	if err := st.DeleteExportRule(ctx, rule.ID); err != nil {
		t.Fatalf("DeleteExportRule: %v", err)
	}
	if _, err := st.GetExportRule(ctx, rule.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("deleted rule error = %v, want ErrNotFound", err)
	}
}

func TestCreateExportRuleRejectsBadConditions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	project := testsupport.NewProject(t, st, "badrules", "/data")
	testsupport.NewGroup(t, st, project.ID, "Subject", true, false, 1, "cat")

	var parseErr *condition.ParseError
	if _, err := st.CreateExportRule(ctx, project.ID, "broken", "Subject[", nil); !errors.As(err, &parseErr) {
		t.Fatalf("syntax error = %v, want ParseError", err)
	}

	var refErr *condition.ReferenceError
	if _, err := st.CreateExportRule(ctx, project.ID, "ghost", "Missing[completed]", nil); !errors.As(err, &refErr) {
		t.Fatalf("unknown group error = %v, want ReferenceError", err)
	}
	if _, err := st.CreateExportRule(ctx, project.ID, "ghost tag", "Subject[has:unicorn]", nil); !errors.As(err, &refErr) {
		t.Fatalf("unknown tag error = %v, want ReferenceError", err)
	}
}
