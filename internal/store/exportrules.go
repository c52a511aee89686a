package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"picksort/internal/condition"
)

const exportRuleColumns = "rule_id, project_id, rule_name, condition, tags_to_add, enabled, created_at, updated_at"

// ListExportRules returns a project's export tag rules ordered by id, which
// is also the deterministic evaluation order at export time.
func (s *Store) ListExportRules(ctx context.Context, projectID int64) ([]*ExportTagRule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+exportRuleColumns+` FROM export_tag_rules WHERE project_id = ? ORDER BY rule_id`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("list export rules: %w", err)
	}
	defer rows.Close()

	var rules []*ExportTagRule
	for rows.Next() {
		rule, err := scanExportRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// CreateExportRule inserts a rule after validating its condition against the
// project's groups. Any group may be referenced; export rules come after all
// groups in evaluation order.
func (s *Store) CreateExportRule(ctx context.Context, projectID int64, name, cond string, tagsToAdd []string) (*ExportTagRule, error) {
	if err := s.validateRuleCondition(ctx, projectID, cond); err != nil {
		return nil, err
	}
	tagsJSON, err := json.Marshal(tagsToAdd)
	if err != nil {
		return nil, fmt.Errorf("marshal tags_to_add: %w", err)
	}

	now := formatTime(time.Now().UTC())
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO export_tag_rules (project_id, rule_name, condition, tags_to_add, enabled, created_at, updated_at)
         VALUES (?, ?, ?, ?, 1, ?, ?)`,
		projectID, name, cond, string(tagsJSON), now, now)
	if err != nil {
		return nil, fmt.Errorf("insert export rule: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetExportRule(ctx, id)
}

// GetExportRule fetches a rule by identifier.
func (s *Store) GetExportRule(ctx context.Context, ruleID int64) (*ExportTagRule, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+exportRuleColumns+` FROM export_tag_rules WHERE rule_id = ?`, ruleID)
	rule, err := scanExportRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("export rule %d: %w", ruleID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get export rule: %w", err)
	}
	return rule, nil
}

// UpdateExportRule persists a rule's name, condition, and tag list.
func (s *Store) UpdateExportRule(ctx context.Context, rule *ExportTagRule) error {
	if rule == nil {
		return errors.New("export rule is nil")
	}
	if err := s.validateRuleCondition(ctx, rule.ProjectID, rule.Condition); err != nil {
		return err
	}
	tagsJSON, err := json.Marshal(rule.TagsToAdd)
	if err != nil {
		return fmt.Errorf("marshal tags_to_add: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE export_tag_rules
         SET rule_name = ?, condition = ?, tags_to_add = ?, enabled = ?, updated_at = ?
         WHERE rule_id = ?`,
		rule.Name, rule.Condition, string(tagsJSON), boolToInt(rule.Enabled),
		formatTime(time.Now().UTC()), rule.ID)
	if err != nil {
		return fmt.Errorf("update export rule: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("export rule %d: %w", rule.ID, ErrNotFound)
	}
	return nil
}

// SetExportRuleEnabled toggles a rule without touching its definition.
func (s *Store) SetExportRuleEnabled(ctx context.Context, ruleID int64, enabled bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE export_tag_rules SET enabled = ?, updated_at = ? WHERE rule_id = ?`,
		boolToInt(enabled), formatTime(time.Now().UTC()), ruleID)
	if err != nil {
		return fmt.Errorf("toggle export rule: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("export rule %d: %w", ruleID, ErrNotFound)
	}
	return nil
}

// DeleteExportRule removes a rule.
func (s *Store) DeleteExportRule(ctx context.Context, ruleID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM export_tag_rules WHERE rule_id = ?`, ruleID)
	if err != nil {
		return fmt.Errorf("delete export rule: %w", err)
	}
	return nil
}

func (s *Store) validateRuleCondition(ctx context.Context, projectID int64, cond string) error {
	if cond == "" {
		return nil
	}
	expr, err := condition.Parse(cond)
	if err != nil {
		return err
	}
	groups, err := s.ListTagGroups(ctx, projectID)
	if err != nil {
		return err
	}
	// Rules evaluate after every group, so the owner order sits past the end.
	return condition.Validate(expr, len(groups), ConditionViews(groups))
}

func scanExportRule(scanner interface{ Scan(dest ...any) error }) (*ExportTagRule, error) {
	var (
		rule       ExportTagRule
		tagsRaw    string
		enabled    int
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(
		&rule.ID,
		&rule.ProjectID,
		&rule.Name,
		&rule.Condition,
		&tagsRaw,
		&enabled,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	rule.Enabled = enabled != 0
	if tagsRaw != "" {
		if err := json.Unmarshal([]byte(tagsRaw), &rule.TagsToAdd); err != nil {
			return nil, fmt.Errorf("decode tags_to_add: %w", err)
		}
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		rule.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		rule.UpdatedAt = updated
	}
	return &rule, nil
}
