package export

import "sort"

// Rule routes images whose category set contains Categories to Destination.
// A nil Categories means the catch-all, which matches every image.
type Rule struct {
	Categories  []string
	Destination string
	Priority    int
}

// normalizeRules pins the catch-all at priority 0, assigns positional
// priorities 1..N to user rules that carry none, and returns the set sorted
// by priority descending so the first match wins.
func normalizeRules(rules []Rule) []Rule {
	normalized := make([]Rule, len(rules))
	copy(normalized, rules)

	next := 1
	for i := range normalized {
		if normalized[i].Categories == nil {
			normalized[i].Priority = 0
			continue
		}
		if normalized[i].Priority <= 0 {
			normalized[i].Priority = next
		}
		next++
	}
	sort.SliceStable(normalized, func(i, j int) bool {
		return normalized[i].Priority > normalized[j].Priority
	})
	return normalized
}

// matchRule picks the highest-priority rule whose category set is a subset of
// the image's categories. Returns false when nothing matches, catch-all
// included (only possible when no catch-all rule exists).
func matchRule(rules []Rule, imageCategories []string) (Rule, bool) {
	have := make(map[string]bool, len(imageCategories))
	for _, name := range imageCategories {
		have[name] = true
	}
	for _, rule := range rules {
		if rule.Categories == nil {
			return rule, true
		}
		matched := true
		for _, name := range rule.Categories {
			if !have[name] {
				matched = false
				break
			}
		}
		if matched {
			return rule, true
		}
	}
	return Rule{}, false
}
