package config

import "fmt"

// ScoreDiscard is the sentinel label marking an image for disposal. It is
// valid under every preset and never appears in the ordered label list.
const ScoreDiscard = "discard"

// scorePresets maps preset names to their six ordered labels, best first.
var scorePresets = map[string][6]string{
	"pdxl":              {"score_9", "score_8_up", "score_7_up", "score_6_up", "score_5_up", "score_4_up"},
	"booru-tier":        {"masterpiece", "best_quality", "high_quality", "normal_quality", "low_quality", "worst_quality"},
	"alphabetical-tier": {"S", "A", "B", "C", "D", "E"},
	"numeric-tier":      {"1", "2", "3", "4", "5", "6"},
	"performance-tier":  {"perfect", "great", "good", "average", "poor", "bad"},
	"star-tier":         {"5_star", "4_star", "3_star", "2_star", "1_star", "0_star"},
}

// DefaultScorePreset is used when scores.preset is absent or unknown.
const DefaultScorePreset = "pdxl"

// ScorePresetNames lists the recognized presets.
func ScorePresetNames() []string {
	return []string{"pdxl", "booru-tier", "alphabetical-tier", "numeric-tier", "performance-tier", "star-tier"}
}

// ScoreLabels resolves the six ordered labels of the active preset, applying
// any scores.score_0..score_5 overrides from the document.
func (s *Store) ScoreLabels() [6]string {
	preset := s.GetString("scores.preset")
	labels, ok := scorePresets[preset]
	if !ok {
		labels = scorePresets[DefaultScorePreset]
	}
	for i := range labels {
		if override := s.GetString(fmt.Sprintf("scores.score_%d", i)); override != "" {
			labels[i] = override
		}
	}
	return labels
}

// IsValidScore reports whether label is one of the active preset's labels or
// the discard sentinel.
func (s *Store) IsValidScore(label string) bool {
	if label == ScoreDiscard {
		return true
	}
	for _, known := range s.ScoreLabels() {
		if known == label {
			return true
		}
	}
	return false
}
