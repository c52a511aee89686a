package config

import "strings"

// Behaviour groups the flags that steer scoring and tagging flow.
type Behaviour struct {
	AutoScrollScores              bool
	AutoScrollOnTagCondition      bool
	ToLatestStrictMode            bool
	AutoScrollDisableUntilEnabled bool
}

// Behaviour resolves the behaviour namespace.
func (s *Store) Behaviour() Behaviour {
	return Behaviour{
		AutoScrollScores:              s.GetBool("behaviour.auto_scroll_scores"),
		AutoScrollOnTagCondition:      s.GetBool("behaviour.auto_scroll_on_tag_condition"),
		ToLatestStrictMode:            s.GetBool("behaviour.to_latest_strict_mode"),
		AutoScrollDisableUntilEnabled: s.GetBool("behaviour.auto_scroll_disable_until_enabled"),
	}
}

// ExportOptions groups the export defaults stored in the document.
type ExportOptions struct {
	ExportCaptions  bool
	CaptionFormat   string
	SeparateByScore bool
	DeleteImages    bool
}

// ExportOptions resolves the export_options namespace. The historical on-disk
// key is the misspelled seperate_by_score; the corrected spelling is accepted
// on read as well.
func (s *Store) ExportOptions() ExportOptions {
	separate := s.GetBool("export_options.seperate_by_score")
	if !separate {
		separate = s.GetBool("export_options.separate_by_score")
	}
	return ExportOptions{
		ExportCaptions:  s.GetBool("export_options.export_captions"),
		CaptionFormat:   NormalizeCaptionFormat(s.GetString("export_options.caption_format")),
		SeparateByScore: separate,
		DeleteImages:    s.GetBool("export_options.delete_images"),
	}
}

// NormalizeCaptionFormat maps accepted caption extensions onto the canonical
// dotted form, defaulting to .txt.
func NormalizeCaptionFormat(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	format = strings.TrimPrefix(format, ".")
	if format == "caption" {
		return ".caption"
	}
	return ".txt"
}

// BlurStrength resolves the UI blur setting, clamped to 0..100.
func (s *Store) BlurStrength() int {
	strength := s.GetInt("privacy.blur_strength")
	if strength < 0 {
		return 0
	}
	if strength > 100 {
		return 100
	}
	return strength
}
