package testsupport

import (
	"testing"

	"picksort/internal/config"
)

// NewConfig produces a settings store rooted in a unique temp directory per
// test.
func NewConfig(t testing.TB) *config.Store {
	t.Helper()

	cfg, err := config.Load(t.TempDir())
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	return cfg
}
