package version_test

import (
	"runtime"
	"strings"
	"testing"

	"github.com/go-cfgkit/cfgkit/internal/version"
)

func TestShortIsNonEmpty(t *testing.T) {
	if version.Short() == "" {
		t.Error("Short() should return a non-empty string")
	}
}

func TestInfoCarriesBuildMetadata(t *testing.T) {
	info := version.Info()

	for _, want := range []string{
		"cfgctl " + version.Version,
		"Commit: " + version.Commit,
		"Built: " + version.Date,
		runtime.Version(),
		runtime.GOOS + "/" + runtime.GOARCH,
	} {
		if !strings.Contains(info, want) {
			t.Errorf("Info() missing %q:\n%s", want, info)
		}
	}
}

func TestInfoLineLayout(t *testing.T) {
	lines := strings.Split(version.Info(), "\n")
	if len(lines) < 5 {
		t.Fatalf("Info() should span 5 lines, got %d", len(lines))
	}

	for i, prefix := range []string{"cfgctl ", "Commit:", "Built:", "Go:", "OS/Arch:"} {
		if !strings.HasPrefix(lines[i], prefix) {
			t.Errorf("line %d should start with %q, got %q", i+1, prefix, lines[i])
		}
	}
}
