package buildinfo

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	got := String()
	for _, want := range []string{"version: " + Version, "commit: " + Commit, "built: " + Date} {
		if !strings.Contains(got, want) {
			t.Errorf("String() = %q, missing %q", got, want)
		}
	}
}

func TestUserAgent(t *testing.T) {
	if got := UserAgent(); got != "ctabridge/"+Version {
		t.Errorf("UserAgent() = %q", got)
	}
}
