package version

import (
	"strings"
	"testing"
)

func TestString_Dirty(t *testing.T) {
	oldVersion, oldDirty := Version, Dirty
	t.Cleanup(func() { Version, Dirty = oldVersion, oldDirty })

	Version, Dirty = "1.2.3", "false"
	if got := String(); got != "1.2.3" {
		t.Errorf("String() = %q", got)
	}

	Dirty = "true"
	if got := String(); got != "1.2.3-dirty" {
		t.Errorf("String() = %q", got)
	}
	if !Get().Dirty {
		t.Error("Get().Dirty = false, want true")
	}
}

func TestFull(t *testing.T) {
	out := Full()
	if !strings.HasPrefix(out, "gradfetch ") {
		t.Errorf("Full() = %q", out)
	}
	for _, want := range []string{"Commit:", "Go version:", "OS/Arch:"} {
		if !strings.Contains(out, want) {
			t.Errorf("Full() missing %q", want)
		}
	}
}
