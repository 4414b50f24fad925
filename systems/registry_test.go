package systems

import (
	"testing"

	"github.com/pthm-cable/droplet/telemetry"
)

func TestRegistryMatchesPerfPhases(t *testing.T) {
	reg := NewSystemRegistry()
	phases := telemetry.Phases()

	all := reg.All()
	if len(all) != len(phases) {
		t.Fatalf("registry has %d entries, perf has %d phases", len(all), len(phases))
	}
	for i, info := range all {
		if info.ID != phases[i] {
			t.Errorf("entry %d = %q, want %q", i, info.ID, phases[i])
		}
		if info.Name == "" || info.Name == info.ID {
			t.Errorf("%q has no display name", info.ID)
		}
	}
}

func TestRegistryLookup(t *testing.T) {
	reg := NewSystemRegistry()

	if got := reg.GetName("relaxation"); got != "Relaxation" {
		t.Errorf("GetName(relaxation) = %q", got)
	}
	if got := reg.GetName("unknown_phase"); got != "unknown_phase" {
		t.Errorf("GetName fallback = %q", got)
	}
	if _, ok := reg.Get("grid_rebuild"); !ok {
		t.Error("grid_rebuild not registered")
	}
	if n := len(reg.ByCategory("fluid")); n != 9 {
		t.Errorf("fluid phases = %d, want 9", n)
	}
	cats := reg.Categories()
	if len(cats) != 3 || cats[0] != "population" || cats[1] != "fluid" {
		t.Errorf("categories = %v", cats)
	}
}
