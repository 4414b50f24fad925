package telemetry

import (
	"testing"
	"time"

	"github.com/pthm-cable/droplet/fluid"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhasePopulation)
		time.Sleep(100 * time.Microsecond)
		pc.ObserveStage(fluid.StageRelaxation)
		time.Sleep(200 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()

	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration")
	}
	if _, ok := stats.PhaseAvg[PhasePopulation]; !ok {
		t.Error("expected population phase to be tracked")
	}
	if _, ok := stats.PhaseAvg["relaxation"]; !ok {
		t.Error("expected relaxation phase to be tracked")
	}
}

func TestPerfCollector_StageObserver(t *testing.T) {
	pc := NewPerfCollector(4)
	sim, err := fluid.New(fluid.DefaultParams(200, 200), 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := sim.AddParticles(50); err != nil {
		t.Fatal(err)
	}
	sim.SetStageObserver(pc.ObserveStage)
	sim.Start()

	pc.StartTick()
	if err := sim.Step(fluid.Interaction{}); err != nil {
		t.Fatal(err)
	}
	pc.EndTick()

	stats := pc.Stats()
	for _, stage := range fluid.Stages() {
		if _, ok := stats.PhaseAvg[stage.String()]; !ok {
			t.Errorf("stage %s not timed", stage)
		}
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)

	for i := 0; i < 10; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseTelemetry)
		time.Sleep(10 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration after window filled")
	}
	if stats.TicksPerSecond <= 0 {
		t.Error("expected positive ticks per second")
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase("fast")
		time.Sleep(10 * time.Microsecond)
		pc.StartPhase("slow")
		time.Sleep(500 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.PhasePct["slow"] <= stats.PhasePct["fast"] {
		t.Errorf("expected slow phase (%v%%) > fast phase (%v%%)", stats.PhasePct["slow"], stats.PhasePct["fast"])
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	stats := NewPerfCollector(10).Stats()

	if stats.AvgTickDuration != 0 {
		t.Error("expected zero avg tick duration for empty collector")
	}
	if stats.PhaseAvg == nil || stats.PhasePct == nil {
		t.Error("expected non-nil phase maps")
	}
}

func TestPerfStatsToCSV(t *testing.T) {
	s := PerfStats{
		PhasePct: map[string]float64{
			"relaxation":    60,
			"grid_rebuild":  10,
			PhasePopulation: 5,
		},
	}
	row := s.ToCSV(120)
	if row.WindowEnd != 120 || row.RelaxationPct != 60 || row.GridRebuildPct != 10 || row.PopulationPct != 5 {
		t.Errorf("unexpected row %+v", row)
	}
}

func TestPhasesOrder(t *testing.T) {
	phases := Phases()
	if phases[0] != PhasePopulation || phases[len(phases)-1] != PhaseTelemetry {
		t.Fatalf("phases = %v", phases)
	}
	if len(phases) != len(fluid.Stages())+2 {
		t.Fatalf("len = %d", len(phases))
	}
}
