package stats

import (
	"encoding/json"
	"testing"
)

func Test_Scope_NamespacesInstruments(t *testing.T) {
	stat := DefaultStatsReceiver()
	stat.Scope("sched").Counter("foo").Inc(2)
	stat.Scope("sched", "workers").Gauge("bar").Update(7)

	rendered := map[string]interface{}{}
	if err := json.Unmarshal(stat.Render(false), &rendered); err != nil {
		t.Fatalf("could not unmarshal rendered stats: %v", err)
	}
	if got := rendered["sched/foo"]; got != float64(2) {
		t.Errorf("expected sched/foo to be 2, got %v", got)
	}
	if got := rendered["sched/workers/bar"]; got != float64(7) {
		t.Errorf("expected sched/workers/bar to be 7, got %v", got)
	}
}

func Test_Counter_AccumulatesAcrossLookups(t *testing.T) {
	stat := DefaultStatsReceiver()
	stat.Counter("hits").Inc(1)
	stat.Counter("hits").Inc(3)
	if got := stat.Counter("hits").Count(); got != 4 {
		t.Errorf("expected 4, got %d", got)
	}
}

func Test_ScopeElements_SlashesReplaced(t *testing.T) {
	stat := DefaultStatsReceiver()
	stat.Counter("a/b").Inc(1)

	rendered := map[string]interface{}{}
	json.Unmarshal(stat.Render(false), &rendered)
	if _, ok := rendered["a_SLASH_b"]; !ok {
		t.Errorf("expected slash in name element to be replaced, got %v", rendered)
	}
}

func Test_NilStatsReceiver_IsInert(t *testing.T) {
	stat := NilStatsReceiver()
	stat.Counter("foo").Inc(10)
	if got := stat.Counter("foo").Count(); got != 0 {
		t.Errorf("nil receiver should record nothing, got %d", got)
	}
	if got := string(stat.Render(false)); got != "{}" {
		t.Errorf("expected empty render, got %s", got)
	}
}
