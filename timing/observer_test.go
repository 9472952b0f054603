package timing

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/toolbox/clock"
)

func TestHistogramObserver(t *testing.T) {
	vec := NewHistogram("toolbox")
	m := clock.NewManual()
	timer := NewTimer(WithClock(m), WithObserver(NewHistogramObserver(vec)), WithName("append"))

	timer.Measure(func() { m.Advance(1500 * time.Millisecond) })
	timer.Measure(func() { m.Advance(500 * time.Millisecond) })
	timer.Named("").Measure(func() {})

	if n := testutil.CollectAndCount(vec); n != 2 {
		t.Fatalf("expected 2 label sets, got %d", n)
	}

	h, ok := vec.WithLabelValues("append").(prometheus.Metric)
	if !ok {
		t.Fatal("histogram does not implement prometheus.Metric")
	}
	var metric dto.Metric
	if err := h.Write(&metric); err != nil {
		t.Fatal(err)
	}
	if got := metric.GetHistogram().GetSampleCount(); got != 2 {
		t.Errorf("sample count = %d, want 2", got)
	}
	if got := metric.GetHistogram().GetSampleSum(); got != 2 {
		t.Errorf("sample sum = %v, want 2", got)
	}
}

func TestLogObserver(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	m := clock.NewManual()
	timer := NewTimer(WithClock(m), WithObserver(NewLogObserver(zap.New(core))), WithName("read"))

	timer.Measure(func() { m.Advance(time.Second) })

	entries := logs.FilterMessage("unit timed").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["name"] != "read" {
		t.Errorf("name = %v", ctx["name"])
	}
	if ctx["elapsed"] != time.Second {
		t.Errorf("elapsed = %v", ctx["elapsed"])
	}
}

func TestLogObserver_Level(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	obs := NewLogObserver(zap.New(core))

	obs.Observe("quiet", time.Millisecond)
	if logs.Len() != 0 {
		t.Fatal("debug entries must be filtered by an info core")
	}

	obs.AtLevel(zap.NewAtomicLevelAt(zap.InfoLevel)).Observe("loud", time.Millisecond)
	if logs.Len() != 1 {
		t.Fatalf("expected 1 entry at info, got %d", logs.Len())
	}
}

func TestObservers_FanOut(t *testing.T) {
	a, b := &recordingObserver{}, &recordingObserver{}
	NewTimer(WithObserver(Observers(a, nil, b)), WithName("x")).Measure(func() {})

	if len(a.names) != 1 || len(b.names) != 1 {
		t.Fatalf("fan-out reached %d and %d observers", len(a.names), len(b.names))
	}
}
