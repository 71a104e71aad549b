package timeouts_test

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/admitportal/internal/app/system/timeouts"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestConfigure_KeepsZeroFields(t *testing.T) {
	t.Cleanup(timeouts.Reset)

	timeouts.Configure(timeouts.Config{Short: 7 * time.Second})
	if got := timeouts.Short(); got != 7*time.Second {
		t.Errorf("Short() = %v, want 7s", got)
	}
	if got := timeouts.Medium(); got != timeouts.DefaultMedium {
		t.Errorf("Medium() = %v, want default %v", got, timeouts.DefaultMedium)
	}

	timeouts.Reset()
	if got := timeouts.Current(); got != timeouts.Defaults() {
		t.Errorf("after Reset: %+v, want %+v", got, timeouts.Defaults())
	}
}

func TestConfigureFromEnv(t *testing.T) {
	t.Cleanup(timeouts.Reset)
	t.Setenv("TIMEOUT_PING", "500ms")
	t.Setenv("TIMEOUT_BATCH", "5m")
	t.Setenv("TIMEOUT_LONG", "soon")
	t.Setenv("TIMEOUT_MEDIUM", "-3s")

	if n := timeouts.ConfigureFromEnv(); n != 2 {
		t.Errorf("ConfigureFromEnv() = %d, want 2", n)
	}
	want := timeouts.Defaults()
	want.Ping = 500 * time.Millisecond
	want.Batch = 5 * time.Minute
	if got := timeouts.Current(); got != want {
		t.Errorf("Current() = %+v, want %+v", got, want)
	}
}

func TestWithTimeout_LogsDeadline(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	log := zap.New(core)

	ctx, cancel := timeouts.WithTimeout(context.Background(), time.Millisecond, log, "seed catalog")
	<-ctx.Done()
	cancel()

	if logs.Len() != 1 {
		t.Fatalf("got %d log entries, want 1", logs.Len())
	}
	entry := logs.All()[0]
	if entry.ContextMap()["operation"] != "seed catalog" {
		t.Errorf("operation field = %v", entry.ContextMap()["operation"])
	}

	_, cancel = timeouts.WithTimeout(context.Background(), time.Minute, log, "quick")
	cancel()
	if logs.Len() != 1 {
		t.Errorf("early cancel logged a timeout")
	}
}
