package chrono

import (
	"errors"
	"testing"
	"time"

	"barter-enhancer/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

func TestManualTime(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := NewManualTime(start)
	require.Equal(t, start, clock.Now())

	clock.Advance(25 * time.Hour)
	require.Equal(t, start.Add(25*time.Hour), clock.Now())
}

func TestCronLogger(t *testing.T) {
	rec := telemetry.NewRecorder()
	logger := cronLogger{tel: rec}

	logger.Info("schedule", "entry", 1, "dangling")
	debug := rec.Reports("debug", "cron: schedule")
	require.Len(t, debug, 1)
	require.Equal(t, []any{"entry: 1"}, debug[0].Params)

	logger.Error(errors.New("panic"), "job failed")
	broken := rec.Reports("broken", "cron")
	require.Len(t, broken, 1)
	require.ErrorContains(t, broken[0].Params[0].(error), "job failed: panic")
}

func TestStandardCron(t *testing.T) {
	cron := NewStandardCron(telemetry.NewRecorder())
	defer cron.Stop()

	require.Error(t, cron.Cron("not a spec", func() {}))
	require.NoError(t, cron.Cron("*/5 * * * *", func() {}))
}
