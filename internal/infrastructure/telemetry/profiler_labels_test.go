package telemetry_test

import (
	"context"
	"runtime/pprof"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ticketbook/backend/internal/infrastructure/telemetry"
)

func TestWithProfilingLabels_EmptyLabels(t *testing.T) {
	called := false
	telemetry.WithProfilingLabels(context.Background(), nil, func(context.Context) {
		called = true
	})
	assert.True(t, called)
}

func TestWithProfilingLabels_AttachesLabels(t *testing.T) {
	var got string
	var ok bool
	telemetry.WithProfilingLabels(context.Background(),
		telemetry.RecalculationLabels("recalculate_event", "event"),
		func(c context.Context) {
			got, ok = pprof.Label(c, telemetry.ProfilingLabelTrigger)
		})

	assert.True(t, ok)
	assert.Equal(t, "event", got)
}

func TestWithProfilingLabels_DropsHighCardinality(t *testing.T) {
	var hasBook, hasOp bool
	telemetry.WithProfilingLabels(context.Background(), map[string]string{
		"book_id":                         "2f1c",
		telemetry.ProfilingLabelOperation: "recalculate_book",
	}, func(c context.Context) {
		_, hasBook = pprof.Label(c, "book_id")
		_, hasOp = pprof.Label(c, telemetry.ProfilingLabelOperation)
	})

	assert.False(t, hasBook)
	assert.True(t, hasOp)
}

func TestWithProfilingLabels_TruncatesLongValues(t *testing.T) {
	var got string
	telemetry.WithProfilingLabels(context.Background(), map[string]string{
		telemetry.ProfilingLabelRoute: strings.Repeat("x", 300),
	}, func(c context.Context) {
		got, _ = pprof.Label(c, telemetry.ProfilingLabelRoute)
	})

	assert.Len(t, got, telemetry.MaxLabelValueLength)
}
