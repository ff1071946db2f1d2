package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSpansExported(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	require.NoError(t, InitWithExporter("burrow", "test", exporter))

	_, span := StartSpan(context.Background(), "scheduler.assign")
	span.SetAttributes(map[string]string{"task_id": "t1"}).SetInt("filled", 2)
	span.End(nil)

	_, failed := StartServerSpan(context.Background(), "GET /tasks")
	failed.End(errors.New("boom"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "scheduler.assign", spans[0].Name)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)
	assert.Equal(t, codes.Error, spans[1].Status.Code)
}

func TestNilSpanIsSafe(t *testing.T) {
	var s *Span
	s.SetAttributes(map[string]string{"k": "v"}).SetInt("n", 1)
	s.SetStatusFromHTTPCode(500)
	s.End(nil)
}
