package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// TestMiddleware_PropagatesTraceContext verifies that routed requests get a
// server span, that handler spans are its children and that an incoming
// traceparent is continued.
func TestMiddleware_PropagatesTraceContext(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(Propagator())
	defer func() { _ = tp.Shutdown(context.Background()) }()

	r := mux.NewRouter()
	r.Use(Middleware(""))
	r.HandleFunc("/api/v1/scheduler/free", func(w http.ResponseWriter, r *http.Request) {
		_, span := otel.Tracer("test").Start(r.Context(), "alignment.GetFreeSlots")
		span.End()
		w.WriteHeader(http.StatusOK)
	})

	const parentTraceID = "4bf92f3577b34da6a3ce929d0e0e4736"

	tests := []struct {
		name        string
		traceParent string
	}{
		{name: "without existing trace"},
		{name: "with existing trace", traceParent: "00-" + parentTraceID + "-00f067aa0ba902b7-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exporter.Reset()

			req := httptest.NewRequest("GET", "/api/v1/scheduler/free", nil)
			if tt.traceParent != "" {
				req.Header.Set("traceparent", tt.traceParent)
			}
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			if rr.Code != http.StatusOK {
				t.Fatalf("Expected status OK, got %d", rr.Code)
			}

			spans := exporter.GetSpans()
			if len(spans) != 2 {
				t.Fatalf("Expected 2 spans, got %d", len(spans))
			}
			child, server := spans[0], spans[1]
			if child.Parent.SpanID() != server.SpanContext.SpanID() {
				t.Error("Expected handler span to be a child of the server span")
			}
			if tt.traceParent != "" && server.SpanContext.TraceID().String() != parentTraceID {
				t.Errorf("Expected trace ID %s, got %s", parentTraceID, server.SpanContext.TraceID())
			}
		})
	}
}
