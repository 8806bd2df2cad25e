package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTestTracer sets up a test tracer provider and returns the span recorder.
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	t.Cleanup(func() {
		_ = tp.Shutdown(t.Context())
		otel.SetTracerProvider(prev)
	})

	return sr
}

func findSpan(t *testing.T, sr *tracetest.SpanRecorder, name string) sdktrace.ReadOnlySpan {
	t.Helper()
	for _, span := range sr.Ended() {
		if span.Name() == name {
			return span
		}
	}
	require.Failf(t, "span not found", "no ended span named %q", name)
	return nil
}

func spanAttrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestTracingWithConfig_Disabled(t *testing.T) {
	sr := setupTestTracer(t)

	router := gin.New()
	router.Use(TracingWithConfig(TracingConfig{Enabled: false, ServiceName: "test-service"}))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, sr.Ended())
}

func TestTracing_ActorAttributes(t *testing.T) {
	sr := setupTestTracer(t)

	router := gin.New()
	router.Use(RequestID())
	router.Use(TracingWithConfig(DefaultTracingConfig()))
	router.Use(Actor())
	router.Use(TracingAttributeInjector())
	router.GET("/stock/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})

	req := httptest.NewRequest(http.MethodGet, "/stock/1", nil)
	req.Header.Set(RequestIDKey, "test-request-id-123")
	req.Header.Set(HeaderActorID, "6f1c1f0e-3c1a-4c55-9a51-1d0c1c5e9b11")
	req.Header.Set(HeaderActorCapabilities, "stock.view, stock.adjust")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	attrs := spanAttrs(findSpan(t, sr, "GET /stock/:id"))
	assert.Equal(t, "test-request-id-123", attrs["request_id"].AsString())
	assert.Equal(t, "6f1c1f0e-3c1a-4c55-9a51-1d0c1c5e9b11", attrs["actor_id"].AsString())
	assert.Equal(t, []string{"stock.view", "stock.adjust"}, attrs["actor.capabilities"].AsStringSlice())
}

func TestSpanErrorMarker(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		errorCode string
		wantError bool
	}{
		{name: "success", status: http.StatusOK},
		{name: "insufficient stock", status: http.StatusUnprocessableEntity, errorCode: "INSUFFICIENT_STOCK", wantError: true},
		{name: "invariant violation", status: http.StatusInternalServerError, errorCode: "INVARIANT_VIOLATION", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sr := setupTestTracer(t)

			router := gin.New()
			router.Use(TracingWithConfig(DefaultTracingConfig()))
			router.Use(SpanErrorMarker())
			router.POST("/op", func(c *gin.Context) {
				if tt.errorCode != "" {
					c.Set(ErrorCodeKey, tt.errorCode)
				}
				c.Status(tt.status)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/op", nil))

			span := findSpan(t, sr, "POST /op")
			attrs := spanAttrs(span)
			if !tt.wantError {
				assert.NotEqual(t, codes.Error, span.Status().Code)
				assert.NotContains(t, attrs, attribute.Key("ledger.error_code"))
				return
			}
			assert.Equal(t, codes.Error, span.Status().Code)
			assert.Equal(t, tt.errorCode, attrs["ledger.error_code"].AsString())
			assert.EqualValues(t, tt.status, attrs["http.status_code"].AsInt64())
		})
	}
}
