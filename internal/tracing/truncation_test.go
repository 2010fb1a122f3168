package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestMaskPII(t *testing.T) {
	assert.Equal(t, "", MaskPII(""))
	assert.Equal(t, "*", MaskPII("a"))
	assert.Equal(t, "J*", MaskPII("Jo"))
	assert.Equal(t, "J**e", MaskPII("Jane"))
	assert.Equal(t, "ja******om", MaskPII("jane@x.com"))
}

func TestMaskPIIInText(t *testing.T) {
	masked := MaskPIIInText("Jane Doe jane@x.com +27 82 123 4567")
	assert.NotContains(t, masked, "jane@x.com")
	assert.NotContains(t, masked, "82 123")
	assert.Contains(t, masked, "Jane Doe")
}

func TestSafeAttributeValue(t *testing.T) {
	assert.Equal(t, "ja******om", SafeAttributeValue("contact.email", "jane@x.com", 50))
	assert.Equal(t, "abc", SafeAttributeValue("search.keyword", "abc", 50))
	assert.Len(t, []rune(SafeAttributeValue("cv.text", "0123456789abcdef", 9)), 9)
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "ab", TruncateString("abcdef", 2))
	assert.Equal(t, "ab...ij", TruncateString("abcdefghij", 7))
}

func TestRecordErrorAndFallback(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := trace.NewTracerProvider(trace.WithSpanProcessor(recorder))

	_, span := tp.Tracer("test").Start(context.Background(), "op")
	RecordError(span, errors.New("boom"), ErrorTypeLLM)
	span.End()

	_, span2 := tp.Tracer("test").Start(context.Background(), "op2")
	RecordFallback(span2, errors.New("bad json"), ErrorTypeLLMParse, "defaults")
	span2.End()

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "Error", spans[0].Status().Code.String())
	assert.Equal(t, "Unset", spans[1].Status().Code.String())
}

func TestInitProviderWithoutEndpoint(t *testing.T) {
	shutdown, err := InitProvider(context.Background(), ProviderConfig{ServiceName: "ai-service"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
