package observability

import (
	"context"
	"testing"
)

func TestInitOTelDisabledReturnsUsableShutdown(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "")

	shutdown := InitOTel(context.Background(), nil, OtelConfig{ServiceName: "test"})
	if shutdown == nil {
		t.Fatal("shutdown func must not be nil when tracing is disabled")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("no-op shutdown returned error: %v", err)
	}
}

func TestSampleRatioBounds(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{"", 0.1},
		{"not-a-number", 0.1},
		{"-2", 0},
		{"1.5", 1},
		{"0.25", 0.25},
	}
	for _, tc := range cases {
		t.Setenv("OTEL_SAMPLER_RATIO", tc.raw)
		if got := sampleRatio(); got != tc.want {
			t.Fatalf("ratio for %q = %v, want %v", tc.raw, got, tc.want)
		}
	}
}
