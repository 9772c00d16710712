package otel

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
)

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		in           string
		override     bool
		wantHost     string
		wantInsecure bool
		wantErr      bool
	}{
		{"localhost:4317", false, "localhost:4317", true, false},
		{"http://collector:4317", false, "collector:4317", true, false},
		{"https://collector:4317/v1/traces", false, "collector:4317", false, false},
		{"https://collector:4317", true, "collector:4317", true, false},
		{"http://", false, "", false, true},
		{"http://[::1", false, "", false, true},
	}
	for _, tt := range tests {
		got, err := parseEndpoint(tt.in, tt.override)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseEndpoint(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseEndpoint(%q): %v", tt.in, err)
			continue
		}
		if got.host != tt.wantHost || got.insecure != tt.wantInsecure {
			t.Errorf("parseEndpoint(%q) = %+v, want host %q insecure %v", tt.in, got, tt.wantHost, tt.wantInsecure)
		}
	}
}

func TestNewProviders_EmptyEndpoint(t *testing.T) {
	p, err := NewProviders(context.Background(), Config{Endpoint: "  ", ServiceName: "account-service"})
	if err != nil {
		t.Fatalf("NewProviders: %v", err)
	}
	if p.TracerProvider == nil || p.MeterProvider == nil || p.LoggerProvider == nil {
		t.Fatal("providers should be non-nil")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}

func TestNewProviders_InvalidEndpoint(t *testing.T) {
	if _, err := NewProviders(context.Background(), Config{Endpoint: "http://"}); err == nil {
		t.Error("expected error for endpoint without host")
	}
}

func TestNewProviders_WithCollector(t *testing.T) {
	// Exporters connect lazily, so no collector needs to be listening.
	p, err := NewProviders(context.Background(), Config{Endpoint: "localhost:4317", ServiceName: "account-service"})
	if err != nil {
		t.Fatalf("NewProviders: %v", err)
	}
	p.SetGlobal()
	if otel.GetTracerProvider() != p.TracerProvider {
		t.Error("global tracer provider not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = p.Shutdown(ctx)
}
