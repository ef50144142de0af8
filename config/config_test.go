package config

import (
	"reflect"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestParseServices(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    map[ServiceMode]bool
		expectError bool
	}{
		{
			name:     "single service - http",
			input:    "http",
			expected: map[ServiceMode]bool{ServiceModeHTTP: true},
		},
		{
			name:     "single service - sweeper",
			input:    "sweeper",
			expected: map[ServiceMode]bool{ServiceModeSweeper: true},
		},
		{
			name:  "multiple services",
			input: "http,sweeper",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP:    true,
				ServiceModeSweeper: true,
			},
		},
		{
			name:  "whitespace tolerated",
			input: " http , sweeper ",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP:    true,
				ServiceModeSweeper: true,
			},
		},
		{
			name:        "empty input",
			input:       "",
			expectError: true,
		},
		{
			name:        "invalid service name",
			input:       "http,scheduler",
			expectError: true,
		},
		{
			name:        "only commas",
			input:       ",,,",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseServices(tt.input)
			if tt.expectError {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Fatalf("got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAppConfigDefaults(t *testing.T) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if cfg.Postgres.Host != "localhost" {
		t.Errorf("Postgres.Host = %q, want localhost", cfg.Postgres.Host)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("HTTP.Addr = %q, want :8080", cfg.HTTP.Addr)
	}
	if cfg.Services != "http" {
		t.Errorf("Services = %q, want http", cfg.Services)
	}
	if cfg.Dispatch.Timeout != 5*time.Second {
		t.Errorf("Dispatch.Timeout = %v, want 5s", cfg.Dispatch.Timeout)
	}
}

func TestSweeperConfigSanitize(t *testing.T) {
	s := SweeperConfig{Interval: -1, AcceptDeadline: 0, BatchSize: 0}
	s.Sanitize()

	if s.Interval != time.Minute {
		t.Errorf("Interval = %v, want 1m", s.Interval)
	}
	if s.AcceptDeadline != 90*time.Minute {
		t.Errorf("AcceptDeadline = %v, want 90m", s.AcceptDeadline)
	}
	if s.BatchSize != 1 {
		t.Errorf("BatchSize = %d, want 1", s.BatchSize)
	}
}

func TestDispatchConfigSanitize(t *testing.T) {
	d := DispatchConfig{Timeout: 0, RetryLimit: -3}
	d.Sanitize()

	if d.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", d.Timeout)
	}
	if d.RetryLimit != 0 {
		t.Errorf("RetryLimit = %d, want 0", d.RetryLimit)
	}
}
