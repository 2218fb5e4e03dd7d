package cliconfig

import (
	"testing"
	"time"
)

func TestApplyEnvConfig(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		changed  map[string]bool
		initial  Config
		expected Config
		wantErr  bool
	}{
		{
			name: "applies all valid env vars",
			envVars: map[string]string{
				"HOMEINFO_CACHE_DIR":    "/env/cache",
				"HOMEINFO_SERVICE_URL":  "http://env.example.com",
				"HOMEINFO_HTTP_TIMEOUT": "10s",
				"HOMEINFO_ONCE":         "true",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				CacheDir:    "/env/cache",
				ServiceURL:  "http://env.example.com",
				HTTPTimeout: 10 * time.Second,
				Once:        true,
			},
		},
		{
			name: "respects changed flags",
			envVars: map[string]string{
				"HOMEINFO_CACHE_DIR": "/env/cache",
				"HOMEINFO_AUTH_KEY":  "env-key",
			},
			changed: map[string]bool{"cache-dir": true},
			initial: Config{
				CacheDir: "/flag/cache",
			},
			expected: Config{
				CacheDir: "/flag/cache",
				AuthKey:  "env-key",
			},
		},
		{
			name: "returns error for invalid duration",
			envVars: map[string]string{
				"HOMEINFO_DEBOUNCE_DELAY": "not-a-duration",
			},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name: "handles bool '1' as true",
			envVars: map[string]string{
				"HOMEINFO_JSON": "1",
			},
			changed:  map[string]bool{},
			initial:  Config{},
			expected: Config{JSON: true},
		},
		{
			name: "handles bool 'false' as false",
			envVars: map[string]string{
				"HOMEINFO_JSON": "false",
			},
			changed:  map[string]bool{},
			initial:  Config{JSON: true},
			expected: Config{JSON: false},
		},
		{
			name: "handles all field types correctly",
			envVars: map[string]string{
				"HOMEINFO_CACHE_DIR":      "/cache",
				"HOMEINFO_CACHE_KEY":      "key",
				"HOMEINFO_SERVICE_URL":    "http://example.com",
				"HOMEINFO_PATH_PREFIX":    "/v2/home",
				"HOMEINFO_AUTH_KEY":       "secret",
				"HOMEINFO_HTTP_TIMEOUT":   "30s",
				"HOMEINFO_DEBOUNCE_DELAY": "75ms",
				"HOMEINFO_LOG_LEVEL":      "warn",
				"HOMEINFO_JSON":           "true",
				"HOMEINFO_ONCE":           "1",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				CacheDir:      "/cache",
				CacheKey:      "key",
				ServiceURL:    "http://example.com",
				Path:          "/v2/home",
				AuthKey:       "secret",
				HTTPTimeout:   30 * time.Second,
				DebounceDelay: 75 * time.Millisecond,
				LogLevel:      "warn",
				JSON:          true,
				Once:          true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := tt.initial
			err := ApplyEnvConfig(&cfg, tt.changed)

			if tt.wantErr && err == nil {
				t.Error("ApplyEnvConfig() expected error but got nil")
				return
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ApplyEnvConfig() unexpected error: %v", err)
				return
			}

			if !tt.wantErr && cfg != tt.expected {
				t.Errorf("ApplyEnvConfig() = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

func TestApplyEnvConfig_Unset(t *testing.T) {
	initial := DefaultConfig()
	cfg := initial

	if err := ApplyEnvConfig(&cfg, map[string]bool{}); err != nil {
		t.Fatalf("ApplyEnvConfig() unexpected error: %v", err)
	}
	if cfg != initial {
		t.Errorf("ApplyEnvConfig() with no variables changed config: %+v", cfg)
	}
}
