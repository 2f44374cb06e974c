package config

import (
	"testing"
)

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		shouldSet    bool
		want         string
	}{
		{
			name:         "returns environment variable when set",
			key:          "TEST_VAR",
			defaultValue: "default",
			envValue:     "custom",
			shouldSet:    true,
			want:         "custom",
		},
		{
			name:         "returns default when environment variable not set",
			key:          "TEST_VAR_MISSING",
			defaultValue: "default",
			envValue:     "",
			shouldSet:    false,
			want:         "default",
		},
		{
			name:         "returns default when environment variable is empty string",
			key:          "TEST_VAR_EMPTY",
			defaultValue: "default",
			envValue:     "",
			shouldSet:    true,
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldSet {
				t.Setenv(tt.key, tt.envValue)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvAsInt(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue int
		envValue     string
		shouldSet    bool
		want         int
	}{
		{
			name:         "parses integer from environment",
			key:          "TEST_INT",
			defaultValue: 5,
			envValue:     "42",
			shouldSet:    true,
			want:         42,
		},
		{
			name:         "returns default when unset",
			key:          "TEST_INT_MISSING",
			defaultValue: 5,
			shouldSet:    false,
			want:         5,
		},
		{
			name:         "returns default when not an integer",
			key:          "TEST_INT_BAD",
			defaultValue: 5,
			envValue:     "not-a-number",
			shouldSet:    true,
			want:         5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldSet {
				t.Setenv(tt.key, tt.envValue)
			}

			got := getEnvAsInt(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvAsInt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoad_rejectsInvalidThresholds(t *testing.T) {
	t.Setenv("URGENCY_HIGH_THRESHOLD", "3")
	t.Setenv("URGENCY_MEDIUM_THRESHOLD", "4")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject URGENCY_HIGH_THRESHOLD <= URGENCY_MEDIUM_THRESHOLD")
	}
}

func TestLoad_defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.UrgencyHighThreshold != 7 || cfg.UrgencyMediumThreshold != 4 {
		t.Errorf("urgency thresholds = (%d, %d), want (7, 4)", cfg.UrgencyHighThreshold, cfg.UrgencyMediumThreshold)
	}
	if cfg.MinClusterSize != 5 || cfg.MaxClusters != 20 {
		t.Errorf("cluster bounds = (%d, %d), want (5, 20)", cfg.MinClusterSize, cfg.MaxClusters)
	}
	if cfg.ClusterSeed != 42 {
		t.Errorf("ClusterSeed = %d, want 42", cfg.ClusterSeed)
	}
}
