package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
	}{
		{
			name: "valid config",
			envVars: map[string]string{
				"SERVER_PORT":   "8080",
				"LOG_LEVEL":     "info",
				"DATABASE_PATH": "test.db",
			},
			wantErr: false,
		},
		{
			name:    "defaults applied",
			envVars: map[string]string{},
			wantErr: false,
		},
		{
			name: "invalid log level",
			envVars: map[string]string{
				"LOG_LEVEL": "loud",
			},
			wantErr: true,
		},
		{
			name: "invalid gate seconds",
			envVars: map[string]string{
				"GATE_SECONDS": "0",
			},
			wantErr: true,
		},
		{
			name: "invalid progress tick",
			envVars: map[string]string{
				"PROGRESS_TICK_MS": "-1",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear environment
			os.Clearenv()

			// Set test environment variables
			for key, value := range tt.envVars {
				os.Setenv(key, value)
			}

			cfg, err := Load()

			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			// Verify defaults
			if _, exists := tt.envVars["SERVER_PORT"]; !exists {
				require.Equal(t, "8080", cfg.ServerPort)
			}

			if _, exists := tt.envVars["LOG_LEVEL"]; !exists {
				require.Equal(t, "info", cfg.LogLevel)
			}

			if _, exists := tt.envVars["DATABASE_PATH"]; !exists {
				require.Equal(t, "trendingblock.db", cfg.DatabasePath)
			}

			if _, exists := tt.envVars["GATE_SECONDS"]; !exists {
				require.Equal(t, 3, cfg.GateSeconds)
			}

			if _, exists := tt.envVars["PROGRESS_TICK_MS"]; !exists {
				require.Equal(t, 800, cfg.ProgressTickMS)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "valid config",
			config: Config{
				ServerPort:     "8080",
				LogLevel:       "info",
				DatabasePath:   "test.db",
				GateSeconds:    3,
				ProgressTickMS: 800,
			},
			wantErr: false,
		},
		{
			name: "empty database path",
			config: Config{
				LogLevel:       "info",
				DatabasePath:   "",
				GateSeconds:    3,
				ProgressTickMS: 800,
			},
			wantErr: true,
		},
		{
			name: "log level is case-insensitive",
			config: Config{
				LogLevel:       "DEBUG",
				DatabasePath:   "test.db",
				GateSeconds:    3,
				ProgressTickMS: 800,
			},
			wantErr: false,
		},
		{
			name: "unknown log level",
			config: Config{
				LogLevel:       "trace",
				DatabasePath:   "test.db",
				GateSeconds:    3,
				ProgressTickMS: 800,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}
