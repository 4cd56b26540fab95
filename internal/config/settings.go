package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Defaults for the liveness model. IdleThreshold doubles as the
// occupancy grace window: a session is resumable until it expires.
const (
	DefaultIdleThreshold     = 5 * time.Minute
	DefaultHeartbeatInterval = 15 * time.Second
	DefaultSweepInterval     = 10 * time.Second

	DefaultHTTPAddr = "127.0.0.1:8371"
	DefaultSSHAddr  = "127.0.0.1:8372"
)

// BroadcastChannelName is the fixed same-device channel browser tabs use
// to mirror takeover notices locally. Published through /v1/config so
// clients never hardcode it.
const BroadcastChannelName = "floorline-session-takeover"

// Settings represents the structure of ~/.floorline/settings.json
type Settings struct {
	DBPath            string `json:"db_path,omitempty"`
	Debug             *bool  `json:"debug,omitempty"`
	HTTPAddr          string `json:"http_addr,omitempty"`
	SSHAddr           string `json:"ssh_addr,omitempty"`
	IdleThreshold     string `json:"idle_threshold,omitempty"`
	HeartbeatInterval string `json:"heartbeat_interval,omitempty"`
	SweepInterval     string `json:"sweep_interval,omitempty"`
}

// LoadSettings loads settings from ~/.floorline/settings.json
// Returns empty Settings if file doesn't exist (not an error)
func LoadSettings() (*Settings, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	path := filepath.Join(homeDir, ".floorline", "settings.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Settings{}, nil // Not an error, use defaults
		}
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("invalid settings.json: %w", err)
	}

	if settings.DBPath != "" {
		settings.DBPath = ExpandPath(settings.DBPath)
	}
	return &settings, nil
}

// IdleThresholdOrDefault parses the configured idle threshold, falling
// back to the default on absence or a malformed value.
func (s *Settings) IdleThresholdOrDefault() time.Duration {
	return durationOrDefault(s.IdleThreshold, DefaultIdleThreshold)
}

// HeartbeatIntervalOrDefault parses the configured heartbeat interval.
func (s *Settings) HeartbeatIntervalOrDefault() time.Duration {
	return durationOrDefault(s.HeartbeatInterval, DefaultHeartbeatInterval)
}

// SweepIntervalOrDefault parses the configured sweep interval.
func (s *Settings) SweepIntervalOrDefault() time.Duration {
	return durationOrDefault(s.SweepInterval, DefaultSweepInterval)
}

func durationOrDefault(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// GetDBPath returns the database path, honouring FLOORLINE_HOME.
func GetDBPath() string {
	if home := os.Getenv("FLOORLINE_HOME"); home != "" {
		return filepath.Join(home, "state.db")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "floorline.db"
	}
	return filepath.Join(homeDir, ".floorline", "state.db")
}

// ExpandPath expands ~ to home directory in paths
func ExpandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path // Return as-is if we can't get home dir
		}
		return filepath.Join(homeDir, path[1:])
	}
	return path
}
