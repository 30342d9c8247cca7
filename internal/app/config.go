package app

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	BackendURL  string `yaml:"backend_url"`
	StreamURL   string `yaml:"stream_url"`
	OrderAPIURL string `yaml:"order_api_url"`
	OrderAPIKey string `yaml:"order_api_key"`
	Profile     string `yaml:"profile"`
	RelayAddr   string `yaml:"relay_addr"`
}

func DefaultConfig() Config {
	return Config{
		BackendURL:  "http://localhost:8000",
		StreamURL:   "ws://localhost:8000/ws",
		OrderAPIURL: "https://api.pinar.retter.io/3cn87h0si/CALL/Order/getHackathonOrders",
		Profile:     "warehouse",
		RelayAddr:   ":3000",
	}
}

func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = DefaultConfigPath()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return cfg, err
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	// Environment overrides win over file values.
	if v := os.Getenv("STOKRADAR_BACKEND_URL"); v != "" {
		cfg.BackendURL = v
	}
	if v := os.Getenv("STOKRADAR_STREAM_URL"); v != "" {
		cfg.StreamURL = v
	}
	if v := os.Getenv("STOKRADAR_ORDER_API_URL"); v != "" {
		cfg.OrderAPIURL = v
	}
	if v := os.Getenv("STOKRADAR_ORDER_API_KEY"); v != "" {
		cfg.OrderAPIKey = v
	}

	if cfg.BackendURL == "" {
		cfg.BackendURL = "http://localhost:8000"
	}
	if cfg.StreamURL == "" {
		cfg.StreamURL = "ws://localhost:8000/ws"
	}
	if cfg.Profile == "" {
		cfg.Profile = "warehouse"
	}
	if cfg.RelayAddr == "" {
		cfg.RelayAddr = ":3000"
	}
	return cfg, nil
}

func SaveConfig(cfg Config, path string) error {
	if path == "" {
		return errors.New("no path provided for config")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func DefaultConfigPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "stokradar", "config.yml")
}
