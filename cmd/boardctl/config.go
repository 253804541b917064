package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"taskboard/client"
)

const defaultTimeout = 15 * time.Second

// cliConfig is the boardctl configuration file.
type cliConfig struct {
	APIURL  string        `yaml:"api_url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "boardctl.yaml")
}

// loadCLIConfig reads the config file and applies environment overrides.
// A missing file is only an error when its path was given explicitly.
func loadCLIConfig(path string, getenv func(string) string) (cliConfig, error) {
	cfg := cliConfig{APIURL: client.DefaultBaseURL, Timeout: defaultTimeout}

	explicit := path != ""
	if !explicit {
		path = getenv("BOARDCTL_CONFIG")
		explicit = path != ""
	}
	if !explicit {
		path = defaultConfigPath()
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		case err != nil:
			return cliConfig{}, fmt.Errorf("read config: %w", err)
		default:
			var file cliConfig
			if err := yaml.Unmarshal(raw, &file); err != nil {
				return cliConfig{}, fmt.Errorf("parse config %s: %w", path, err)
			}
			if file.APIURL != "" {
				cfg.APIURL = file.APIURL
			}
			if file.Token != "" {
				cfg.Token = file.Token
			}
			if file.Timeout > 0 {
				cfg.Timeout = file.Timeout
			}
		}
	}

	if v := getenv("BOARD_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := getenv("BOARD_TOKEN"); v != "" {
		cfg.Token = v
	}
	return cfg, nil
}
