package config

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/sevigo/codesage/internal/core"
)

// RepoConfigFile is the per-repository settings file read from the pull
// request's head commit.
const RepoConfigFile = ".codesage.yml"

var ErrConfigParsing = errors.New("config parsing failed")

// ParseRepoConfig decodes the contents of a .codesage.yml file. Empty input
// yields the defaults.
func ParseRepoConfig(data []byte) (*core.RepoConfig, error) {
	config := core.DefaultRepoConfig()
	if len(data) == 0 {
		return config, nil
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigParsing, err)
	}
	if config.MaxFiles < 0 {
		return nil, fmt.Errorf("%w: max_files must not be negative", ErrConfigParsing)
	}
	return config, nil
}
