package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load validates data and decodes it into a MultiPipelineConfig. A document
// holding a single pipeline is returned as a one-entry map keyed by its name
// ("default" when unnamed).
func Load(data []byte) (*MultiPipelineConfig, error) {
	violations, err := Validate(data)
	if err != nil {
		return nil, err
	}
	if len(violations) > 0 {
		return nil, fmt.Errorf("invalid config:\n  %s", strings.Join(violations, "\n  "))
	}
	var probe map[string]yaml.Node
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, err
	}
	if _, ok := probe["pipelines"]; ok {
		return ParseMultiPipelineConfig(data)
	}
	single, err := ParsePipelineConfig(data)
	if err != nil {
		return nil, err
	}
	name := single.Name
	if name == "" {
		name = "default"
	}
	return &MultiPipelineConfig{Pipelines: map[string]PipelineConfig{name: *single}}, nil
}

// LoadFile reads and loads the pipeline file at path.
func LoadFile(path string) (*MultiPipelineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
