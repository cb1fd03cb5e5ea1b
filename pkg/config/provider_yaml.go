package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements Provider for YAML configuration files
type YAMLProvider struct {
	filename string
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{filename: filename}
}

// LoadConfig loads and validates the configuration from the YAML file.
// Unset tunables stay nil; the engine defaults apply downstream.
func (y *YAMLProvider) LoadConfig() (*Data, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	var data Data
	if err := yaml.Unmarshal(cfgFile, &data); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", y.filename, err)
	}

	if data.Station.Name == "" {
		return nil, fmt.Errorf("%s: station name is required", y.filename)
	}
	if data.Station.Latitude <= -90 || data.Station.Latitude >= 90 {
		return nil, fmt.Errorf("%s: station latitude %.4f outside valid range (-90, 90)",
			y.filename, data.Station.Latitude)
	}
	if data.Station.HourlyCSV == "" {
		return nil, fmt.Errorf("%s: station hourly_csv is required", y.filename)
	}
	for i, p := range data.Proxies {
		if p.Name == "" || p.DailyCSV == "" {
			return nil, fmt.Errorf("%s: proxy %d needs both name and daily_csv", y.filename, i)
		}
	}
	if data.Solver.MinEquations != nil && *data.Solver.MinEquations < 1 {
		return nil, fmt.Errorf("%s: min_equations must be positive, got %d", y.filename, *data.Solver.MinEquations)
	}
	if data.Patch.MinOverlap != nil && *data.Patch.MinOverlap < 1 {
		return nil, fmt.Errorf("%s: min_overlap must be positive, got %d", y.filename, *data.Patch.MinOverlap)
	}

	return &data, nil
}
