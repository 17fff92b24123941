package application

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default_chart.yaml
var defaultChartYAML []byte

// SeedAccount is one row of a chart seed file. Parents must precede their
// children so ParentCode can be resolved in one pass.
type SeedAccount struct {
	Code        string `yaml:"code"`
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	ParentCode  string `yaml:"parent_code,omitempty"`
	Description string `yaml:"description,omitempty"`
}

type chartSeedFile struct {
	Accounts []SeedAccount `yaml:"accounts"`
}

// DefaultChart returns the built-in chart seed.
func DefaultChart() ([]SeedAccount, error) {
	return parseChartSeed(defaultChartYAML)
}

// LoadChartSeed reads a chart seed from a YAML file.
func LoadChartSeed(path string) ([]SeedAccount, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseChartSeed(data)
}

func parseChartSeed(data []byte) ([]SeedAccount, error) {
	var file chartSeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("chart seed: %w", err)
	}
	if len(file.Accounts) == 0 {
		return nil, fmt.Errorf("chart seed: no accounts")
	}
	return file.Accounts, nil
}
