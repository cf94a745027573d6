package cube2shp

import (
	"fmt"
	"os"

	playvalidator "github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds the site specific settings. Unset values keep the defaults.
type Config struct {
	RuntppPath     string          `yaml:"runtpp_path" validate:"required"`
	Projection     string          `yaml:"projection"`
	JobScript      string          `yaml:"job_script" validate:"omitempty,file"`
	OperatorGroups []OperatorGroup `yaml:"operator_groups" validate:"unique=Suffix,dive"`
}

func DefaultConfig() *Config {
	groups := make([]OperatorGroup, len(DefaultOperatorGroups))
	copy(groups, DefaultOperatorGroups)
	return &Config{
		RuntppPath:     DefaultRuntppPath,
		Projection:     DefaultProjection,
		OperatorGroups: groups,
	}
}

// LoadConfig reads a YAML config over the defaults. An empty path returns the
// defaults. Operator groups given in the file replace the default list.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	v := playvalidator.New()
	if err := v.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}
