package ingest

import (
	"os"

	"gopkg.in/yaml.v3"
)

// FileConfig is the YAML configuration file. Every field is optional; CLI
// flags override whatever is set here.
type FileConfig struct {
	DB string `yaml:"db"`

	// EntityMode: create (default), strict, or lenient.
	EntityMode string `yaml:"entity_mode"`

	// OnDuplicate: supersede (default) or reject.
	OnDuplicate string `yaml:"on_duplicate"`

	// Processed files are moved here on success / failure. Empty means leave
	// the file in place.
	ArchiveDir string `yaml:"archive_dir"`
	ErrorDir   string `yaml:"error_dir"`

	Debug bool `yaml:"debug"`

	// Operator-maintained overrides, applied before any automatic matching.
	SchoolNameMappings map[string]string `yaml:"school_name_mappings"`
	ManagerAliases     map[string]string `yaml:"manager_aliases"`
}

func LoadConfig(path string) (*FileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg FileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
