package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"nexus/internal/model"
)

// SectionConfig describes where a section's document lives and how quickly it goes stale.
type SectionConfig struct {
	Document          string `yaml:"document"`
	StaleAfterMinutes int    `yaml:"stale_after_minutes"`
}

type sectionsFile struct {
	Sections map[string]SectionConfig `yaml:"sections"`
}

// DefaultSections maps every section to "<section>.md" with the default threshold.
// Services are checked less often and use a longer threshold.
func DefaultSections() map[model.Section]SectionConfig {
	out := make(map[model.Section]SectionConfig, len(model.Sections))
	for _, s := range model.Sections {
		out[s] = SectionConfig{Document: string(s) + ".md", StaleAfterMinutes: model.DefaultStaleAfterMinutes}
	}
	out[model.SectionServices] = SectionConfig{Document: "services.md", StaleAfterMinutes: 30}
	out[model.SectionOperationsManual] = SectionConfig{Document: "operations_manual.md", StaleAfterMinutes: 60}
	out[model.SectionSystemConfig] = SectionConfig{Document: "system_config.md", StaleAfterMinutes: 60}
	return out
}

// LoadSections overlays the YAML file at path on DefaultSections.
// An empty path returns the defaults. Unknown section names are rejected.
//
//	sections:
//	  projects:
//	    document: kanban/projects.md
//	    stale_after_minutes: 15
func LoadSections(path string) (map[model.Section]SectionConfig, error) {
	out := DefaultSections()
	if path == "" {
		return out, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sections file: %w", err)
	}
	var f sectionsFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse sections file: %w", err)
	}
	for name, sc := range f.Sections {
		s, err := model.ParseSection(name)
		if err != nil {
			return nil, fmt.Errorf("sections file: %w", err)
		}
		cur := out[s]
		if sc.Document != "" {
			cur.Document = sc.Document
		}
		if sc.StaleAfterMinutes > 0 {
			cur.StaleAfterMinutes = sc.StaleAfterMinutes
		}
		out[s] = cur
	}
	return out, nil
}
