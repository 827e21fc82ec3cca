package model

import "fmt"

// Section is a named category of data kept in sync between a document and the store.
type Section string

const (
	SectionProjects         Section = "projects"
	SectionServices         Section = "services"
	SectionUsageLimits      Section = "usage_limits"
	SectionOperationsManual Section = "operations_manual"
	SectionSystemConfig     Section = "system_config"
)

// Sections is the fixed set of tracked sections in reporting order.
var Sections = []Section{
	SectionProjects,
	SectionServices,
	SectionUsageLimits,
	SectionOperationsManual,
	SectionSystemConfig,
}

// EntityType names a kind of store record a section can be bound to.
type EntityType string

const (
	EntityProject EntityType = "project"
	EntityService EntityType = "service"
	EntityUsage   EntityType = "usage"
)

// ParseSection validates name against the known sections.
func ParseSection(name string) (Section, error) {
	for _, s := range Sections {
		if string(s) == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("section %q: %w", name, ErrNotFound)
}

// EntityType returns the store record type bound to the section, if any.
func (s Section) EntityType() (EntityType, bool) {
	switch s {
	case SectionProjects:
		return EntityProject, true
	case SectionServices:
		return EntityService, true
	case SectionUsageLimits:
		return EntityUsage, true
	}
	return "", false
}
