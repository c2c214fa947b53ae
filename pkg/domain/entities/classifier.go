package entities

import (
	"fmt"
	"sort"
	"strings"
)

// Classifier names shared by every country
const (
	ClassifierStatus             = "status"
	ClassifierForestType         = "forest_type"
	ClassifierRegion             = "region"
	ClassifierManagementType     = "management_type"
	ClassifierManagementStrategy = "management_strategy"
	ClassifierClimaticUnit       = "climatic_unit"
	ClassifierConBroad           = "conifers_broadleaves"
)

// ClassifierPlaceholder fills classifiers the allocation does not use
const ClassifierPlaceholder = "?"

// ForestStatus is the status assigned to every harvest allocation rule
const ForestStatus = "For"

// TreatmentJoinClassifiers are the classifiers silviculture treatments are defined on
var TreatmentJoinClassifiers = []string{
	ClassifierForestType,
	ClassifierManagementType,
	ClassifierManagementStrategy,
	ClassifierConBroad,
}

// SilvicultureClassifiers are the classifiers carried by allocation rules
var SilvicultureClassifiers = []string{
	ClassifierStatus,
	ClassifierForestType,
	ClassifierManagementType,
	ClassifierManagementStrategy,
	ClassifierConBroad,
}

// ClassifierSchema is the ordered list of classifier names of a country
type ClassifierSchema []string

// DefaultClassifierSchema is the seven classifier layout used by most countries
var DefaultClassifierSchema = ClassifierSchema{
	ClassifierStatus,
	ClassifierForestType,
	ClassifierRegion,
	ClassifierManagementType,
	ClassifierManagementStrategy,
	ClassifierClimaticUnit,
	ClassifierConBroad,
}

// NewClassifierSchema creates a validated schema, rejecting empty and duplicate names
func NewClassifierSchema(names []string) (ClassifierSchema, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("classifier schema cannot be empty")
	}
	seen := make(map[string]bool, len(names))
	schema := make(ClassifierSchema, 0, len(names))
	for _, raw := range names {
		name := NormalizeClassifierName(raw)
		if name == "" {
			return nil, fmt.Errorf("classifier name cannot be empty")
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate classifier name: %s", name)
		}
		seen[name] = true
		schema = append(schema, name)
	}
	return schema, nil
}

// Contains reports whether the schema has a classifier with this name
func (s ClassifierSchema) Contains(name string) bool {
	for _, n := range s {
		if n == name {
			return true
		}
	}
	return false
}

// NormalizeClassifierName lower-cases a classifier description and replaces
// spaces and slashes with underscores
func NormalizeClassifierName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, " ", "_")
	n = strings.ReplaceAll(n, "/", "_")
	if n == "conifers_bradleaves" {
		n = ClassifierConBroad
	}
	return n
}

// Classifiers maps classifier names to classifier values
type Classifiers map[string]string

// Get returns the value of a classifier, or the empty string
func (c Classifiers) Get(name string) string {
	return c[name]
}

// Key builds a canonical join key over the given classifier names
func (c Classifiers) Key(names []string) string {
	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(c[name])
	}
	return b.String()
}

// Subset copies the given classifiers into a new map
func (c Classifiers) Subset(names []string) Classifiers {
	out := make(Classifiers, len(names))
	for _, name := range names {
		if v, ok := c[name]; ok {
			out[name] = v
		}
	}
	return out
}

// Clone copies the classifier map
func (c Classifiers) Clone() Classifiers {
	out := make(Classifiers, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Names returns the classifier names in sorted order
func (c Classifiers) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ConBroad parses the conifers_broadleaves classifier
func (c Classifiers) ConBroad() (ConBroad, error) {
	return ParseConBroad(c[ClassifierConBroad])
}
