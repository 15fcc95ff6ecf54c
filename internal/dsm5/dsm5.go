// Package dsm5 carries the DSM-5 TR reference hierarchy used to code
// symptom assessments: diagnostic category > disorder > symptom group >
// coded symptom. The data is static and ships embedded.
package dsm5

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed hierarchy.yaml
var hierarchyFS embed.FS

type Symptom struct {
	Name      string `yaml:"name" json:"name"`
	Code      string `yaml:"code" json:"code"`
	Required  bool   `yaml:"required" json:"required,omitempty"`
	Criterion string `yaml:"criterion" json:"criterion,omitempty"`
}

type SymptomGroup struct {
	Name     string    `yaml:"name" json:"name"`
	Symptoms []Symptom `yaml:"symptoms" json:"symptoms"`
}

type Disorder struct {
	Name                         string         `yaml:"name" json:"name"`
	SymptomGroups                []SymptomGroup `yaml:"symptom_groups" json:"symptom_groups"`
	DurationRequirement          string         `yaml:"duration_requirement" json:"duration_requirement,omitempty"`
	FunctionalImpairmentRequired bool           `yaml:"functional_impairment_required" json:"functional_impairment_required,omitempty"`
	Specifiers                   []string       `yaml:"specifiers" json:"specifiers,omitempty"`
}

type Category struct {
	Name      string     `yaml:"name" json:"name"`
	Disorders []Disorder `yaml:"disorders" json:"disorders"`
}

// SymptomRef is one coded symptom with its position in the hierarchy.
type SymptomRef struct {
	Category     string
	Disorder     string
	SymptomGroup string
	Symptom      Symptom
}

// Catalog is the loaded hierarchy with a code index for lookups.
type Catalog struct {
	categories []Category
	byCode     map[string]SymptomRef
}

// NewCatalog loads the embedded hierarchy. Duplicate symptom codes are a
// fatal data error.
func NewCatalog() (*Catalog, error) {
	data, err := hierarchyFS.ReadFile("hierarchy.yaml")
	if err != nil {
		return nil, err
	}
	var cats []Category
	if err := yaml.Unmarshal(data, &cats); err != nil {
		return nil, fmt.Errorf("dsm5: parse hierarchy: %w", err)
	}
	c := &Catalog{categories: cats, byCode: map[string]SymptomRef{}}
	for _, cat := range cats {
		for _, dis := range cat.Disorders {
			for _, g := range dis.SymptomGroups {
				for _, s := range g.Symptoms {
					key := strings.ToUpper(s.Code)
					if key == "" {
						return nil, fmt.Errorf("dsm5: %s / %s: symptom %q has no code", cat.Name, dis.Name, s.Name)
					}
					if _, dup := c.byCode[key]; dup {
						return nil, fmt.Errorf("dsm5: duplicate symptom code %s", s.Code)
					}
					c.byCode[key] = SymptomRef{
						Category:     cat.Name,
						Disorder:     dis.Name,
						SymptomGroup: g.Name,
						Symptom:      s,
					}
				}
			}
		}
	}
	return c, nil
}

// Categories returns the hierarchy in catalog order.
func (c *Catalog) Categories() []Category {
	return c.categories
}

// Lookup resolves a symptom code, case-insensitive.
func (c *Catalog) Lookup(code string) (SymptomRef, bool) {
	ref, ok := c.byCode[strings.ToUpper(code)]
	return ref, ok
}
