package zone

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/taibuivan/atelier/internal/delivery"
	"github.com/taibuivan/atelier/pkg/slice"
)

//go:embed templates.yaml
var builtinTemplates []byte

// Template is a named set of zones provisioned together on a page.
type Template struct {
	Name        string         `yaml:"name" json:"name"`
	Description string         `yaml:"description" json:"description"`
	Zones       []ZoneTemplate `yaml:"zones" json:"zones"`
}

// ZoneTemplate describes one zone a template creates.
type ZoneTemplate struct {
	Name        string `yaml:"name" json:"name"`
	Purpose     string `yaml:"purpose" json:"purpose"`
	Description string `yaml:"description" json:"description,omitempty"`
	Width       *int   `yaml:"width" json:"width,omitempty"`
	Height      *int   `yaml:"height" json:"height,omitempty"`
	ObjectFit   string `yaml:"object_fit" json:"object_fit,omitempty"`
	AspectRatio string `yaml:"aspect_ratio" json:"aspect_ratio,omitempty"`
}

// Overrides returns the presentation hints the zone starts with.
func (z ZoneTemplate) Overrides() delivery.Overrides {
	return delivery.Overrides{
		Width:       z.Width,
		Height:      z.Height,
		ObjectFit:   z.ObjectFit,
		AspectRatio: z.AspectRatio,
	}
}

// TemplateSet is an immutable, name-indexed collection of templates.
type TemplateSet struct {
	ordered []Template
	byName  map[string]Template
}

type templateFile struct {
	Templates []Template `yaml:"templates"`
}

// BuiltinTemplates parses the templates compiled into the binary.
func BuiltinTemplates() (*TemplateSet, error) {
	return ParseTemplates(builtinTemplates)
}

// LoadTemplates reads a template file from disk.
func LoadTemplates(filename string) (*TemplateSet, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}
	return ParseTemplates(data)
}

/*
ParseTemplates decodes and checks a YAML template document.

Description: Template and zone names are normalised to slugs. A template
must have at least one zone, zone names must be unique within it and every
purpose must be one the rule table knows (aliases are accepted).

Returns:
  - *TemplateSet: templates in document order
  - error: decoding or consistency failures
*/
func ParseTemplates(data []byte) (*TemplateSet, error) {
	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode templates: %w", err)
	}

	set := &TemplateSet{byName: make(map[string]Template, len(file.Templates))}
	for _, template := range file.Templates {
		template.Name = NormalizeName(template.Name)
		if template.Name == "" {
			return nil, fmt.Errorf("template without a name")
		}
		if _, exists := set.byName[template.Name]; exists {
			return nil, fmt.Errorf("template %q defined twice", template.Name)
		}
		if len(template.Zones) == 0 {
			return nil, fmt.Errorf("template %q has no zones", template.Name)
		}

		seen := make(map[string]bool, len(template.Zones))
		for i := range template.Zones {
			zone := &template.Zones[i]
			zone.Name = NormalizeName(zone.Name)
			if zone.Name == "" {
				return nil, fmt.Errorf("template %q: zone %d has no name", template.Name, i)
			}
			if seen[zone.Name] {
				return nil, fmt.Errorf("template %q: zone %q defined twice", template.Name, zone.Name)
			}
			seen[zone.Name] = true

			purpose := delivery.ParsePurpose(zone.Purpose)
			if !purpose.Known() {
				return nil, fmt.Errorf("template %q: zone %q has unknown purpose %q", template.Name, zone.Name, zone.Purpose)
			}
			zone.Purpose = string(purpose)
			zone.ObjectFit = strings.ToLower(strings.TrimSpace(zone.ObjectFit))
			if zone.ObjectFit != "" && !slices.Contains(ObjectFits, zone.ObjectFit) {
				return nil, fmt.Errorf("template %q: zone %q has unknown object_fit %q", template.Name, zone.Name, zone.ObjectFit)
			}
			if _, ok := delivery.ParseAspectRatio(zone.AspectRatio); zone.AspectRatio != "" && !ok {
				return nil, fmt.Errorf("template %q: zone %q has bad aspect_ratio %q", template.Name, zone.Name, zone.AspectRatio)
			}
		}

		set.ordered = append(set.ordered, template)
		set.byName[template.Name] = template
	}
	return set, nil
}

// Lookup finds a template by (normalised) name.
func (set *TemplateSet) Lookup(name string) (Template, bool) {
	template, ok := set.byName[NormalizeName(name)]
	return template, ok
}

// All returns every template in document order.
func (set *TemplateSet) All() []Template {
	return slices.Clone(set.ordered)
}

// Names lists template names in document order.
func (set *TemplateSet) Names() []string {
	return slice.Map(set.ordered, func(template Template) string { return template.Name })
}
