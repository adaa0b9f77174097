package detection

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Semantic labels the measurement engine understands.
const (
	LabelInduration = "induration"
	LabelFiducial   = "fiducial"
)

// ClassNames maps model class ids to semantic labels.
type ClassNames map[int]string

// DefaultClassNames returns the label order of the measurement model's data.yaml
func DefaultClassNames() ClassNames {
	return ClassNames{
		0: LabelInduration,
		1: LabelFiducial,
	}
}

// Label returns the label for id and whether it is known.
func (c ClassNames) Label(id int) (string, bool) {
	name, ok := c[id]
	return name, ok
}

// IDs returns the known class ids in ascending order.
func (c ClassNames) IDs() []int {
	ids := make([]int, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// dataYAML is the subset of an Ultralytics dataset file we read.
// names may be a list (index = class id) or an id -> name map.
type dataYAML struct {
	Names yaml.Node `yaml:"names"`
}

// ParseClassNames parses the names section of an Ultralytics data.yaml.
func ParseClassNames(data []byte) (ClassNames, error) {
	var doc dataYAML
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse data.yaml: %w", err)
	}

	names := make(ClassNames)
	switch doc.Names.Kind {
	case yaml.SequenceNode:
		var list []string
		if err := doc.Names.Decode(&list); err != nil {
			return nil, fmt.Errorf("decode names list: %w", err)
		}
		for i, n := range list {
			names[i] = n
		}
	case yaml.MappingNode:
		var m map[int]string
		if err := doc.Names.Decode(&m); err != nil {
			return nil, fmt.Errorf("decode names map: %w", err)
		}
		for id, n := range m {
			names[id] = n
		}
	default:
		return nil, fmt.Errorf("data.yaml: missing names")
	}

	if len(names) == 0 {
		return nil, fmt.Errorf("data.yaml: names is empty")
	}
	return names, nil
}

// LoadClassNames reads class names from a data.yaml file.
func LoadClassNames(path string) (ClassNames, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseClassNames(data)
}
