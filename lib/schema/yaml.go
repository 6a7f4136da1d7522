package schema

import (
	"os"
	"sort"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var Logger = logger.GetLogger("schema")

// LoadYAML reads declarations from a YAML file.
//
// The file maps table names to base keys and their defaults:
//
//	main:
//	  score: 0
//	  inventory: []
//	  profile:
//	    name: ""
//	    level: 1
func LoadYAML(path string) (*MemorySchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "schema: read file")
	}
	s, err := ParseYAML(data)
	if err != nil {
		return nil, errors.Wrapf(err, "schema: %s", path)
	}
	Logger.Infof("loaded %d declarations from %s", s.Len(), path)
	return s, nil
}

// ParseYAML parses declarations in the format described at LoadYAML
func ParseYAML(data []byte) (*MemorySchema, error) {
	var tables map[string]map[string]any
	if err := yaml.Unmarshal(data, &tables); err != nil {
		return nil, errors.Wrap(err, "schema: parse yaml")
	}

	s := NewMemorySchema()

	// sorted for deterministic error messages
	tableNames := make([]string, 0, len(tables))
	for table := range tables {
		tableNames = append(tableNames, table)
	}
	sort.Strings(tableNames)

	for _, table := range tableNames {
		for base, def := range tables[table] {
			if err := s.Declare(table, base, def); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}
