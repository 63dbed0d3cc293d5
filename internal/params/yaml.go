package params

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlParamFile is the on-disk layout of a parameter file:
//
//	params:
//	  str: "+3"
//	  attack: "d20&str"
type yamlParamFile struct {
	Params map[string]any `yaml:"params"`
}

// FileStore is a read-only Store loaded from a YAML parameter file.
type FileStore struct {
	values map[string]string
}

// LoadFile reads a YAML parameter file.
//
// Precondition: path must point to a readable YAML file.
// Postcondition: Returns a FileStore or a non-nil error.
func LoadFile(path string) (*FileStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading parameter file %s: %w", path, err)
	}
	return LoadFileBytes(data)
}

// LoadFileBytes parses a parameter file from YAML bytes. Values that are not
// YAML strings (numbers, lists, maps, null) are kept as empty text.
//
// Postcondition: Returns a FileStore or a non-nil error.
func LoadFileBytes(data []byte) (*FileStore, error) {
	var file yamlParamFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing parameter YAML: %w", err)
	}
	values := make(map[string]string, len(file.Params))
	for name, raw := range file.Params {
		s, _ := raw.(string)
		values[name] = s
	}
	return &FileStore{values: values}, nil
}

// Lookup returns the value of name, or "" when it is not defined.
func (s *FileStore) Lookup(_ context.Context, name string) (string, error) {
	return s.values[name], nil
}

// Len returns the number of parameters defined in the file.
func (s *FileStore) Len() int {
	return len(s.values)
}
