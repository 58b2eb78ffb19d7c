package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ridoystarlord/schemasync/schema"
)

type yamlFile struct {
	Tables []schema.TableDefinition `yaml:"tables"`
}

// LoadDefinitionsFromYAML reads a declared schema from a YAML file with a
// top-level tables list.
func LoadDefinitionsFromYAML(filename string) ([]schema.TableDefinition, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}
	defs, err := ParseDefinitionsYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return defs, nil
}

func ParseDefinitionsYAML(data []byte) ([]schema.TableDefinition, error) {
	var yf yamlFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&yf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unmarshalling YAML: %w", err)
	}
	return yf.Tables, nil
}
