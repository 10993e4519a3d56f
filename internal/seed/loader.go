package seed

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var templateVar = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// Loader reads a storages seed file.
type Loader struct {
	filePath string
	lookup   func(string) (string, bool)
}

// NewLoader creates a loader for filePath. Placeholders expand from the environment.
func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath, lookup: os.LookupEnv}
}

// Load reads and parses the seed file.
func (l *Loader) Load() (File, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return File{}, fmt.Errorf("failed to read storages file: %w", err)
	}
	return l.parse(data)
}

func (l *Loader) parse(data []byte) (File, error) {
	data = expandTemplateVariables(data, l.lookup)

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("failed to parse storages yaml: %w", err)
	}

	for i := range f.Storages {
		f.Storages[i].Name = strings.TrimSpace(f.Storages[i].Name)
		f.Storages[i].URL = strings.TrimSpace(f.Storages[i].URL)
	}
	return f, nil
}

// expandTemplateVariables replaces {{NAME}} with the value of NAME; unset
// variables become empty.
// Example: url: https://h/p?apiKey={{PROD_KEY}}
func expandTemplateVariables(data []byte, lookup func(string) (string, bool)) []byte {
	return templateVar.ReplaceAllFunc(data, func(m []byte) []byte {
		name := templateVar.FindSubmatch(m)[1]
		v, _ := lookup(string(name))
		return []byte(v)
	})
}
