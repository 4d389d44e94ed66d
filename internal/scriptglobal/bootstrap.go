package scriptglobal

import (
	"fmt"
	"io"

	"github.com/opsmonitor/scriptengine/internal/scriptvalue"
	"gopkg.in/yaml.v3"
)

// bootstrapDoc mirrors the tiny YAML shape LoadBootstrapYAML accepts:
//
//	namespaces:
//	  System: {}
//	  Types: {}
//	  Deprecated: {}
//	  CustomNamespace: {}
type bootstrapDoc struct {
	Namespaces map[string]map[string]any `yaml:"namespaces"`
}

// LoadBootstrapYAML parses a namespace-bootstrap document and returns a
// fresh Global pre-populated with an empty Dictionary for every named
// namespace, always including the three required base namespaces (System,
// Types, Deprecated) even if the document omits them.
//
// Malformed YAML is returned as an error; startup never panics on a bad
// bootstrap file.
func LoadBootstrapYAML(r io.Reader) (*Global, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("scriptglobal: reading bootstrap: %w", err)
	}

	var doc bootstrapDoc
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("scriptglobal: parsing bootstrap yaml: %w", err)
		}
	}

	g := New()
	required := []string{"System", "Types", "Deprecated"}
	seen := make(map[string]bool, len(doc.Namespaces)+len(required))
	for _, name := range required {
		g.Set(name, scriptvalue.FromObject(scriptvalue.NewDictionary()))
		seen[name] = true
	}
	for name := range doc.Namespaces {
		if seen[name] {
			continue
		}
		g.Set(name, scriptvalue.FromObject(scriptvalue.NewDictionary()))
		seen[name] = true
	}
	return g, nil
}
