// Package schema validates sync messages against the warehouse contract.
//
// Every destination table has a JSON schema embedded in this package, keyed
// by a canonical https URI. A message's event_type selects the schema;
// messages with no registered schema fail closed.
package schema

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// BaseURI is the namespace all schema $id values live under.
const BaseURI = "https://schemas.crownpointrestaurant.com/pos/"

// eventTypePrefix matches the envelope convention: pos.<table suffix>.
const eventTypePrefix = "pos."

// Registry holds the compiled schemas, one per event type.
type Registry struct {
	schemas map[string]*jsonschema.Schema
}

// NewRegistry compiles every embedded schema. Shared definitions live in
// common.json and are resolvable from any schema via relative $ref.
func NewRegistry() (*Registry, error) {
	entries, err := fs.ReadDir(schemaFS, "schemas")
	if err != nil {
		return nil, fmt.Errorf("read embedded schemas: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	for _, entry := range entries {
		data, err := schemaFS.ReadFile("schemas/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", entry.Name(), err)
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("parse schema %s: %w", entry.Name(), err)
		}
		if err := compiler.AddResource(BaseURI+entry.Name(), doc); err != nil {
			return nil, fmt.Errorf("register schema %s: %w", entry.Name(), err)
		}
	}

	schemas := make(map[string]*jsonschema.Schema)
	for _, entry := range entries {
		name := strings.TrimSuffix(entry.Name(), ".json")
		if name == "common" {
			continue
		}
		compiled, err := compiler.Compile(BaseURI + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", entry.Name(), err)
		}
		schemas[eventTypePrefix+name] = compiled
	}
	return &Registry{schemas: schemas}, nil
}

// EventTypes returns the registered event types.
func (r *Registry) EventTypes() []string {
	types := make([]string, 0, len(r.schemas))
	for t := range r.schemas {
		types = append(types, t)
	}
	return types
}

// Validate checks a decoded sync message against the schema selected by its
// event_type. A non-nil error is a validation failure; unknown event types
// fail closed.
func (r *Registry) Validate(message map[string]any) error {
	eventType, _ := message["event_type"].(string)
	if eventType == "" {
		return fmt.Errorf("message missing event_type field")
	}
	compiled, ok := r.schemas[eventType]
	if !ok {
		return fmt.Errorf("no schema registered for event_type %q (expected $id %s%s.json)",
			eventType, BaseURI, strings.TrimPrefix(eventType, eventTypePrefix))
	}
	if err := compiled.Validate(message); err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	return nil
}
