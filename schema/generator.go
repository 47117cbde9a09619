// Package schema generates JSON schemas for the wire contract shared with
// script bundles: the module configuration document and the call envelope.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/hostbridge-dev/hostbridge/domain/entities"
)

// Generate creates a JSON Schema (Draft 2020-12) from a Go struct, with the
// root struct expanded inline.
func Generate(v any) ([]byte, error) {
	reflector := jsonschema.Reflector{ExpandedStruct: true}
	s := reflector.Reflect(v)

	out, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return out, nil
}

// ModuleConfig returns the schema of the module configuration document
// installed under entities.ConfigGlobalName.
func ModuleConfig() ([]byte, error) {
	return Generate(&entities.ModuleConfig{})
}

// Call returns the schema of the cross-context call envelope.
func Call() ([]byte, error) {
	return Generate(&entities.Call{})
}
