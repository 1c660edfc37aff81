package spec

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// testSpecWire mirrors TestSpec for schema reflection: the typed Action sum
// cannot be reflected, so the timeline is described by its flattened wire
// form instead.
type testSpecWire struct {
	FlintVersion string              `json:"flintVersion,omitempty"`
	Name         string              `json:"name" jsonschema:"required"`
	Description  string              `json:"description,omitempty"`
	Tags         []string            `json:"tags,omitempty"`
	Dependencies []string            `json:"dependencies,omitempty"`
	Setup        *SetupSpec          `json:"setup,omitempty"`
	Timeline     []timelineEntryWire `json:"timeline" jsonschema:"required"`
	MinecraftIDs []string            `json:"minecraftIds,omitempty"`
	Breakpoints  []int               `json:"breakpoints,omitempty"`
}

// GenerateJSONSchema produces a JSON Schema Draft 2020-12 document from
// the Go test spec structs using invopop/jsonschema.
func GenerateJSONSchema() ([]byte, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = false

	s := r.Reflect(&testSpecWire{})
	s.ID = "https://github.com/flintmc/flint/schemas/testspec-v1.json"
	s.Title = "Flint Test Specification v1"
	s.Description = "Schema for flint acceptance-test JSON documents (Draft 2020-12)"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return data, nil
}

// JSONSchema describes the two accepted tick bindings: a single tick number
// or an array of tick numbers.
func (TickSpec) JSONSchema() *jsonschema.Schema {
	tick := &jsonschema.Schema{Type: "integer", Minimum: json.Number("0")}
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			tick,
			{Type: "array", Items: tick, MinItems: ptrUint64(1)},
		},
	}
}

// JSONSchema describes the two accepted block encodings: flat extra keys or
// a nested "properties" object. Both require "id"; extra keys are the block
// state properties, so additional properties stay open.
func (Block) JSONSchema() *jsonschema.Schema {
	props := jsonschema.NewProperties()
	props.Set("id", &jsonschema.Schema{Type: "string", MinLength: ptrUint64(1)})
	props.Set("properties", &jsonschema.Schema{
		Type:                 "object",
		AdditionalProperties: &jsonschema.Schema{},
	})
	return &jsonschema.Schema{
		Type:                 "object",
		Properties:           props,
		Required:             []string{"id"},
		AdditionalProperties: &jsonschema.Schema{},
	}
}

func ptrUint64(n uint64) *uint64 { return &n }
