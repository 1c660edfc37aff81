package spec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// DefaultNamespace is the namespace prefix stripped symmetrically when
// comparing block identifiers, so "minecraft:lever" and "lever" are the
// same block.
const DefaultNamespace = "minecraft:"

// Block is a block identifier plus its state properties. Property values
// are always strings on this side of the wire; the decoder stringifies
// booleans and numbers and turns null into the empty string.
type Block struct {
	ID         string
	Properties map[string]string
}

// NewBlock creates a block with no properties.
func NewBlock(id string) Block {
	return Block{ID: id, Properties: map[string]string{}}
}

// BlockWithProperties creates a block with the given state properties.
func BlockWithProperties(id string, properties map[string]string) Block {
	if properties == nil {
		properties = map[string]string{}
	}
	return Block{ID: id, Properties: properties}
}

// AirBlock returns the canonical air block.
func AirBlock() Block {
	return NewBlock("minecraft:air")
}

// IsAir reports whether the block is air (prefixed or not).
func (b Block) IsAir() bool {
	return b.ID == "minecraft:air" || b.ID == "air"
}

// Command renders the block as a command-style string like
// minecraft:lever[face=floor,powered=false]. Properties are sorted by key.
func (b Block) Command() string {
	if len(b.Properties) == 0 {
		return b.ID
	}
	keys := make([]string, 0, len(b.Properties))
	for k := range b.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	props := make([]string, len(keys))
	for i, k := range keys {
		props[i] = k + "=" + b.Properties[k]
	}
	return fmt.Sprintf("%s[%s]", b.ID, strings.Join(props, ","))
}

// UnmarshalJSON accepts both encodings of a block: an object with an "id"
// field and flat extra keys, or an object with "id" and a nested
// "properties" object. Both normalize to one string-keyed property map.
func (b *Block) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("block must be an object: %w", err)
	}

	idRaw, ok := raw["id"]
	if !ok {
		return fmt.Errorf("block missing required field 'id'")
	}
	var id string
	if err := json.Unmarshal(idRaw, &id); err != nil {
		return fmt.Errorf("block 'id' must be a string: %w", err)
	}

	properties := map[string]string{}
	for key, value := range raw {
		switch key {
		case "id":
			// already handled
		case "properties":
			var nested map[string]json.RawMessage
			if err := json.Unmarshal(value, &nested); err != nil {
				return fmt.Errorf("block 'properties' must be an object: %w", err)
			}
			for k, v := range nested {
				properties[k] = rawValueToString(v)
			}
		default:
			properties[key] = rawValueToString(value)
		}
	}

	b.ID = id
	b.Properties = properties
	return nil
}

// MarshalJSON emits the normalized nested form: {"id": ..., "properties": {...}}.
func (b Block) MarshalJSON() ([]byte, error) {
	type wire struct {
		ID         string            `json:"id"`
		Properties map[string]string `json:"properties,omitempty"`
	}
	return json.Marshal(wire{ID: b.ID, Properties: b.Properties})
}

// rawValueToString converts a raw JSON property value to its string form:
// strings keep their content, booleans and numbers their literal spelling,
// null becomes empty, and anything else keeps its compact JSON text.
func rawValueToString(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return ""
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	return string(trimmed)
}

// stripNamespace removes the default namespace prefix, if present.
func stripNamespace(id string) string {
	return strings.TrimPrefix(id, DefaultNamespace)
}

// Matches reports whether actual satisfies the expectation b: identifiers
// are compared with the default namespace stripped from both sides, and
// every property named by the expectation must be present in actual with an
// equal value. Properties only present in actual are ignored.
func (b Block) Matches(actual Block) bool {
	if stripNamespace(b.ID) != stripNamespace(actual.ID) {
		return false
	}
	for key, want := range b.Properties {
		got, ok := actual.Properties[key]
		if !ok || got != want {
			return false
		}
	}
	return true
}
