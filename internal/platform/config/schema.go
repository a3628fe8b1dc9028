package config

import (
	"os"
	"strings"
)

// Schema maps logical collection names to the physical names configured for a
// deployment. Callers resolve through it so collection renames stay an env
// change, never a code change.
type Schema map[string]string

// SchemaFromEnv builds a Schema from SCHEMA_* variables.
// SCHEMA_SUPPORTERS=supporters2 maps the logical name "supporters" to the
// physical collection "supporters2". Keys are lowercased logical names.
func SchemaFromEnv() Schema {
	s := Schema{}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(k, "SCHEMA_") {
			continue
		}
		name := strings.ToLower(strings.TrimPrefix(k, "SCHEMA_"))
		v = strings.TrimSpace(v)
		if name == "" || v == "" {
			continue
		}
		s[name] = v
	}
	return s
}

// Collection resolves a logical name to its physical collection name.
// Unmapped names pass through unchanged
func (s Schema) Collection(logical string) string {
	if v, ok := s[strings.ToLower(logical)]; ok {
		return v
	}
	return logical
}
