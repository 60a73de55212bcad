package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// SupportedMajor is the catalog document major version this build reads.
const SupportedMajor = "v1"

//go:embed default.yaml
var defaultCatalog []byte

const documentSchemaURL = "schema://knowgraph/catalog.json"

// documentSchema describes the on-disk catalog document. It is checked
// before decoding so that type errors are reported with a JSON pointer.
const documentSchema = `{
  "type": "object",
  "required": ["version", "capsules"],
  "properties": {
    "version": {"type": "string", "minLength": 1},
    "title": {"type": "string"},
    "capsules": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "title", "questions"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "title": {"type": "string"},
          "description": {"type": "string"},
          "media": {"type": "string"},
          "label": {"type": "string"},
          "position": {
            "type": "object",
            "properties": {"x": {"type": "number"}, "y": {"type": "number"}}
          },
          "questions": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["prompt", "options", "correct_option"],
              "properties": {
                "prompt": {"type": "string"},
                "options": {"type": "array", "items": {"type": "string"}},
                "correct_option": {"type": "string"}
              }
            }
          }
        }
      }
    },
    "edges": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["from", "to"],
        "properties": {"from": {"type": "string"}, "to": {"type": "string"}}
      }
    }
  }
}`

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		var def any
		if err := json.Unmarshal([]byte(documentSchema), &def); err != nil {
			compileErr = fmt.Errorf("parse catalog schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(documentSchemaURL, def); err != nil {
			compileErr = fmt.Errorf("add catalog schema: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile(documentSchemaURL)
	})
	return compiledSchema, compileErr
}

// Default returns the built-in AV Architecture catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// Load reads, schema-checks, decodes and validates a catalog file.
// YAML and JSON documents are both accepted.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a catalog document and runs every check on it.
func Parse(data []byte) (*Catalog, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := checkDocument(doc); err != nil {
		return nil, err
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	v, err := normalizeVersion(c.Version)
	if err != nil {
		return nil, err
	}
	c.Version = v

	if err := Validate(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// checkDocument validates the generic decoded document against the schema.
// The document is round-tripped through JSON so that YAML scalars take the
// shapes the validator expects.
func checkDocument(doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("catalog document is not representable as JSON: %w", err)
	}
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("catalog document is not representable as JSON: %w", err)
	}

	sch, err := schema()
	if err != nil {
		return err
	}
	if err := sch.Validate(parsed); err != nil {
		return fmt.Errorf("catalog schema validation failed: %w", err)
	}
	return nil
}

// normalizeVersion accepts "1.2.0" or "v1.2.0" and rejects unsupported majors.
func normalizeVersion(v string) (string, error) {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return "", fmt.Errorf("catalog version %q is not a valid semantic version", v)
	}
	if major := semver.Major(v); major != SupportedMajor {
		return "", fmt.Errorf("catalog version %s is not supported (want %s.x)", v, SupportedMajor)
	}
	return semver.Canonical(v), nil
}
