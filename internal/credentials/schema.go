// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package credentials

import (
	"bytes"
	_ "embed"
	"fmt"
	"sync"

	jschema "github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema/credentials.schema.json
var schemaJSON []byte

const schemaResource = "credentials.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jschema.Schema
	errSchema      error
)

// Schema returns the JSON Schema every stored document must satisfy.
func Schema() []byte {
	return bytes.Clone(schemaJSON)
}

func getCompiledSchema() (*jschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			errSchema = fmt.Errorf("failed to parse schema JSON: %w", err)
			return
		}
		c := jschema.NewCompiler()
		if err := c.AddResource(schemaResource, doc); err != nil {
			errSchema = fmt.Errorf("failed to add schema resource: %w", err)
			return
		}
		compiledSchema, errSchema = c.Compile(schemaResource)
	})
	return compiledSchema, errSchema
}

// ValidateDocument checks raw document content against the schema.
func ValidateDocument(data []byte) error {
	sch, err := getCompiledSchema()
	if err != nil {
		return invalidDocument("schema: %v", err)
	}
	inst, err := jschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return invalidDocument("not JSON: %v", err)
	}
	if err := sch.Validate(inst); err != nil {
		return invalidDocument("schema validation failed: %v", err)
	}
	return nil
}
