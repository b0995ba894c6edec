package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const snapshotSchemaJSON = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"additionalProperties": {
		"type": "array",
		"items": {
			"type": "object",
			"required": ["id"],
			"properties": {
				"id": {"type": "string", "minLength": 1}
			}
		}
	}
}`

var snapshotSchema = jsonschema.MustCompileString("snapshot.schema.json", snapshotSchemaJSON)

// decodeSnapshot validates a serialized table set and decodes it.
func decodeSnapshot(data []byte, source string) (map[string][]Record, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &SnapshotError{Source: source, Problems: []string{err.Error()}}
	}

	if err := snapshotSchema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			return nil, fmt.Errorf("Error trying to validate snapshot %s: %w", source, err)
		}
		snapErr := &SnapshotError{Source: source}
		collectSchemaProblems(snapErr, ve)
		return nil, snapErr
	}

	tables := make(map[string][]Record)
	if err := json.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("Error trying to decode snapshot %s: %w", source, err)
	}
	for name, rows := range tables {
		if rows == nil {
			tables[name] = []Record{}
		}
	}
	return tables, nil
}

func collectSchemaProblems(snapErr *SnapshotError, ve *jsonschema.ValidationError) {
	if len(ve.Causes) == 0 {
		snapErr.Problems = append(snapErr.Problems, fmt.Sprintf("%s: %s", pointerToPath(ve.InstanceLocation), ve.Message))
		return
	}
	for _, cause := range ve.Causes {
		collectSchemaProblems(snapErr, cause)
	}
}

func pointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return "(root)"
	}
	return strings.ReplaceAll(ptr, "/", ".")
}
