package remote

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

func nullable(types ...string) map[string]any {
	return map[string]any{"type": append(types, "null")}
}

// quoteStatusSchema describes GET /quote-status/{id}. Only accepted is
// strict; the optional fields are coerced by sanitizeQuoteStatus.
var quoteStatusSchema = mustCompile("quote-status.json", map[string]any{
	"type": "object",
	"properties": map[string]any{
		"accepted":    map[string]any{"type": "boolean"},
		"viewedAt":    nullable("string", "number"),
		"acceptedAt":  nullable("string", "number"),
		"clientName":  nullable("string"),
		"clientEmail": nullable("string"),
		"totalAmount": nullable("number", "string"),
	},
	"required": []string{"accepted"},
})

// uploadResponseSchema describes POST /upload-quote. quoteId is optional.
var uploadResponseSchema = mustCompile("upload-quote.json", map[string]any{
	"type": "object",
	"properties": map[string]any{
		"quoteId": nullable("string", "number"),
	},
})

func mustCompile(name string, schemaMap map[string]any) *jsonschema.Schema {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		panic(fmt.Sprintf("marshal schema %s: %v", name, err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(b)); err != nil {
		panic(fmt.Sprintf("add schema %s: %v", name, err))
	}
	return compiler.MustCompile(name)
}

// decodeValidated checks data against schema, lets normalize coerce the
// optional fields, then unmarshals into out. It returns the fields normalize
// dropped.
func decodeValidated(schema *jsonschema.Schema, data []byte, out any, normalize func(map[string]any) []string) ([]string, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return nil, fmt.Errorf("json does not match schema: %w", err)
	}
	var dropped []string
	if m, ok := v.(map[string]any); ok && normalize != nil {
		dropped = normalize(m)
		b, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("re-encode: %w", err)
		}
		data = b
	}
	if err := json.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return dropped, nil
}
