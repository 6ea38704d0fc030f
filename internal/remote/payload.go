package remote

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/five82/scoop/internal/flavor"
)

// ItemListSchema describes the body of a successful collection read.
const ItemListSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "name"],
    "properties": {
      "id": {"type": "string", "minLength": 1},
      "name": {"type": "string", "minLength": 1},
      "ownerId": {"type": ["string", "null"]}
    }
  }
}`

var itemListSchema = mustSchema(ItemListSchema)

func mustSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("compile schema: %v", err))
	}
	return schema
}

func decodeItems(data []byte) ([]flavor.Item, error) {
	if err := validate(itemListSchema, data); err != nil {
		return nil, err
	}
	var items []flavor.Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrMalformedPayload, err)
	}
	return items, nil
}

func validate(schema *gojsonschema.Schema, data []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("%w: %s", ErrMalformedPayload, strings.Join(msgs, "; "))
	}
	return nil
}
