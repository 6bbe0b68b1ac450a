package contentgen

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// variantsSchema constrains the structured variant-generation response so a
// malformed LLM reply is rejected before anything is enrolled in an
// experiment.
const variantsSchema = `{
  "type": "array",
  "minItems": 1,
  "items": {
    "type": "object",
    "properties": {
      "label": {"type": "string", "minLength": 1},
      "content": {"type": "string", "minLength": 1}
    },
    "required": ["label", "content"],
    "additionalProperties": false
  }
}`

// variantPayload mirrors one element of the variants response.
type variantPayload struct {
	Label   string `json:"label"`
	Content string `json:"content"`
}

// parseVariantsJSON validates and decodes a variant-generation response.
func parseVariantsJSON(raw string) ([]variantPayload, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(variantsSchema),
		gojsonschema.NewStringLoader(raw),
	)
	if err != nil {
		return nil, fmt.Errorf("validating variants response: %w", err)
	}
	if !result.Valid() {
		var details string
		for _, desc := range result.Errors() {
			details += "; " + desc.String()
		}
		return nil, fmt.Errorf("variants response failed schema validation%s", details)
	}

	var payload []variantPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("decoding variants response: %w", err)
	}
	return payload, nil
}
