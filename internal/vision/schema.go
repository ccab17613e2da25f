package vision

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/er-ebrahimi/architecture-ai/internal/entity"
)

var (
	// ErrNoJSONObject means the model response contained no well-formed
	// JSON object at all.
	ErrNoJSONObject = errors.New("no JSON object found in model response")
	// ErrBadSchema means the response parsed as JSON but does not match
	// the ImageFeatures shape.
	ErrBadSchema = errors.New("model response does not match the expected schema")
)

// featuresShape is the contract inlined into the prompt so the model has an
// explicit schema to satisfy: field names, types and one example value each.
const featuresShape = `{
  "main_objects": [
    {
      "object_type": "sofa",
      "attributes": ["white", "fabric", "minimalist"]
    }
  ],
  "overall_style": ["modern", "scandinavian"]
}`

// analysisPrompt instructs the model to return only a JSON object matching
// the ImageFeatures shape.
func analysisPrompt() string {
	var b strings.Builder
	b.WriteString("Analyze the attached image of an interior design scene or product.\n\n")
	b.WriteString("Your task:\n")
	b.WriteString("1. Identify the main objects/furniture in the image\n")
	b.WriteString("2. Describe their key visual attributes (color, material, style, etc.)\n")
	b.WriteString("3. Determine the overall design style of the scene\n\n")
	b.WriteString("Respond ONLY with a valid JSON object with exactly two fields:\n")
	b.WriteString("- \"main_objects\": a list of objects, each with a string \"object_type\" and a list of string \"attributes\"\n")
	b.WriteString("- \"overall_style\": a list of style strings\n\n")
	b.WriteString("Example of a valid response:\n")
	b.WriteString(featuresShape)
	b.WriteString("\n\nGuidelines:\n")
	b.WriteString("- For object_type use simple names like 'sofa', 'chair', 'table', 'lamp'\n")
	b.WriteString("- For attributes include visual descriptors: colors, materials, styles, patterns\n")
	b.WriteString("- For overall_style use recognized design terms like 'modern', 'scandinavian', 'industrial'\n")
	b.WriteString("- Only include objects that are clearly visible and identifiable\n")
	b.WriteString("- Return only valid JSON, no additional text or explanation\n")
	return b.String()
}

// parseFeatures extracts the first well-formed JSON object from the model's
// response text and validates it against the ImageFeatures shape. Models
// often wrap the payload in markdown fences or explanatory prose; the whole
// body is never assumed to be JSON.
func parseFeatures(responseText string) (entity.ImageFeatures, error) {
	var features entity.ImageFeatures

	payload, ok := firstJSONObject(responseText)
	if !ok {
		return features, ErrNoJSONObject
	}
	if err := json.Unmarshal([]byte(payload), &features); err != nil {
		return features, fmt.Errorf("%w: %v", ErrNoJSONObject, err)
	}
	if err := features.Validate(); err != nil {
		return features, fmt.Errorf("%w: %v", ErrBadSchema, err)
	}
	return features, nil
}

// firstJSONObject scans text for the first balanced top-level JSON object,
// skipping braces inside string literals.
func firstJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
