package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Schema is a named JSON Schema definition.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// nonBlank matches any string with at least one non-whitespace character.
const nonBlank = `\S`

var questionDefinition = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"question": map[string]any{
			"type":        "string",
			"pattern":     nonBlank,
			"description": "The question shown to the learner",
		},
		"options": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string", "pattern": nonBlank},
			"minItems":    OptionCount,
			"maxItems":    OptionCount,
			"description": "Exactly 4 options labelled A-D",
		},
		"answer": map[string]any{
			"type":        "string",
			"pattern":     "^[ABCD]$",
			"description": "Letter of the correct option",
		},
	},
	"required": []any{"question", "options", "answer"},
}

// ContentSchema defines the JSON schema for generated content.
var ContentSchema = &Schema{
	Name:        "educational-content",
	Description: "An explanation of a topic plus three multiple-choice questions",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"explanation": map[string]any{
				"type":        "string",
				"pattern":     nonBlank,
				"description": "Explanation of the topic in 2-4 paragraphs",
			},
			"mcqs": map[string]any{
				"type":     "array",
				"items":    questionDefinition,
				"minItems": QuestionCount,
				"maxItems": QuestionCount,
			},
		},
		"required": []any{"explanation", "mcqs"},
	},
}

// VerdictSchema defines the JSON schema for review verdicts.
var VerdictSchema = &Schema{
	Name:        "review-verdict",
	Description: "Binary review status plus actionable feedback",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"status": map[string]any{
				"type": "string",
				"enum": []any{string(StatusPass), string(StatusFail)},
			},
			"feedback": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required": []any{"status"},
	},
}

// schemaCache caches compiled JSON schemas by name.
var schemaCache sync.Map // map[string]*jsonschema.Schema

// validate checks a decoded JSON value against the schema.
func (s *Schema) validate(v any) error {
	compiled, err := s.compiled()
	if err != nil {
		return fmt.Errorf("compile schema %q: %w", s.Name, err)
	}
	if err := compiled.Validate(v); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

// compiled returns a cached compiled schema or compiles and caches it.
func (s *Schema) compiled() (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(s.Name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	// The compiler wants a decoded JSON value, not Go ints.
	defBytes, err := json.Marshal(s.Definition)
	if err != nil {
		return nil, fmt.Errorf("marshal schema definition: %w", err)
	}
	defParsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(defBytes))
	if err != nil {
		return nil, fmt.Errorf("parse schema definition: %w", err)
	}

	c := jsonschema.NewCompiler()
	url := fmt.Sprintf("schema://%s.json", s.Name)
	if err := c.AddResource(url, defParsed); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}

	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	schemaCache.Store(s.Name, compiled)
	return compiled, nil
}
