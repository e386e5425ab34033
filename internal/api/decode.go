package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const maxBodyBytes = 1 << 20

var (
	errMalformedBody = errors.New("malformed request body")
	errSchema        = errors.New("request body does not match schema")
)

// Integers may arrive as JSON numbers or numeric strings; select inputs in
// browser forms post strings.
const intOrNumericString = `{"oneOf": [{"type": "integer"}, {"type": "string", "pattern": "^[0-9]+$"}]}`

var (
	createQuestionSchema = mustSchema(`{
		"type": "object",
		"required": ["question", "answer", "difficulty", "category"],
		"properties": {
			"question":   {"type": "string", "minLength": 1},
			"answer":     {"type": "string", "minLength": 1},
			"difficulty": ` + intOrNumericString + `,
			"category":   ` + intOrNumericString + `
		}
	}`)

	searchSchema = mustSchema(`{
		"type": "object",
		"required": ["searchTerm"],
		"properties": {
			"searchTerm": {"type": "string"}
		}
	}`)

	quizSchema = mustSchema(`{
		"type": "object",
		"properties": {
			"previous_questions": {
				"type": ["array", "null"],
				"items": {"type": "integer"}
			},
			"quiz_category": {
				"oneOf": [
					{"type": "null"},
					{
						"type": "object",
						"properties": {
							"id":   ` + intOrNumericString + `,
							"type": {"type": "string"}
						}
					}
				]
			}
		}
	}`)

	tokenSchema = mustSchema(`{
		"type": "object",
		"required": ["password"],
		"properties": {
			"password": {"type": "string", "minLength": 1}
		}
	}`)
)

func mustSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("invalid request schema: %v", err))
	}
	return schema
}

// decodeBody reads a JSON body, validates it against schema and decodes it into dst.
// It returns errMalformedBody or errSchema wrapped with detail.
func decodeBody(w http.ResponseWriter, r *http.Request, schema *gojsonschema.Schema, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	if len(bytes.TrimSpace(body)) == 0 || !json.Valid(body) {
		return errMalformedBody
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			details = append(details, e.String())
		}
		return fmt.Errorf("%w: %s", errSchema, strings.Join(details, "; "))
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	return nil
}

// flexInt decodes a JSON number or numeric string.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexInt(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("expected integer, got %s", data)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("expected integer, got %q", s)
	}
	*f = flexInt(n)
	return nil
}
