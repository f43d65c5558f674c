package quizgen

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"quizlet/internal/domain"

	"github.com/xeipuuv/gojsonschema"
)

// quizSchema is the contract every completion must satisfy before it is
// turned into a domain.Quiz.
const quizSchema = `{
	"type": "object",
	"required": ["questions"],
	"properties": {
		"questions": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["id", "question", "options", "correct_answer"],
				"properties": {
					"id": {"type": "integer"},
					"question": {"type": "string", "minLength": 1},
					"options": {"type": "array", "minItems": 2, "items": {"type": "string"}},
					"correct_answer": {"type": "string"}
				}
			}
		}
	}
}`

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(quizSchema))
	if err != nil {
		panic(fmt.Sprintf("quizgen: invalid quiz schema: %v", err))
	}
	return schema
}

type quizPayload struct {
	Questions []questionPayload `json:"questions"`
}

type questionPayload struct {
	// json.Number so that ids written as 1.0 still decode; the schema guarantees integral values.
	ID            json.Number `json:"id"`
	Question      string      `json:"question"`
	Options       []string    `json:"options"`
	CorrectAnswer string      `json:"correct_answer"`
}

// ParseQuestions turns a raw completion into validated questions. Every failure
// is a SCHEMA_VALIDATION_ERROR; nothing here panics on bad input.
func ParseQuestions(raw string) ([]domain.Question, error) {
	doc, err := extractJSONObject(raw)
	if err != nil {
		return nil, domain.NewSchemaValidationError(err)
	}

	if !json.Valid([]byte(doc)) {
		return nil, domain.NewSchemaValidationError(errors.New("completion is not valid JSON"))
	}

	result, err := compiledSchema.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return nil, domain.NewSchemaValidationError(fmt.Errorf("schema validation failed: %w", err))
	}
	if !result.Valid() {
		violations := make([]string, 0, len(result.Errors()))
		for _, re := range result.Errors() {
			violations = append(violations, re.String())
		}
		return nil, domain.NewSchemaValidationError(nil, violations...)
	}

	var payload quizPayload
	if err := json.Unmarshal([]byte(doc), &payload); err != nil {
		return nil, domain.NewSchemaValidationError(fmt.Errorf("failed to decode questions: %w", err))
	}

	questions := make([]domain.Question, 0, len(payload.Questions))
	seen := make(map[int]bool, len(payload.Questions))
	var violations []string

	for i, p := range payload.Questions {
		id, ok := questionID(p.ID)
		if !ok {
			violations = append(violations, fmt.Sprintf("questions.%d.id: %s is out of range", i, p.ID))
		}
		q := domain.Question{
			ID:            id,
			Prompt:        strings.TrimSpace(p.Question),
			Options:       p.Options,
			CorrectAnswer: p.CorrectAnswer,
		}

		if q.Prompt == "" {
			violations = append(violations, fmt.Sprintf("questions.%d.question: must not be blank", i))
		}
		if ok && seen[q.ID] {
			violations = append(violations, fmt.Sprintf("questions.%d.id: duplicate id %d", i, q.ID))
		}
		seen[q.ID] = true
		if !q.HasOption(q.CorrectAnswer) {
			violations = append(violations, fmt.Sprintf("questions.%d.correct_answer: %q is not one of the options", i, q.CorrectAnswer))
		}

		questions = append(questions, q)
	}

	if len(violations) > 0 {
		return nil, domain.NewSchemaValidationError(nil, violations...)
	}
	return questions, nil
}

// questionID converts an integral JSON number to int, rejecting values the
// platform int cannot hold.
func questionID(n json.Number) (int, bool) {
	if id, err := strconv.ParseInt(n.String(), 10, strconv.IntSize); err == nil {
		return int(id), true
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || f < math.MinInt || f >= -math.MinInt {
		return 0, false
	}
	return int(f), true
}

// extractJSONObject strips reasoning blocks and markdown fences, then cuts the
// text from the first '{' to the last '}'.
func extractJSONObject(raw string) (string, error) {
	cleaned := strings.TrimSpace(raw)

	for {
		thinkStart := strings.Index(cleaned, "<think>")
		if thinkStart == -1 {
			break
		}
		thinkEnd := strings.Index(cleaned, "</think>")
		if thinkEnd == -1 || thinkEnd < thinkStart {
			break
		}
		cleaned = strings.TrimSpace(cleaned[:thinkStart] + cleaned[thinkEnd+len("</think>"):])
	}

	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	jsonStart := strings.Index(cleaned, "{")
	jsonEnd := strings.LastIndex(cleaned, "}")
	if jsonStart == -1 || jsonEnd == -1 || jsonEnd < jsonStart {
		return "", errors.New("no JSON object found in completion")
	}
	return cleaned[jsonStart : jsonEnd+1], nil
}
