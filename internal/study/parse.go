package study

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrMalformedGeneration = errors.New("malformed generation output")

const (
	TypeMCQ       = "mcq"
	TypeTrueFalse = "truefalse"
)

// PlaceholderOptions replace the options of a multiple choice question the
// model left with fewer than two choices.
var PlaceholderOptions = []string{"Option A", "Option B", "Option C", "Option D"}

type Question struct {
	Type     string   `json:"type"`
	Question string   `json:"question"`
	Options  []string `json:"options,omitempty"`
	Answer   string   `json:"answer"`
}

type Quiz struct {
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type QASet struct {
	Title string   `json:"title"`
	QA    []QAPair `json:"qa"`
}

// ParseQuiz decodes a quiz reply and keeps only well-formed mcq and
// truefalse questions.
func ParseQuiz(raw string) (*Quiz, error) {
	var decoded struct {
		Title     string      `json:"title"`
		Questions *[]Question `json:"questions"`
	}
	if err := decodeJSON(raw, &decoded); err != nil {
		return nil, err
	}
	if decoded.Questions == nil {
		return nil, fmt.Errorf("%w: missing questions", ErrMalformedGeneration)
	}

	quiz := &Quiz{Title: strings.TrimSpace(decoded.Title), Questions: make([]Question, 0, len(*decoded.Questions))}
	for _, q := range *decoded.Questions {
		q.Type = strings.ToLower(strings.TrimSpace(q.Type))
		q.Question = strings.TrimSpace(q.Question)
		if q.Question == "" {
			continue
		}
		switch q.Type {
		case TypeMCQ:
			if len(q.Options) < 2 {
				q.Options = append([]string(nil), PlaceholderOptions...)
			}
		case TypeTrueFalse:
			q.Options = nil
		default:
			continue
		}
		quiz.Questions = append(quiz.Questions, q)
	}
	if len(quiz.Questions) == 0 {
		return nil, fmt.Errorf("%w: no usable questions", ErrMalformedGeneration)
	}
	return quiz, nil
}

func ParseQA(raw string) (*QASet, error) {
	var decoded struct {
		Title string    `json:"title"`
		QA    *[]QAPair `json:"qa"`
	}
	if err := decodeJSON(raw, &decoded); err != nil {
		return nil, err
	}
	if decoded.QA == nil || len(*decoded.QA) == 0 {
		return nil, fmt.Errorf("%w: missing qa pairs", ErrMalformedGeneration)
	}
	set := &QASet{Title: strings.TrimSpace(decoded.Title), QA: make([]QAPair, 0, len(*decoded.QA))}
	for i, pair := range *decoded.QA {
		pair.Question = strings.TrimSpace(pair.Question)
		pair.Answer = strings.TrimSpace(pair.Answer)
		if pair.Question == "" || pair.Answer == "" {
			return nil, fmt.Errorf("%w: qa pair %d is incomplete", ErrMalformedGeneration, i)
		}
		set.QA = append(set.QA, pair)
	}
	return set, nil
}

func CleanSummary(raw string) (string, error) {
	summary := stripFences(raw)
	if summary == "" {
		return "", fmt.Errorf("%w: empty summary", ErrMalformedGeneration)
	}
	return summary, nil
}

func stripFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	for _, prefix := range []string{"```json", "```JSON", "```"} {
		if strings.HasPrefix(cleaned, prefix) {
			cleaned = strings.TrimPrefix(cleaned, prefix)
			break
		}
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}

// decodeJSON accepts a fenced reply or one with prose around the object.
func decodeJSON(raw string, out any) error {
	cleaned := stripFences(raw)
	if err := strictUnmarshal(cleaned, out); err == nil {
		return nil
	}
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start >= 0 && end > start {
		if err := strictUnmarshal(cleaned[start:end+1], out); err == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: invalid JSON", ErrMalformedGeneration)
}

func strictUnmarshal(data string, out any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	if err := dec.Decode(out); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data after JSON object")
	}
	return nil
}
