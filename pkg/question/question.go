package question

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator"
)

const (
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
)

// Parsed is a question together with the RelEx relation output of its
// parse. IDs follow the VQA dataset; ID is the public translation id and is
// assigned during translation when empty.
type Parsed struct {
	ID         string `json:"id,omitempty"`
	QuestionID int64  `json:"question_id" validate:"min=0"`
	ImageID    int64  `json:"image_id" validate:"min=0"`
	Question   string `json:"question" validate:"required"`
	Relex      string `json:"relex" validate:"required"`
}

type dataset struct {
	Questions []Parsed `json:"questions"`
}

var validate = validator.New()

// Validate checks the required fields of p.
func Validate(p *Parsed) error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid question %d: %w", p.QuestionID, err)
	}
	return nil
}

// Load reads questions in the given format.
func Load(r io.Reader, format string) ([]Parsed, error) {
	switch strings.ToLower(format) {
	case FormatJSON:
		return LoadJSON(r)
	case FormatJSONL, "":
		return LoadJSONL(r)
	default:
		return nil, fmt.Errorf("unknown question format %q", format)
	}
}

// LoadJSON reads a VQA style document {"questions": [...]}.
func LoadJSON(r io.Reader) ([]Parsed, error) {
	var d dataset
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("failed to decode questions: %w", err)
	}
	for i := range d.Questions {
		if err := Validate(&d.Questions[i]); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}
	return d.Questions, nil
}

// LoadJSONL reads one JSON record per line. Blank lines are skipped.
func LoadJSONL(r io.Reader) ([]Parsed, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var out []Parsed
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var p Parsed
		if err := json.Unmarshal([]byte(line), &p); err != nil {
			return nil, fmt.Errorf("line %d: failed to decode question: %w", lineNo, err)
		}
		if err := Validate(&p); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		out = append(out, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read questions: %w", err)
	}
	return out, nil
}
