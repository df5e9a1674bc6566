package quiz

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/edulane/lms/core"
)

// Answer is the option index chosen by a student.
// It is decoded leniently: numbers are truncated, strings are read up to their first non-digit
// ("2", " 2 ", "2nd" are all 2). Anything else is kept as an invalid answer, which never scores.
type Answer struct {
	Value int
	Valid bool
}

func NewAnswer(v int) Answer { return Answer{Value: v, Valid: true} }

func (a *Answer) UnmarshalJSON(data []byte) error {
	*a = Answer{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		a.Value, a.Valid = parseLeadingInt(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil || math.IsInf(f, 0) {
			return nil
		}
		a.Value, a.Valid = int(math.Trunc(f)), true
	}
	return nil
}

func (a Answer) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(a.Value)), nil
}

// parseLeadingInt reads the optionally signed integer at the start of s, ignoring leading whitespace.
func parseLeadingInt(s string) (int, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Submission is a student's set of answers to a quiz, keyed by question ID.
type Submission struct {
	QuizID  core.FlexInt      `json:"quizId" validate:"required,min=1"`
	Answers map[string]Answer `json:"answers"`
}

// answer returns the answer given to a question.
func (s Submission) answer(questionID int) (Answer, bool) {
	a, ok := s.Answers[strconv.Itoa(questionID)]
	return a, ok
}

// Result is the outcome of a quiz attempt.
type Result struct {
	ID         int       `json:"id"`
	StudentID  string    `json:"student_id"`
	QuizID     int       `json:"quiz_id"`
	Score      int       `json:"score"`
	TotalMarks int       `json:"total_marks"`
	Passed     bool      `json:"passed"`
	CreatedAt  time.Time `json:"created_at"` // UTC
}
