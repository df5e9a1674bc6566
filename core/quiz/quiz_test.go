package quiz

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/edulane/lms/core"
	"github.com/edulane/lms/core/course"
)

func TestAnswer_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		data string
		want Answer
	}{
		{data: `2`, want: NewAnswer(2)},
		{data: `0`, want: NewAnswer(0)},
		{data: `-1`, want: NewAnswer(-1)},
		{data: `1.9`, want: NewAnswer(1)},
		{data: `"3"`, want: NewAnswer(3)},
		{data: `" 3 "`, want: NewAnswer(3)},
		{data: `"2nd"`, want: NewAnswer(2)},
		{data: `""`, want: Answer{}},
		{data: `"b"`, want: Answer{}},
		{data: `null`, want: Answer{}},
		{data: `true`, want: Answer{}},
		{data: `[1]`, want: Answer{}},
		{data: `{"a": 1}`, want: Answer{}},
	}
	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			var got map[string]Answer
			if err := json.Unmarshal([]byte(`{"1": `+tt.data+`}`), &got); err != nil {
				t.Fatalf("UnmarshalJSON() error = %v", err)
			}
			if got["1"] != tt.want {
				t.Errorf("UnmarshalJSON() = %+v, want %+v", got["1"], tt.want)
			}
		})
	}
}

func TestScore(t *testing.T) {
	questions := []course.Question{
		{ID: 10, Marks: 2, CorrectOption: 1},
		{ID: 11, Marks: 3, CorrectOption: 0},
		{ID: 12, Marks: 5, CorrectOption: 2},
	}
	answers := func(m map[string]Answer) Submission { return Submission{QuizID: 1, Answers: m} }

	tests := []struct {
		name       string
		questions  []course.Question
		sub        Submission
		wantScore  int
		wantTotal  int
		wantPassed bool
	}{
		{name: "no answers", questions: questions, sub: answers(nil), wantTotal: 10},
		{
			name: "all correct", questions: questions, wantScore: 10, wantTotal: 10, wantPassed: true,
			sub: answers(map[string]Answer{"10": NewAnswer(1), "11": NewAnswer(0), "12": NewAnswer(2)}),
		},
		{
			name: "pass mark reached", questions: questions, wantScore: 5, wantTotal: 10, wantPassed: true,
			sub: answers(map[string]Answer{"10": NewAnswer(1), "11": NewAnswer(0), "12": NewAnswer(1)}),
		},
		{
			name: "below pass mark", questions: questions, wantScore: 3, wantTotal: 10,
			sub: answers(map[string]Answer{"11": NewAnswer(0), "12": NewAnswer(0)}),
		},
		{
			name: "invalid answers never score", questions: questions, wantTotal: 10,
			sub: answers(map[string]Answer{"11": {}, "99": NewAnswer(0)}),
		},
		{
			name: "worthless quiz", questions: []course.Question{{ID: 1, CorrectOption: 0}},
			sub: answers(map[string]Answer{"1": NewAnswer(0)}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.questions, tt.sub, 0.5)
			if got.Score != tt.wantScore || got.TotalMarks != tt.wantTotal || got.Passed != tt.wantPassed {
				t.Errorf("Score() = %d/%d passed %v, want %d/%d passed %v",
					got.Score, got.TotalMarks, got.Passed, tt.wantScore, tt.wantTotal, tt.wantPassed)
			}
		})
	}
}

type stubRepo struct {
	quizzes  map[int][]course.Question
	retakes  int
	results  []Result
	saveErr  error
	attempts map[string]int
}

func (r *stubRepo) GetQuiz(_ context.Context, id int) (course.Quiz, []course.Question, error) {
	questions, ok := r.quizzes[id]
	if !ok {
		return course.Quiz{}, nil, ErrNotFound
	}
	return course.Quiz{ID: id, Retakes: r.retakes}, questions, nil
}

func (r *stubRepo) SaveResult(_ context.Context, res Result, maxAttempts int) (Result, error) {
	if r.saveErr != nil {
		return Result{}, r.saveErr
	}
	if r.attempts[res.StudentID] >= maxAttempts {
		return Result{}, errors.Wrap(ErrNoAttemptsLeft, "checking attempts")
	}
	r.attempts[res.StudentID]++
	res.ID = len(r.results) + 1
	r.results = append(r.results, res)
	return res, nil
}

func (r *stubRepo) QueryResults(_ context.Context, studentID string, quizID int) ([]Result, error) {
	return r.results, nil
}

func TestService_Submit(t *testing.T) {
	validate, _ := core.NewValidator()
	repo := &stubRepo{
		quizzes: map[int][]course.Question{
			1: {{ID: 1, Marks: 4, CorrectOption: 1}},
			2: {},
		},
		retakes:  1,
		attempts: make(map[string]int),
	}
	svc := NewService(repo, validate, 0.4)
	sub := func(quizID int) Submission {
		return Submission{QuizID: core.FlexInt(quizID), Answers: map[string]Answer{"1": NewAnswer(1)}}
	}

	tests := []struct {
		name        string
		sub         Submission
		saveErr     error
		wantErr     error
		wantInvalid bool
	}{
		{name: "no quiz ID", sub: Submission{}, wantInvalid: true},
		{name: "not found", sub: sub(9), wantErr: ErrNoQuestions},
		{name: "no questions", sub: sub(2), wantErr: ErrNoQuestions},
		{name: "first attempt", sub: sub(1)},
		{name: "retake", sub: sub(1)},
		{name: "no attempts left", sub: sub(1), wantErr: ErrNoAttemptsLeft},
		{name: "storage failure", sub: sub(1), saveErr: errors.New("lol")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo.saveErr = tt.saveErr
			res, err := svc.Submit(context.Background(), "stu", tt.sub)
			switch {
			case tt.wantInvalid:
				var vErrs validator.ValidationErrors
				if !errors.As(err, &vErrs) {
					t.Errorf("Submit() error = %v, want validation errors", err)
				}
			case tt.saveErr != nil:
				if err == nil || errors.Cause(err) != tt.saveErr {
					t.Errorf("Submit() error = %v, want %v", err, tt.saveErr)
				}
			case err != tt.wantErr:
				t.Errorf("Submit() error = %v, wantErr %v", err, tt.wantErr)
			case err == nil:
				if res.StudentID != "stu" || res.QuizID != 1 || res.Score != 4 || !res.Passed || res.CreatedAt.IsZero() {
					t.Errorf("Submit() = %+v", res)
				}
			}
		})
	}
	if len(repo.results) != 2 {
		t.Errorf("stored %d results, want 2", len(repo.results))
	}
}
