package quiz

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/edulane/lms/core/course"
)

var (
	// errors
	ErrNotFound       = errors.New("quiz not found")
	ErrNoQuestions    = errors.New("Quiz has no questions")
	ErrNoAttemptsLeft = errors.New("no attempts left")
)

type (
	Repository interface {
		// GetQuiz returns a quiz and its questions ordered by ID, or ErrNotFound.
		GetQuiz(ctx context.Context, id int) (course.Quiz, []course.Question, error)
		// SaveResult stores an attempt, unless the student already made maxAttempts attempts at
		// the quiz (ErrNoAttemptsLeft). Concurrent attempts of the same quiz are serialized.
		SaveResult(ctx context.Context, res Result, maxAttempts int) (Result, error)
		// QueryResults returns the attempts of a student, newest first. quizID 0 means all quizzes.
		QueryResults(ctx context.Context, studentID string, quizID int) ([]Result, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
		passMark float64
	}
)

func NewService(repo Repository, validate *validator.Validate, passMark float64) *Service {
	return &Service{repo: repo, validate: validate, passMark: passMark}
}

// Submit grades a student's answers and records the attempt.
func (svc *Service) Submit(ctx context.Context, studentID string, sub Submission) (Result, error) {
	if err := svc.validate.Struct(sub); err != nil {
		return Result{}, err
	}

	qz, questions, err := svc.repo.GetQuiz(ctx, sub.QuizID.Int())
	if err != nil {
		// an unknown quiz has no questions either
		if errors.Cause(err) == ErrNotFound {
			return Result{}, ErrNoQuestions
		}
		return Result{}, err
	}
	if len(questions) == 0 {
		return Result{}, ErrNoQuestions
	}

	res := Score(questions, sub, svc.passMark)
	res.StudentID = studentID
	res.QuizID = qz.ID
	res.CreatedAt = time.Now().UTC()

	res, err = svc.repo.SaveResult(ctx, res, qz.MaxAttempts())
	if err != nil {
		if errors.Cause(err) == ErrNoAttemptsLeft {
			return Result{}, ErrNoAttemptsLeft
		}
		return Result{}, errors.Wrap(err, "saving result")
	}
	return res, nil
}

// Results returns the attempts of a student at a quiz, newest first.
func (svc *Service) Results(ctx context.Context, studentID string, quizID int) ([]Result, error) {
	return svc.repo.QueryResults(ctx, studentID, quizID)
}
