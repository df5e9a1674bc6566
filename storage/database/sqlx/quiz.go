package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/edulane/lms/core/course"
	"github.com/edulane/lms/core/quiz"
	"github.com/edulane/lms/storage/database"
)

type resultRow struct {
	ID         int       `db:"id"`
	StudentID  string    `db:"student_id"`
	QuizID     int       `db:"quiz_id"`
	Score      int       `db:"score"`
	TotalMarks int       `db:"total_marks"`
	Passed     bool      `db:"passed"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r resultRow) toResult() quiz.Result {
	return quiz.Result{
		ID:         r.ID,
		StudentID:  r.StudentID,
		QuizID:     r.QuizID,
		Score:      r.Score,
		TotalMarks: r.TotalMarks,
		Passed:     r.Passed,
		CreatedAt:  r.CreatedAt.UTC(),
	}
}

type quizRepository struct {
	db *sqlx.DB
}

var _ quiz.Repository = (*quizRepository)(nil) // interface compliance check

func NewQuizRepository(db *sqlx.DB) *quizRepository {
	return &quizRepository{db: db}
}

func (repo quizRepository) GetQuiz(ctx context.Context, id int) (course.Quiz, []course.Question, error) {
	var qr quizRow
	err := repo.db.GetContext(ctx, &qr, "SELECT id, section_id, time_limit, retakes FROM quizzes WHERE id = $1", id)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return course.Quiz{}, nil, quiz.ErrNotFound
		}
		return course.Quiz{}, nil, errors.Wrap(err, "getting quiz")
	}

	var rows []questionRow
	err = repo.db.SelectContext(ctx, &rows,
		"SELECT id, quiz_id, text, marks, options, correct_option FROM questions WHERE quiz_id = $1 ORDER BY id ASC", id)
	if err != nil {
		return course.Quiz{}, nil, errors.Wrap(err, "querying questions")
	}
	questions := make([]course.Question, 0, len(rows))
	for _, row := range rows {
		q, err := row.toQuestion()
		if err != nil {
			return course.Quiz{}, nil, err
		}
		questions = append(questions, q)
	}
	return qr.toQuiz(), questions, nil
}

// SaveResult locks the quiz row so that the attempts of a student are counted and
// inserted atomically.
func (repo quizRepository) SaveResult(ctx context.Context, res quiz.Result, maxAttempts int) (quiz.Result, error) {
	err := database.WithTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		var quizID int
		if err := tx.GetContext(ctx, &quizID, "SELECT id FROM quizzes WHERE id = $1 FOR UPDATE", res.QuizID); err != nil {
			if errors.Cause(err) == sql.ErrNoRows {
				return quiz.ErrNotFound
			}
			return errors.Wrap(err, "locking quiz")
		}

		var attempts int
		err := tx.GetContext(ctx, &attempts,
			"SELECT COUNT(*) FROM quiz_results WHERE student_id = $1 AND quiz_id = $2", res.StudentID, res.QuizID)
		if err != nil {
			return errors.Wrap(err, "counting attempts")
		}
		if maxAttempts > 0 && attempts >= maxAttempts {
			return quiz.ErrNoAttemptsLeft
		}

		err = tx.QueryRowxContext(ctx,
			`INSERT INTO quiz_results (student_id, quiz_id, score, total_marks, passed, created_at)
			VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			res.StudentID, res.QuizID, res.Score, res.TotalMarks, res.Passed, res.CreatedAt.UTC(),
		).Scan(&res.ID)
		return errors.Wrap(err, "inserting result")
	})
	if err != nil {
		return quiz.Result{}, err
	}
	return res, nil
}

func (repo quizRepository) QueryResults(ctx context.Context, studentID string, quizID int) ([]quiz.Result, error) {
	var w where
	w.add("student_id::text = ?", studentID)
	if quizID > 0 {
		w.add("quiz_id = ?", quizID)
	}

	var rows []resultRow
	q := "SELECT id, student_id, quiz_id, score, total_marks, passed, created_at FROM quiz_results" +
		w.String() + " ORDER BY created_at DESC, id DESC"
	if err := repo.db.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying results")
	}
	results := make([]quiz.Result, 0, len(rows))
	for _, row := range rows {
		results = append(results, row.toResult())
	}
	return results, nil
}
