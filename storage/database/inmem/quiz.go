package inmemdb

import (
	"context"
	"sort"

	"github.com/edulane/lms/core/course"
	"github.com/edulane/lms/core/quiz"
)

type quizRepository struct {
	db *DB
}

var _ quiz.Repository = (*quizRepository)(nil) // interface compliance check

func NewQuizRepository(db *DB) *quizRepository {
	return &quizRepository{db: db}
}

func (repo *quizRepository) GetQuiz(_ context.Context, id int) (course.Quiz, []course.Question, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	qz, ok := repo.db.quizzes[id]
	if !ok {
		return course.Quiz{}, nil, quiz.ErrNotFound
	}
	return *qz, repo.db.quizQuestions(id), nil
}

func (repo *quizRepository) SaveResult(_ context.Context, res quiz.Result, maxAttempts int) (quiz.Result, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.quizzes[res.QuizID]; !ok {
		return quiz.Result{}, quiz.ErrNotFound
	}
	var attempts int
	for _, r := range repo.db.results {
		if r.StudentID == res.StudentID && r.QuizID == res.QuizID {
			attempts++
		}
	}
	if maxAttempts > 0 && attempts >= maxAttempts {
		return quiz.Result{}, quiz.ErrNoAttemptsLeft
	}

	res.ID = repo.db.nextID("quiz_results")
	r := res
	repo.db.results[r.ID] = &r
	return res, nil
}

func (repo *quizRepository) QueryResults(_ context.Context, studentID string, quizID int) ([]quiz.Result, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	results := make([]quiz.Result, 0)
	for _, r := range repo.db.results {
		if r.StudentID == studentID && (quizID <= 0 || r.QuizID == quizID) {
			results = append(results, *r)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		if !results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].CreatedAt.After(results[j].CreatedAt)
		}
		return results[i].ID > results[j].ID
	})
	return results, nil
}
