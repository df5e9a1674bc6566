package inmemdb

import (
	"context"

	"github.com/edulane/lms/core/dashboard"
)

type dashboardRepository struct {
	db *DB
}

var _ dashboard.Repository = (*dashboardRepository)(nil) // interface compliance check

func NewDashboardRepository(db *DB) *dashboardRepository {
	return &dashboardRepository{db: db}
}

func (repo *dashboardRepository) CountUsersByRole(_ context.Context) (map[string]int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	counts := make(map[string]int)
	for _, u := range repo.db.users {
		counts[u.Role]++
	}
	return counts, nil
}

func (repo *dashboardRepository) CountCourses(_ context.Context, instructorID string) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var count int
	for _, c := range repo.db.courses {
		if instructorID == "" || c.InstructorID == instructorID {
			count++
		}
	}
	return count, nil
}

func (repo *dashboardRepository) CountQuizzes(_ context.Context, studentID string) (taken, passed int, err error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	takenQuizzes := make(map[int]bool)
	for _, r := range repo.db.results {
		if r.StudentID != studentID {
			continue
		}
		takenQuizzes[r.QuizID] = takenQuizzes[r.QuizID] || r.Passed
	}
	for _, p := range takenQuizzes {
		if p {
			passed++
		}
	}
	return len(takenQuizzes), passed, nil
}
