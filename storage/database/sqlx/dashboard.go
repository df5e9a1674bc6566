package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/edulane/lms/core/dashboard"
)

type dashboardRepository struct {
	db *sqlx.DB
}

var _ dashboard.Repository = (*dashboardRepository)(nil) // interface compliance check

func NewDashboardRepository(db *sqlx.DB) *dashboardRepository {
	return &dashboardRepository{db: db}
}

func (repo dashboardRepository) CountUsersByRole(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		Role  string `db:"role"`
		Count int    `db:"count"`
	}
	if err := repo.db.SelectContext(ctx, &rows, "SELECT role, COUNT(*) AS count FROM users GROUP BY role"); err != nil {
		return nil, errors.Wrap(err, "counting users")
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Role] = row.Count
	}
	return counts, nil
}

func (repo dashboardRepository) CountCourses(ctx context.Context, instructorID string) (int, error) {
	var w where
	if instructorID != "" {
		w.add("instructor_id::text = ?", instructorID)
	}
	var count int
	if err := repo.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM courses"+w.String(), w.args...); err != nil {
		return 0, errors.Wrap(err, "counting courses")
	}
	return count, nil
}

func (repo dashboardRepository) CountQuizzes(ctx context.Context, studentID string) (taken, passed int, err error) {
	q := `SELECT COUNT(DISTINCT quiz_id), COUNT(DISTINCT quiz_id) FILTER (WHERE passed)
		FROM quiz_results WHERE student_id::text = $1`
	if err = repo.db.QueryRowxContext(ctx, q, studentID).Scan(&taken, &passed); err != nil {
		return 0, 0, errors.Wrap(err, "counting quizzes")
	}
	return taken, passed, nil
}
