// Package dashboard computes the counters shown on the portal dashboards.
package dashboard

import (
	"context"

	"github.com/pkg/errors"

	"github.com/edulane/lms/core/course"
	"github.com/edulane/lms/core/user"
)

// RecentCoursesLimit is the number of courses listed on the faculty dashboard.
const RecentCoursesLimit = 5

type (
	AdminStats struct {
		Students int `json:"students"`
		Faculty  int `json:"faculty"`
		Courses  int `json:"courses"`
	}

	FacultyStats struct {
		ActiveCourses int             `json:"activeCourses"`
		TotalStudents int             `json:"totalStudents"`
		RecentCourses []course.Course `json:"recentCourses"`
	}

	StudentStats struct {
		Courses       int `json:"courses"`
		QuizzesTaken  int `json:"quizzesTaken"`  // distinct quizzes attempted
		QuizzesPassed int `json:"quizzesPassed"` // distinct quizzes passed at least once
	}

	Repository interface {
		CountUsersByRole(ctx context.Context) (map[string]int, error)
		// CountCourses counts the courses of an instructor, or all courses when instructorID is empty.
		CountCourses(ctx context.Context, instructorID string) (int, error)
		CountQuizzes(ctx context.Context, studentID string) (taken, passed int, err error)
	}

	Service struct {
		repo      Repository
		courseSvc *course.Service
	}
)

func NewService(repo Repository, courseSvc *course.Service) *Service {
	return &Service{repo: repo, courseSvc: courseSvc}
}

func (svc *Service) Admin(ctx context.Context) (AdminStats, error) {
	counts, err := svc.repo.CountUsersByRole(ctx)
	if err != nil {
		return AdminStats{}, errors.Wrap(err, "counting users")
	}
	courses, err := svc.repo.CountCourses(ctx, "")
	if err != nil {
		return AdminStats{}, errors.Wrap(err, "counting courses")
	}
	return AdminStats{
		Students: counts[user.RoleStudent],
		Faculty:  counts[user.RoleFaculty],
		Courses:  courses,
	}, nil
}

// Faculty returns the dashboard of an instructor. TotalStudents counts every student:
// there is no enrollment yet.
func (svc *Service) Faculty(ctx context.Context, instructorID string) (FacultyStats, error) {
	active, err := svc.repo.CountCourses(ctx, instructorID)
	if err != nil {
		return FacultyStats{}, errors.Wrap(err, "counting courses")
	}
	counts, err := svc.repo.CountUsersByRole(ctx)
	if err != nil {
		return FacultyStats{}, errors.Wrap(err, "counting users")
	}
	recent, err := svc.courseSvc.ListByInstructor(ctx, instructorID, RecentCoursesLimit)
	if err != nil {
		return FacultyStats{}, errors.Wrap(err, "listing recent courses")
	}
	if recent == nil {
		recent = []course.Course{}
	}
	return FacultyStats{
		ActiveCourses: active,
		TotalStudents: counts[user.RoleStudent],
		RecentCourses: recent,
	}, nil
}

func (svc *Service) Student(ctx context.Context, studentID string) (StudentStats, error) {
	courses, err := svc.repo.CountCourses(ctx, "")
	if err != nil {
		return StudentStats{}, errors.Wrap(err, "counting courses")
	}
	taken, passed, err := svc.repo.CountQuizzes(ctx, studentID)
	if err != nil {
		return StudentStats{}, errors.Wrap(err, "counting quizzes")
	}
	return StudentStats{Courses: courses, QuizzesTaken: taken, QuizzesPassed: passed}, nil
}
