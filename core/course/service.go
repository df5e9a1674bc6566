package course

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var (
	// errors
	ErrNotFound = errors.New("course not found")
)

type (
	QueryFilter struct {
		InstructorID string
		Limit        int // 0: no limit
	}

	Repository interface {
		// SaveCourse stores the course with its whole content, or nothing at all.
		SaveCourse(ctx context.Context, crs Course, draft Draft) (Course, error)
		// QueryCourses returns courses newest first.
		QueryCourses(ctx context.Context, filter QueryFilter) ([]Course, error)
		// GetCourseDetails returns ErrNotFound when the course does not exist.
		GetCourseDetails(ctx context.Context, id int) (Details, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

// Save validates a draft and stores it as a new course taught by instructorID.
func (svc *Service) Save(ctx context.Context, instructorID string, draft Draft) (Course, error) {
	if err := draft.Validate(svc.validate); err != nil {
		return Course{}, err
	}
	crs := Course{
		Title:        draft.Basics.Title,
		ShortTitle:   draft.Basics.ShortTitle,
		Description:  draft.Basics.Description,
		Color:        draft.Basics.Color,
		InstructorID: instructorID,
	}
	crs, err := svc.repo.SaveCourse(ctx, crs, draft)
	if err != nil {
		return Course{}, errors.Wrap(err, "saving course")
	}
	return crs, nil
}

// List returns the course catalog, newest first.
func (svc *Service) List(ctx context.Context) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, QueryFilter{})
}

// ListByInstructor returns the courses taught by instructorID, newest first.
func (svc *Service) ListByInstructor(ctx context.Context, instructorID string, limit int) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, QueryFilter{InstructorID: instructorID, Limit: limit})
}

// Details returns a course with its content.
// The answer key of quizzes is only filled in when the details are not for a student.
func (svc *Service) Details(ctx context.Context, id int, forStudent bool) (Details, error) {
	details, err := svc.repo.GetCourseDetails(ctx, id)
	if err != nil {
		return Details{}, err
	}
	for _, sd := range details.Sections {
		if sd.Quiz == nil {
			continue
		}
		if forStudent {
			sd.Quiz.AnswerKey = nil
			continue
		}
		sd.Quiz.AnswerKey = make(map[int]int, len(sd.Quiz.Questions))
		for _, q := range sd.Quiz.Questions {
			sd.Quiz.AnswerKey[q.ID] = q.CorrectOption
		}
	}
	return details, nil
}

// InstructorDetails returns the details of a course taught by instructorID.
// Courses of other instructors are reported as not found.
func (svc *Service) InstructorDetails(ctx context.Context, instructorID string, id int) (Details, error) {
	details, err := svc.Details(ctx, id, false)
	if err != nil {
		return Details{}, err
	}
	if details.Course.InstructorID != instructorID {
		return Details{}, ErrNotFound
	}
	return details, nil
}
