// Package testutil provides the configuration, services and fixtures shared by tests.
package testutil

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Pallinder/go-randomdata"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/edulane/lms/core"
	"github.com/edulane/lms/core/course"
	"github.com/edulane/lms/core/dashboard"
	"github.com/edulane/lms/core/quiz"
	"github.com/edulane/lms/core/user"
	emailsvc "github.com/edulane/lms/services/email"
	inmemdb "github.com/edulane/lms/storage/database/inmem"
)

const (
	SecretKey       = "test-secret-key"
	DefaultPassword = "Welcome@123"
)

// NewConfig returns the configuration of tests: no debug, console emails, fixed secrets.
func NewConfig() *core.Config {
	conf := core.NewConfig()
	conf.Debug = false
	conf.TestMode = true
	conf.AppName = "LMS"
	conf.SecretKey = SecretKey
	conf.FrontendBaseURL = "http://localhost:3000"
	conf.EmailBackend = core.EmailBackendConsole
	conf.DefaultUserPassword = DefaultPassword
	conf.PassMark = 0.4
	conf.PasswordResetTimeoutDelta = 3 * 24 * time.Hour
	conf.Server.JWTExpirationDelta = 10 * time.Minute
	conf.Server.JWTRefreshExpirationDelta = 4 * time.Hour
	conf.Server.CORSOrigins = []string{"http://localhost:3000"}
	return conf
}

// NewValidator returns a validator with the validations of all the domain packages.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)
	course.InitValidators(validate, translator)
	user.LoadCommonPasswords(nil)
	return validate, translator
}

// Services are the domain services wired over a fresh in-memory database.
type Services struct {
	Conf       *core.Config
	DB         *inmemdb.DB
	Mail       *emailsvc.ConsoleServiceMock
	Validate   *validator.Validate
	Translator ut.Translator

	UserRepo   user.Repository
	CourseRepo course.Repository
	QuizRepo   quiz.Repository

	Users     *user.Service
	Courses   *course.Service
	Quizzes   *quiz.Service
	Dashboard *dashboard.Service
}

func NewServices(t *testing.T) *Services {
	t.Helper()
	if err := core.ParseEmailTemplates(); err != nil {
		t.Fatalf("ParseEmailTemplates() failed: %v", err)
	}

	conf := NewConfig()
	db := inmemdb.Open()
	validate, translator := NewValidator()
	mailSvc := emailsvc.NewConsoleServiceMock(conf)

	s := &Services{
		Conf:       conf,
		DB:         db,
		Mail:       mailSvc,
		Validate:   validate,
		Translator: translator,
		UserRepo:   inmemdb.NewUserRepository(db),
		CourseRepo: inmemdb.NewCourseRepository(db),
		QuizRepo:   inmemdb.NewQuizRepository(db),
	}
	s.Users = user.NewService(s.UserRepo, mailSvc, validate, translator, conf)
	s.Courses = course.NewService(s.CourseRepo, validate)
	s.Quizzes = quiz.NewService(s.QuizRepo, validate, conf.PassMark)
	s.Dashboard = dashboard.NewService(inmemdb.NewDashboardRepository(db), s.Courses)
	return s
}

// CreateUser stores a user straight into repo, bypassing validation.
func CreateUser(
	t *testing.T,
	repo user.Repository,
	userID, name, email, pwd, role string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		UserID:    userID,
		Name:      name,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if role != user.RoleAdmin {
		usr.Branch = user.DefaultBranch
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// RandomUser stores an active user with a random name and login ID.
func RandomUser(t *testing.T, repo user.Repository, role, pwd string) user.User {
	t.Helper()
	name := randomdata.FullName(randomdata.RandomGender)
	userID := strings.ToLower(role[:3]) + randomdata.Digits(6)
	email := strings.ToLower(randomdata.SillyName()) + "." + userID + "@test.edu"
	return CreateUser(t, repo, userID, name, email, pwd, role, true)
}

// NewDraft returns a valid course draft with one section holding a video, a pdf,
// a 2-question quiz (correct options 1 and 0, worth 2 and 3 marks) and a coding assignment.
func NewDraft(title string) course.Draft {
	return course.Draft{
		Basics: course.Basics{
			Title:       title,
			ShortTitle:  strings.ToUpper(randomdata.StringSample("ALG", "NET", "DBS", "OSY")) + randomdata.Digits(3),
			Description: randomdata.Paragraph(),
			Color:       "#4f46e5",
		},
		Sections: []course.SectionDraft{
			{
				Title: "Introduction",
				Topics: []course.TopicDraft{
					{Title: "Welcome", Type: course.TopicVideo, URL: "https://videos.test/welcome"},
					{Title: "Syllabus", Type: course.TopicPDF, URL: "https://files.test/syllabus.pdf"},
				},
				Quiz: &course.QuizDraft{
					Enabled:   true,
					TimeLimit: 10,
					Questions: []course.QuestionDraft{
						{Text: "2 + 2 = ?", Marks: 2, Options: []string{"3", "4", "5"}, Correct: 1},
						{Text: "Go is compiled", Marks: 3, Options: []string{"true", "false"}, Correct: 0},
					},
				},
				Assignments: []course.AssignmentDraft{
					{
						Title:     "Hello",
						Type:      course.AssignmentCoding,
						Problem:   "Print hello",
						Marks:     10,
						TestCases: []course.TestCase{{Input: "", Output: "hello"}},
					},
				},
			},
		},
	}
}

// CreateCourse saves draft as a course of instructorID.
func CreateCourse(t *testing.T, svc *course.Service, instructorID string, draft course.Draft) course.Course {
	t.Helper()
	crs, err := svc.Save(context.Background(), instructorID, draft)
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return crs
}

// CourseQuiz returns the quiz of the first section of a course holding one.
func CourseQuiz(t *testing.T, svc *course.Service, courseID int) course.QuizDetails {
	t.Helper()
	details, err := svc.Details(context.Background(), courseID, false)
	if err != nil {
		t.Fatalf("CourseQuiz() failed: %v", err)
	}
	for _, sd := range details.Sections {
		if sd.Quiz != nil {
			return *sd.Quiz
		}
	}
	t.Fatalf("CourseQuiz() failed: course %d has no quiz", courseID)
	return course.QuizDetails{}
}
