package course

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/edulane/lms/core"
)

// Content types and limits
const (
	TopicVideo = "video"
	TopicPDF   = "pdf"

	AssignmentCoding = "coding"
	AssignmentTheory = "theory"

	MaxSections         = 10
	MaxTopicsPerSection = 15
)

type Course struct {
	ID           int       `json:"id"`
	Title        string    `json:"title"`
	ShortTitle   string    `json:"short_title"`
	Description  string    `json:"description"`
	Color        string    `json:"color"`
	InstructorID string    `json:"instructor_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"` // UTC
}

type Section struct {
	ID       int    `json:"id"`
	CourseID int    `json:"course_id"`
	Title    string `json:"title"`
	Order    int    `json:"section_order"` // 1-based
}

type Topic struct {
	ID        int    `json:"id"`
	SectionID int    `json:"section_id"`
	Title     string `json:"title"`
	Type      string `json:"type"`
	URL       string `json:"url"`
}

type Quiz struct {
	ID        int `json:"id"`
	SectionID int `json:"section_id"`
	TimeLimit int `json:"time_limit"` // minutes
	Retakes   int `json:"retakes"`
}

// MaxAttempts is the number of times a student may submit the quiz.
func (q Quiz) MaxAttempts() int { return 1 + q.Retakes }

type Question struct {
	ID            int      `json:"id"`
	QuizID        int      `json:"quiz_id"`
	Text          string   `json:"text"`
	Marks         int      `json:"marks"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"-"` // index in Options, served through QuizDetails.AnswerKey
}

type Assignment struct {
	ID        int        `json:"id"`
	SectionID int        `json:"section_id"`
	Title     string     `json:"title"`
	Type      string     `json:"type"`
	Problem   string     `json:"problem"`
	Marks     int        `json:"marks"`
	TestCases []TestCase `json:"test_cases"`
}

type TestCase struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// Details is a course with all of its content, as served to the course player.
type Details struct {
	Course   Course           `json:"course"`
	Sections []SectionDetails `json:"sections"`
}

type SectionDetails struct {
	Section
	Topics      []Topic      `json:"topics"`
	Assignments []Assignment `json:"assignments"`
	Quiz        *QuizDetails `json:"quiz"`
}

type QuizDetails struct {
	Quiz
	Questions []Question `json:"questions"`
	// AnswerKey maps question IDs to the index of their correct option. Never served to students.
	AnswerKey map[int]int `json:"answer_key,omitempty"`
}

// Draft is a course as submitted by the course builder.
type Draft struct {
	Basics   Basics         `json:"basics"`
	Sections []SectionDraft `json:"sections" validate:"max=10,dive"`
}

type Basics struct {
	Title       string `json:"title" validate:"required,max=255"`
	ShortTitle  string `json:"shortTitle" validate:"required,max=64"`
	Description string `json:"description"`
	Color       string `json:"color" validate:"max=32"`
}

// Titles and question texts may be left blank in the builder, and are stored as such.
type SectionDraft struct {
	Title       string            `json:"title" validate:"max=255"`
	Topics      []TopicDraft      `json:"topics" validate:"max=15,dive"`
	Quiz        *QuizDraft        `json:"quiz" validate:"omitempty"`
	Assignments []AssignmentDraft `json:"assignments" validate:"dive"`
}

type TopicDraft struct {
	Title string `json:"title" validate:"max=255"`
	Type  string `json:"type" validate:"required,oneof=video pdf"`
	URL   string `json:"url"`
}

// QuizDraft is stored only when it has at least one question; Enabled is not taken into account.
type QuizDraft struct {
	Enabled   bool            `json:"enabled"`
	TimeLimit core.FlexInt    `json:"timeLimit" validate:"min=0"`
	Retakes   core.FlexInt    `json:"retakes" validate:"min=0"`
	Questions []QuestionDraft `json:"questions" validate:"dive"`
}

type QuestionDraft struct {
	Text    string       `json:"text"`
	Marks   core.FlexInt `json:"marks" validate:"min=0"`
	Options []string     `json:"options" validate:"min=2"`
	Correct core.FlexInt `json:"correct" validate:"min=0"`
}

type AssignmentDraft struct {
	Title     string       `json:"title" validate:"max=255"`
	Type      string       `json:"type" validate:"required,oneof=coding theory"`
	Problem   string       `json:"problem"`
	Marks     core.FlexInt `json:"marks" validate:"min=0"`
	TestCases []TestCase   `json:"testCases"`
}

// HasQuiz reports whether the section's quiz is to be stored.
func (sd SectionDraft) HasQuiz() bool {
	return sd.Quiz != nil && len(sd.Quiz.Questions) > 0
}

// Clean trims the draft's texts and drops what is not stored.
func (d *Draft) Clean() {
	d.Basics.Title = core.CleanString(d.Basics.Title)
	d.Basics.ShortTitle = core.CleanString(d.Basics.ShortTitle)
	d.Basics.Description = core.CleanString(d.Basics.Description)
	d.Basics.Color = core.CleanString(d.Basics.Color)

	for i := range d.Sections {
		sd := &d.Sections[i]
		sd.Title = core.CleanString(sd.Title)
		for j := range sd.Topics {
			sd.Topics[j].Title = core.CleanString(sd.Topics[j].Title)
			sd.Topics[j].Type = core.CleanString(sd.Topics[j].Type, true /* lower */)
			sd.Topics[j].URL = core.CleanString(sd.Topics[j].URL)
		}
		if !sd.HasQuiz() {
			sd.Quiz = nil
		} else {
			for j := range sd.Quiz.Questions {
				sd.Quiz.Questions[j].Text = core.CleanString(sd.Quiz.Questions[j].Text)
			}
		}
		for j := range sd.Assignments {
			a := &sd.Assignments[j]
			a.Title = core.CleanString(a.Title)
			a.Type = core.CleanString(a.Type, true /* lower */)
			if a.TestCases == nil {
				a.TestCases = []TestCase{}
			}
		}
	}
}

func (d *Draft) Validate(validate *validator.Validate) error {
	d.Clean()
	return validate.Struct(d)
}
