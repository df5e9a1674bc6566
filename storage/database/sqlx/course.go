package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/edulane/lms/core/course"
	"github.com/edulane/lms/storage/database"
)

type (
	courseRow struct {
		ID           int         `db:"id"`
		Title        string      `db:"title"`
		ShortTitle   string      `db:"short_title"`
		Description  string      `db:"description"`
		Color        string      `db:"color"`
		InstructorID null.String `db:"instructor_id"`
		CreatedAt    time.Time   `db:"created_at"`
	}

	sectionRow struct {
		ID           int    `db:"id"`
		CourseID     int    `db:"course_id"`
		Title        string `db:"title"`
		SectionOrder int    `db:"section_order"`
	}

	topicRow struct {
		ID        int    `db:"id"`
		SectionID int    `db:"section_id"`
		Title     string `db:"title"`
		Type      string `db:"type"`
		URL       string `db:"url"`
	}

	quizRow struct {
		ID        int `db:"id"`
		SectionID int `db:"section_id"`
		TimeLimit int `db:"time_limit"`
		Retakes   int `db:"retakes"`
	}

	questionRow struct {
		ID            int            `db:"id"`
		QuizID        int            `db:"quiz_id"`
		Text          string         `db:"text"`
		Marks         int            `db:"marks"`
		Options       types.JSONText `db:"options"`
		CorrectOption int            `db:"correct_option"`
	}

	assignmentRow struct {
		ID        int            `db:"id"`
		SectionID int            `db:"section_id"`
		Title     string         `db:"title"`
		Type      string         `db:"type"`
		Problem   string         `db:"problem"`
		Marks     int            `db:"marks"`
		TestCases types.JSONText `db:"test_cases"`
	}
)

func (r courseRow) toCourse() course.Course {
	return course.Course{
		ID:           r.ID,
		Title:        r.Title,
		ShortTitle:   r.ShortTitle,
		Description:  r.Description,
		Color:        r.Color,
		InstructorID: r.InstructorID.String,
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

func (r sectionRow) toSection() course.Section {
	return course.Section{ID: r.ID, CourseID: r.CourseID, Title: r.Title, Order: r.SectionOrder}
}

func (r topicRow) toTopic() course.Topic {
	return course.Topic{ID: r.ID, SectionID: r.SectionID, Title: r.Title, Type: r.Type, URL: r.URL}
}

func (r quizRow) toQuiz() course.Quiz {
	return course.Quiz{ID: r.ID, SectionID: r.SectionID, TimeLimit: r.TimeLimit, Retakes: r.Retakes}
}

func (r questionRow) toQuestion() (course.Question, error) {
	q := course.Question{
		ID:            r.ID,
		QuizID:        r.QuizID,
		Text:          r.Text,
		Marks:         r.Marks,
		Options:       []string{},
		CorrectOption: r.CorrectOption,
	}
	if err := r.Options.Unmarshal(&q.Options); err != nil {
		return course.Question{}, errors.Wrapf(err, "decoding options of question %d", r.ID)
	}
	return q, nil
}

func (r assignmentRow) toAssignment() (course.Assignment, error) {
	a := course.Assignment{
		ID:        r.ID,
		SectionID: r.SectionID,
		Title:     r.Title,
		Type:      r.Type,
		Problem:   r.Problem,
		Marks:     r.Marks,
		TestCases: []course.TestCase{},
	}
	if err := r.TestCases.Unmarshal(&a.TestCases); err != nil {
		return course.Assignment{}, errors.Wrapf(err, "decoding test cases of assignment %d", r.ID)
	}
	return a, nil
}

func jsonText(v interface{}) (types.JSONText, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return types.JSONText(data), nil
}

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

// SaveCourse inserts the course, then for each section in order: the section, its topics,
// its quiz and questions (only when there are questions), and its assignments.
func (repo courseRepository) SaveCourse(ctx context.Context, crs course.Course, draft course.Draft) (course.Course, error) {
	err := database.WithTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		row := courseRow{
			Title:        crs.Title,
			ShortTitle:   crs.ShortTitle,
			Description:  crs.Description,
			Color:        crs.Color,
			InstructorID: null.NewString(crs.InstructorID, crs.InstructorID != ""),
		}
		err := tx.QueryRowxContext(ctx,
			`INSERT INTO courses (title, short_title, description, color, instructor_id)
			VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`,
			row.Title, row.ShortTitle, row.Description, row.Color, row.InstructorID,
		).Scan(&row.ID, &row.CreatedAt)
		if err != nil {
			return errors.Wrap(err, "inserting course")
		}
		crs = row.toCourse()

		for i, sd := range draft.Sections {
			if err = insertSection(ctx, tx, crs.ID, i+1, sd); err != nil {
				return errors.Wrapf(err, "section %d", i+1)
			}
		}
		return nil
	})
	if err != nil {
		return course.Course{}, err
	}
	return crs, nil
}

func insertSection(ctx context.Context, tx *sqlx.Tx, courseID, order int, sd course.SectionDraft) error {
	var sectionID int
	err := tx.QueryRowxContext(ctx,
		"INSERT INTO sections (course_id, title, section_order) VALUES ($1, $2, $3) RETURNING id",
		courseID, sd.Title, order,
	).Scan(&sectionID)
	if err != nil {
		return errors.Wrap(err, "inserting section")
	}

	for _, t := range sd.Topics {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO topics (section_id, title, type, url) VALUES ($1, $2, $3, $4)",
			sectionID, t.Title, t.Type, t.URL,
		)
		if err != nil {
			return errors.Wrap(err, "inserting topic")
		}
	}

	if sd.HasQuiz() {
		var quizID int
		err = tx.QueryRowxContext(ctx,
			"INSERT INTO quizzes (section_id, time_limit, retakes) VALUES ($1, $2, $3) RETURNING id",
			sectionID, sd.Quiz.TimeLimit.Int(), sd.Quiz.Retakes.Int(),
		).Scan(&quizID)
		if err != nil {
			return errors.Wrap(err, "inserting quiz")
		}

		for _, q := range sd.Quiz.Questions {
			opts, err := jsonText(q.Options)
			if err != nil {
				return errors.Wrap(err, "encoding options")
			}
			_, err = tx.ExecContext(ctx,
				"INSERT INTO questions (quiz_id, text, marks, correct_option, options) VALUES ($1, $2, $3, $4, $5)",
				quizID, q.Text, q.Marks.Int(), q.Correct.Int(), opts,
			)
			if err != nil {
				return errors.Wrap(err, "inserting question")
			}
		}
	}

	for _, a := range sd.Assignments {
		tcs, err := jsonText(a.TestCases)
		if err != nil {
			return errors.Wrap(err, "encoding test cases")
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO assignments (section_id, title, type, problem, marks, test_cases)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			sectionID, a.Title, a.Type, a.Problem, a.Marks.Int(), tcs,
		)
		if err != nil {
			return errors.Wrap(err, "inserting assignment")
		}
	}
	return nil
}

func (repo courseRepository) QueryCourses(ctx context.Context, filter course.QueryFilter) ([]course.Course, error) {
	var w where
	if filter.InstructorID != "" {
		w.add("instructor_id::text = ?", filter.InstructorID)
	}
	q := "SELECT id, title, short_title, description, color, instructor_id, created_at FROM courses" +
		w.String() + " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		w.args = append(w.args, filter.Limit)
		q += " LIMIT " + placeholder(len(w.args))
	}

	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, row.toCourse())
	}
	return courses, nil
}

// GetCourseDetails reads the course, its sections ordered by section_order, then the content
// of all sections at once: topics, assignments and questions ordered by ID.
func (repo courseRepository) GetCourseDetails(ctx context.Context, id int) (course.Details, error) {
	var crs courseRow
	err := repo.db.GetContext(ctx, &crs,
		"SELECT id, title, short_title, description, color, instructor_id, created_at FROM courses WHERE id = $1", id)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return course.Details{}, course.ErrNotFound
		}
		return course.Details{}, errors.Wrap(err, "getting course")
	}

	var sections []sectionRow
	err = repo.db.SelectContext(ctx, &sections,
		"SELECT id, course_id, title, section_order FROM sections WHERE course_id = $1 ORDER BY section_order ASC, id ASC", id)
	if err != nil {
		return course.Details{}, errors.Wrap(err, "querying sections")
	}

	details := course.Details{Course: crs.toCourse(), Sections: make([]course.SectionDetails, 0, len(sections))}
	if len(sections) == 0 {
		return details, nil
	}

	sectionIDs := make([]int64, 0, len(sections))
	bySection := make(map[int]*course.SectionDetails, len(sections))
	for _, s := range sections {
		details.Sections = append(details.Sections, course.SectionDetails{
			Section:     s.toSection(),
			Topics:      []course.Topic{},
			Assignments: []course.Assignment{},
		})
		sectionIDs = append(sectionIDs, int64(s.ID))
	}
	for i := range details.Sections {
		bySection[details.Sections[i].ID] = &details.Sections[i]
	}

	var topics []topicRow
	err = repo.db.SelectContext(ctx, &topics,
		"SELECT id, section_id, title, type, url FROM topics WHERE section_id = ANY($1) ORDER BY id ASC",
		pq.Array(sectionIDs))
	if err != nil {
		return course.Details{}, errors.Wrap(err, "querying topics")
	}
	for _, t := range topics {
		sd := bySection[t.SectionID]
		sd.Topics = append(sd.Topics, t.toTopic())
	}

	var assignments []assignmentRow
	err = repo.db.SelectContext(ctx, &assignments,
		"SELECT id, section_id, title, type, problem, marks, test_cases FROM assignments WHERE section_id = ANY($1) ORDER BY id ASC",
		pq.Array(sectionIDs))
	if err != nil {
		return course.Details{}, errors.Wrap(err, "querying assignments")
	}
	for _, a := range assignments {
		asgmt, err := a.toAssignment()
		if err != nil {
			return course.Details{}, err
		}
		sd := bySection[a.SectionID]
		sd.Assignments = append(sd.Assignments, asgmt)
	}

	var quizzes []quizRow
	err = repo.db.SelectContext(ctx, &quizzes,
		"SELECT id, section_id, time_limit, retakes FROM quizzes WHERE section_id = ANY($1)",
		pq.Array(sectionIDs))
	if err != nil {
		return course.Details{}, errors.Wrap(err, "querying quizzes")
	}
	if len(quizzes) == 0 {
		return details, nil
	}

	quizIDs := make([]int64, 0, len(quizzes))
	byQuiz := make(map[int]*course.QuizDetails, len(quizzes))
	for _, qr := range quizzes {
		qd := &course.QuizDetails{Quiz: qr.toQuiz(), Questions: []course.Question{}}
		bySection[qr.SectionID].Quiz = qd
		byQuiz[qr.ID] = qd
		quizIDs = append(quizIDs, int64(qr.ID))
	}

	var questions []questionRow
	err = repo.db.SelectContext(ctx, &questions,
		"SELECT id, quiz_id, text, marks, options, correct_option FROM questions WHERE quiz_id = ANY($1) ORDER BY id ASC",
		pq.Array(quizIDs))
	if err != nil {
		return course.Details{}, errors.Wrap(err, "querying questions")
	}
	for _, qr := range questions {
		q, err := qr.toQuestion()
		if err != nil {
			return course.Details{}, err
		}
		qd := byQuiz[qr.QuizID]
		qd.Questions = append(qd.Questions, q)
	}
	return details, nil
}
