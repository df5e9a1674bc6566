package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/edulane/lms/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db}
}

// pending holds the rows of a course save until they are all built.
type pending struct {
	db          *DB
	seq         map[string]int
	sections    []course.Section
	topics      []course.Topic
	quizzes     []course.Quiz
	questions   []course.Question
	assignments []course.Assignment
}

func (p *pending) nextID(table string) (int, error) {
	if p.db.InsertHook != nil {
		if err := p.db.InsertHook(table); err != nil {
			return 0, errors.Wrapf(err, "inserting into %s", table)
		}
	}
	p.seq[table]++
	return p.seq[table], nil
}

func (repo *courseRepository) SaveCourse(_ context.Context, crs course.Course, draft course.Draft) (course.Course, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	p := &pending{db: repo.db, seq: make(map[string]int, len(repo.db.seq))}
	for table, id := range repo.db.seq {
		p.seq[table] = id
	}

	var err error
	if crs.ID, err = p.nextID("courses"); err != nil {
		return course.Course{}, err
	}
	crs.CreatedAt = time.Now().UTC()

	for i, sd := range draft.Sections {
		sectionID, err := p.nextID("sections")
		if err != nil {
			return course.Course{}, err
		}
		p.sections = append(p.sections, course.Section{ID: sectionID, CourseID: crs.ID, Title: sd.Title, Order: i + 1})

		for _, t := range sd.Topics {
			id, err := p.nextID("topics")
			if err != nil {
				return course.Course{}, err
			}
			p.topics = append(p.topics, course.Topic{ID: id, SectionID: sectionID, Title: t.Title, Type: t.Type, URL: t.URL})
		}

		if sd.HasQuiz() {
			quizID, err := p.nextID("quizzes")
			if err != nil {
				return course.Course{}, err
			}
			p.quizzes = append(p.quizzes, course.Quiz{
				ID:        quizID,
				SectionID: sectionID,
				TimeLimit: sd.Quiz.TimeLimit.Int(),
				Retakes:   sd.Quiz.Retakes.Int(),
			})
			for _, q := range sd.Quiz.Questions {
				id, err := p.nextID("questions")
				if err != nil {
					return course.Course{}, err
				}
				p.questions = append(p.questions, course.Question{
					ID:            id,
					QuizID:        quizID,
					Text:          q.Text,
					Marks:         q.Marks.Int(),
					Options:       append([]string{}, q.Options...),
					CorrectOption: q.Correct.Int(),
				})
			}
		}

		for _, a := range sd.Assignments {
			id, err := p.nextID("assignments")
			if err != nil {
				return course.Course{}, err
			}
			p.assignments = append(p.assignments, course.Assignment{
				ID:        id,
				SectionID: sectionID,
				Title:     a.Title,
				Type:      a.Type,
				Problem:   a.Problem,
				Marks:     a.Marks.Int(),
				TestCases: append([]course.TestCase{}, a.TestCases...),
			})
		}
	}

	// commit
	repo.db.seq = p.seq
	c := crs
	repo.db.courses[c.ID] = &c
	for i := range p.sections {
		repo.db.sections[p.sections[i].ID] = &p.sections[i]
	}
	for i := range p.topics {
		repo.db.topics[p.topics[i].ID] = &p.topics[i]
	}
	for i := range p.quizzes {
		repo.db.quizzes[p.quizzes[i].ID] = &p.quizzes[i]
	}
	for i := range p.questions {
		repo.db.questions[p.questions[i].ID] = &p.questions[i]
	}
	for i := range p.assignments {
		repo.db.assignments[p.assignments[i].ID] = &p.assignments[i]
	}
	return crs, nil
}

func (repo *courseRepository) QueryCourses(_ context.Context, filter course.QueryFilter) ([]course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.courses))
	for _, c := range repo.db.courses {
		if filter.InstructorID == "" || c.InstructorID == filter.InstructorID {
			courses = append(courses, *c)
		}
	}
	sort.Slice(courses, func(i, j int) bool {
		if !courses[i].CreatedAt.Equal(courses[j].CreatedAt) {
			return courses[i].CreatedAt.After(courses[j].CreatedAt)
		}
		return courses[i].ID > courses[j].ID
	})
	if filter.Limit > 0 && len(courses) > filter.Limit {
		courses = courses[:filter.Limit]
	}
	return courses, nil
}

func (repo *courseRepository) GetCourseDetails(_ context.Context, id int) (course.Details, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	c, ok := repo.db.courses[id]
	if !ok {
		return course.Details{}, course.ErrNotFound
	}
	details := course.Details{Course: *c, Sections: []course.SectionDetails{}}

	for _, s := range repo.db.sections {
		if s.CourseID == id {
			details.Sections = append(details.Sections, course.SectionDetails{
				Section:     *s,
				Topics:      []course.Topic{},
				Assignments: []course.Assignment{},
			})
		}
	}
	sort.Slice(details.Sections, func(i, j int) bool {
		if details.Sections[i].Order != details.Sections[j].Order {
			return details.Sections[i].Order < details.Sections[j].Order
		}
		return details.Sections[i].ID < details.Sections[j].ID
	})

	for i := range details.Sections {
		sd := &details.Sections[i]
		for _, t := range repo.db.topics {
			if t.SectionID == sd.ID {
				sd.Topics = append(sd.Topics, *t)
			}
		}
		sort.Slice(sd.Topics, func(i, j int) bool { return sd.Topics[i].ID < sd.Topics[j].ID })

		for _, a := range repo.db.assignments {
			if a.SectionID == sd.ID {
				sd.Assignments = append(sd.Assignments, *a)
			}
		}
		sort.Slice(sd.Assignments, func(i, j int) bool { return sd.Assignments[i].ID < sd.Assignments[j].ID })

		for _, qz := range repo.db.quizzes {
			if qz.SectionID == sd.ID {
				sd.Quiz = &course.QuizDetails{Quiz: *qz, Questions: repo.db.quizQuestions(qz.ID)}
				break
			}
		}
	}
	return details, nil
}

// quizQuestions returns the questions of a quiz ordered by ID. Callers hold the lock.
func (db *DB) quizQuestions(quizID int) []course.Question {
	questions := []course.Question{}
	for _, q := range db.questions {
		if q.QuizID == quizID {
			questions = append(questions, *q)
		}
	}
	sort.Slice(questions, func(i, j int) bool { return questions[i].ID < questions[j].ID })
	return questions
}
