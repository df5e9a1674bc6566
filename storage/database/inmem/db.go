// Package inmemdb implements the repositories in memory. It backs tests and local demos.
package inmemdb

import (
	"sync"

	"github.com/edulane/lms/core/course"
	"github.com/edulane/lms/core/quiz"
	"github.com/edulane/lms/core/user"
)

type DB struct {
	mu sync.RWMutex

	users       map[string]*user.User
	courses     map[int]*course.Course
	sections    map[int]*course.Section
	topics      map[int]*course.Topic
	quizzes     map[int]*course.Quiz
	questions   map[int]*course.Question
	assignments map[int]*course.Assignment
	results     map[int]*quiz.Result

	seq map[string]int // last ID per table

	// InsertHook is called before each row insert of a course save, with the table name.
	// An error aborts the save; nothing is stored.
	InsertHook func(table string) error
}

func Open() *DB {
	return &DB{
		users:       make(map[string]*user.User),
		courses:     make(map[int]*course.Course),
		sections:    make(map[int]*course.Section),
		topics:      make(map[int]*course.Topic),
		quizzes:     make(map[int]*course.Quiz),
		questions:   make(map[int]*course.Question),
		assignments: make(map[int]*course.Assignment),
		results:     make(map[int]*quiz.Result),
		seq:         make(map[string]int),
	}
}

// nextID returns the next serial ID of a table. Callers hold the write lock.
func (db *DB) nextID(table string) int {
	db.seq[table]++
	return db.seq[table]
}
