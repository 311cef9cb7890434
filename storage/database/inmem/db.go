// Package inmemdb provides map-backed implementations of the core
// repositories, intended for tests and local tinkering. Semantics
// (unique constraints, not-found errors, join hydration) mirror the
// sqlx repositories.
package inmemdb

import (
	"sync"

	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/user"
)

type DB struct {
	mu          sync.RWMutex
	users       map[string]user.User
	courses     map[string]course.Course
	enrollments map[string]course.Enrollment
	assignments map[string]assignment.Assignment
	submissions map[string]assignment.Submission
}

func NewDB() *DB {
	return &DB{
		users:       make(map[string]user.User),
		courses:     make(map[string]course.Course),
		enrollments: make(map[string]course.Enrollment),
		assignments: make(map[string]assignment.Assignment),
		submissions: make(map[string]assignment.Submission),
	}
}
