package inmemdb

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/calendar"
	"github.com/trezcool/escola/core/classroom"
	"github.com/trezcool/escola/core/grade"
	"github.com/trezcool/escola/core/schedule"
	"github.com/trezcool/escola/core/student"
	"github.com/trezcool/escola/core/subject"
	"github.com/trezcool/escola/core/teacher"
)

// DB is an in-memory store shared by every in-memory repository. One lock guards all tables,
// so multi-table operations (cascades, schedule replacement) are atomic.
type DB struct {
	mu sync.RWMutex

	subjects    map[string]subject.Subject
	students    map[string]student.Student
	teachers    map[string]teacher.Teacher
	assignments map[string]teacher.Assignment
	classes     map[string]classroom.Class
	entries     map[string]schedule.Entry
	periods     map[string]grade.GradingPeriod
	grades      map[string]grade.Grade
	events      map[string]calendar.Event
}

func NewDB() *DB {
	db := new(DB)
	db.reset()
	return db
}

// Reset empties every table.
func (db *DB) Reset() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.reset()
}

// reset swaps every table for an empty one. db.mu must be held once db is shared.
func (db *DB) reset() {
	db.subjects = make(map[string]subject.Subject)
	db.students = make(map[string]student.Student)
	db.teachers = make(map[string]teacher.Teacher)
	db.assignments = make(map[string]teacher.Assignment)
	db.classes = make(map[string]classroom.Class)
	db.entries = make(map[string]schedule.Entry)
	db.periods = make(map[string]grade.GradingPeriod)
	db.grades = make(map[string]grade.Grade)
	db.events = make(map[string]calendar.Event)
}

func newID() string {
	return uuid.New().String()
}

func contains(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func inSlice(s string, slice []string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}

func strValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// compare returns -1, 0 or 1; supported kinds are string, *string, int, *int and time.Time.
func compare(a, b interface{}) int {
	switch av := a.(type) {
	case string:
		return strings.Compare(strings.ToLower(av), strings.ToLower(b.(string)))
	case *string:
		return compare(strValue(av), strValue(b.(*string)))
	case int:
		bv := b.(int)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case *int:
		bv := b.(*int)
		ai, bi := -1, -1
		if av != nil {
			ai = *av
		}
		if bv != nil {
			bi = *bv
		}
		return compare(ai, bi)
	case time.Time:
		bv := b.(time.Time)
		switch {
		case av.Before(bv):
			return -1
		case av.After(bv):
			return 1
		}
		return 0
	}
	return 0
}

// sortRows orders the rows slice with the orderings, then the fallback one. field returns the value of row i's field.
func sortRows(rows interface{}, ordering []core.DBOrdering, fallback core.DBOrdering, field func(i int, name string) interface{}) {
	ordering = append(append([]core.DBOrdering(nil), ordering...), fallback)
	sort.SliceStable(rows, func(i, j int) bool {
		for _, ord := range ordering {
			c := compare(field(i, ord.Field), field(j, ord.Field))
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}
