package sqlxrepos

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"
)

func Test_entryBulkInsert(t *testing.T) {
	now := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	rows := []entryRow{
		{ID: "e1", ClassID: "c1", SubjectID: "s1", TeacherID: "t1", DayOfWeek: 0, StartTime: "07:00", EndTime: "07:50", CreatedAt: now},
		{ID: "e2", ClassID: "c1", SubjectID: "s2", TeacherID: "t2", DayOfWeek: 1, StartTime: "07:50", EndTime: "08:40",
			Room: null.StringFrom("Sala 3"), CreatedAt: now},
	}

	query, args := entryBulkInsert(rows)
	assert.Equal(t, "INSERT INTO schedule ("+entryColumns+") VALUES "+
		"($1, $2, $3, $4, $5, $6, $7, $8, $9), ($10, $11, $12, $13, $14, $15, $16, $17, $18)", query)
	assert.Equal(t, []interface{}{
		"e1", "c1", "s1", "t1", 0, "07:00", "07:50", null.String{}, now,
		"e2", "c1", "s2", "t2", 1, "07:50", "08:40", null.StringFrom("Sala 3"), now,
	}, args)
}
