package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/calendar"
	"github.com/trezcool/escola/core/student"
)

const seedUpcomingEvents = 3

// NewSeed seeds admins with the pending (inactive) enrollments and everyone with the next calendar events.
func NewSeed(students *student.Service, events *calendar.Service) SeedFunc {
	return func(ctx context.Context, p core.Principal) ([]Notification, error) {
		var items []Notification

		if p.IsAdmin() {
			pending, err := students.Query(ctx, &student.QueryFilter{Status: student.StatusInactive}, nil)
			if err != nil {
				return nil, errors.Wrap(err, "querying pending students")
			}
			for _, s := range pending {
				items = append(items, Notification{
					ID:         uuid.New().String(),
					Title:      "Nova matrícula pendente",
					Message:    fmt.Sprintf("%s aguarda aprovação", s.FullName),
					Type:       TypeEnrollment,
					ActionPath: "/v1/students/" + s.ID,
				})
			}
		}

		upcoming, err := events.Upcoming(ctx, seedUpcomingEvents)
		if err != nil {
			return nil, errors.Wrap(err, "querying upcoming events")
		}
		for _, e := range upcoming {
			items = append(items, Notification{
				ID:         uuid.New().String(),
				Title:      e.Title,
				Message:    fmt.Sprintf("Evento em %s", e.StartDate),
				Type:       TypeCalendar,
				ActionPath: "/v1/calendar/events/" + e.ID,
			})
		}
		return items, nil
	}
}
