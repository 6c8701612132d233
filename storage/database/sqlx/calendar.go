package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/calendar"
)

var (
	eventColumns = "id, title, description, event_type, start_date, end_date, all_day, created_at, updated_at"
	eventSelect  = `SELECT id, title, description, event_type, ` + dateColumn("start_date") + `, ` +
		dateColumn("end_date") + `, all_day, created_at, updated_at FROM calendar_event`
)

type eventRow struct {
	ID          string      `db:"id"`
	Title       string      `db:"title"`
	Description null.String `db:"description"`
	EventType   string      `db:"event_type"`
	StartDate   string      `db:"start_date"`
	EndDate     null.String `db:"end_date"`
	AllDay      bool        `db:"all_day"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

type calendarRepository struct {
	baseRepository
}

var _ calendar.Repository = (*calendarRepository)(nil) // interface compliance check

func NewCalendarRepository(exec core.DBExecutor) *calendarRepository {
	return &calendarRepository{baseRepository{exec: exec}}
}

func (repo calendarRepository) boil(evt calendar.Event) eventRow {
	return eventRow{
		ID:          evt.ID,
		Title:       evt.Title,
		Description: null.StringFromPtr(evt.Description),
		EventType:   evt.EventType,
		StartDate:   evt.StartDate,
		EndDate:     null.StringFromPtr(evt.EndDate),
		AllDay:      evt.AllDay,
		CreatedAt:   evt.CreatedAt.UTC(),
		UpdatedAt:   evt.UpdatedAt.UTC(),
	}
}

func (repo calendarRepository) unboil(row eventRow) calendar.Event {
	return calendar.Event{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description.Ptr(),
		EventType:   row.EventType,
		StartDate:   row.StartDate,
		EndDate:     row.EndDate.Ptr(),
		AllDay:      row.AllDay,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}

func (repo calendarRepository) CreateEvent(ctx context.Context, evt calendar.Event, exec ...core.DBExecutor) (calendar.Event, error) {
	evt.ID = uuid.New().String()
	_, err := repo.getExec(exec).NamedExecContext(ctx, `
		INSERT INTO calendar_event (`+eventColumns+`)
		VALUES (:id, :title, :description, :event_type, :start_date, :end_date, :all_day, :created_at, :updated_at)`,
		repo.boil(evt))
	if err != nil {
		return calendar.Event{}, errors.Wrap(err, "inserting calendar event")
	}
	return evt, nil
}

func (repo calendarRepository) QueryEvents(ctx context.Context, filter calendar.QueryFilter, exec ...core.DBExecutor) ([]calendar.Event, error) {
	var c conditions
	if filter.From != "" {
		c.add("start_date >= ?", filter.From)
	}
	if filter.To != "" {
		c.add("start_date <= ?", filter.To)
	}
	if filter.EventType != "" {
		c.add("event_type = ?", filter.EventType)
	}
	suffix := " ORDER BY start_date ASC, created_at ASC"
	if filter.Limit > 0 {
		suffix += " LIMIT ?"
		c.args = append(c.args, filter.Limit)
	}
	q, args, err := c.build(eventSelect, suffix)
	if err != nil {
		return nil, err
	}

	var rows []eventRow
	if err = repo.getExec(exec).SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying calendar events")
	}
	events := make([]calendar.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, repo.unboil(row))
	}
	return events, nil
}

func (repo calendarRepository) GetEvent(ctx context.Context, id string, exec ...core.DBExecutor) (calendar.Event, error) {
	if _, err := uuid.Parse(id); err != nil {
		return calendar.Event{}, calendar.ErrNotFound
	}
	var row eventRow
	if err := repo.getExec(exec).GetContext(ctx, &row, eventSelect+" WHERE id = $1", id); err != nil {
		return calendar.Event{}, trapNoRowsErr(err, calendar.ErrNotFound, "finding calendar event by ID")
	}
	return repo.unboil(row), nil
}

func (repo calendarRepository) UpdateEvent(ctx context.Context, evt calendar.Event, exec ...core.DBExecutor) (calendar.Event, error) {
	res, err := repo.getExec(exec).NamedExecContext(ctx, `
		UPDATE calendar_event SET title = :title, description = :description, event_type = :event_type,
			start_date = :start_date, end_date = :end_date, all_day = :all_day, updated_at = :updated_at
		WHERE id = :id`, repo.boil(evt))
	if err != nil {
		return calendar.Event{}, errors.Wrap(err, "updating calendar event")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return calendar.Event{}, calendar.ErrNotFound
	}
	return evt, nil
}

func (repo calendarRepository) DeleteEvent(ctx context.Context, id string, exec ...core.DBExecutor) error {
	cnt, err := deleteByID(ctx, repo.getExec(exec), "calendar_event", []string{id})
	if err != nil {
		return err
	}
	if cnt == 0 {
		return calendar.ErrNotFound
	}
	return nil
}
