package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/calendar"
)

type calendarRepository struct {
	db *DB
}

var _ calendar.Repository = (*calendarRepository)(nil) // interface compliance check

func NewCalendarRepository(db *DB) *calendarRepository {
	return &calendarRepository{db: db}
}

func (repo *calendarRepository) CreateEvent(_ context.Context, evt calendar.Event, _ ...core.DBExecutor) (calendar.Event, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	evt.ID = newID()
	repo.db.events[evt.ID] = evt
	return evt, nil
}

func (repo *calendarRepository) QueryEvents(_ context.Context, filter calendar.QueryFilter, _ ...core.DBExecutor) ([]calendar.Event, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	events := make([]calendar.Event, 0)
	for _, evt := range repo.db.events {
		// dates are YYYY-MM-DD, so they compare lexically
		if filter.From != "" && evt.StartDate < filter.From {
			continue
		}
		if filter.To != "" && evt.StartDate > filter.To {
			continue
		}
		if filter.EventType != "" && evt.EventType != filter.EventType {
			continue
		}
		events = append(events, evt)
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].StartDate != events[j].StartDate {
			return events[i].StartDate < events[j].StartDate
		}
		return events[i].CreatedAt.Before(events[j].CreatedAt)
	})
	if filter.Limit > 0 && len(events) > filter.Limit {
		events = events[:filter.Limit]
	}
	return events, nil
}

func (repo *calendarRepository) GetEvent(_ context.Context, id string, _ ...core.DBExecutor) (calendar.Event, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if evt, ok := repo.db.events[id]; ok {
		return evt, nil
	}
	return calendar.Event{}, calendar.ErrNotFound
}

func (repo *calendarRepository) UpdateEvent(_ context.Context, evt calendar.Event, _ ...core.DBExecutor) (calendar.Event, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.events[evt.ID]; !ok {
		return calendar.Event{}, calendar.ErrNotFound
	}
	repo.db.events[evt.ID] = evt
	return evt, nil
}

func (repo *calendarRepository) DeleteEvent(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.events[id]; !ok {
		return calendar.ErrNotFound
	}
	delete(repo.db.events, id)
	return nil
}
