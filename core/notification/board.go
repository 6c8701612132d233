package notification

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/escola/core"
)

// Types
const (
	TypeEnrollment = "enrollment"
	TypeGrade      = "grade"
	TypeCalendar   = "calendar"
)

var ErrNotFound = core.NewNotFoundError("notification not found")

type Notification struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Message    string `json:"message"`
	Type       string `json:"type"`
	ActionPath string `json:"action_path,omitempty"`
}

// SeedFunc builds the initial notifications of a principal.
type SeedFunc func(ctx context.Context, p core.Principal) ([]Notification, error)

// Board holds the notifications of every principal for the lifetime of the process.
// Each principal's list is seeded exactly once, on first access; afterwards it only shrinks.
type Board struct {
	mu     sync.Mutex
	seed   SeedFunc
	boards map[string][]Notification
}

func NewBoard(seed SeedFunc) *Board {
	return &Board{
		seed:   seed,
		boards: make(map[string][]Notification),
	}
}

// load returns the principal's list, seeding it if needed. b.mu must be held.
func (b *Board) load(ctx context.Context, p core.Principal) ([]Notification, error) {
	if items, ok := b.boards[p.ID]; ok {
		return items, nil
	}
	var items []Notification
	if b.seed != nil {
		var err error
		if items, err = b.seed(ctx, p); err != nil {
			return nil, errors.Wrap(err, "seeding notifications")
		}
	}
	if items == nil {
		items = []Notification{}
	}
	b.boards[p.ID] = items
	return items, nil
}

// List returns a copy of the principal's notifications.
func (b *Board) List(ctx context.Context, p core.Principal) ([]Notification, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	items, err := b.load(ctx, p)
	if err != nil {
		return nil, err
	}
	res := make([]Notification, len(items))
	copy(res, items)
	return res, nil
}

// Dismiss removes the notification from the principal's list.
func (b *Board) Dismiss(ctx context.Context, p core.Principal, id string) (Notification, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	items, err := b.load(ctx, p)
	if err != nil {
		return Notification{}, err
	}
	for i, n := range items {
		if n.ID == id {
			b.boards[p.ID] = append(items[:i:i], items[i+1:]...)
			return n, nil
		}
	}
	return Notification{}, ErrNotFound
}
