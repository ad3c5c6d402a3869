// Package store persists medicine records for the record API server.
//
// Both backends apply the same rules: name and an HH:MM taken time are required,
// names are unique ignoring case, a new record gets the highest id plus one,
// and List returns records ordered by taken time.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Tiliavir/medrem/internal/model"
)

var (
	// ErrNotFound is returned for an unknown id.
	ErrNotFound = errors.New("medicine not found")
	// ErrRequired is returned when name or taken time is missing.
	ErrRequired = errors.New("name and time are required")
	// ErrInvalidTime is returned when the taken time is not HH:MM.
	ErrInvalidTime = errors.New("time must be HH:MM")
)

// DuplicateError is returned when another record already has the name.
type DuplicateError struct {
	Name string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("medicine %q already exists", e.Name)
}

// Store is the persistence layer behind the record API.
type Store interface {
	List(ctx context.Context) ([]model.Medicine, error)
	Get(ctx context.Context, id int64) (model.Medicine, error)
	Add(ctx context.Context, f model.Fields) (model.Medicine, error)
	Update(ctx context.Context, id int64, f model.Fields) (model.Medicine, error)
	Remove(ctx context.Context, id int64) (model.Medicine, error)
	Close() error
}

// Open returns the store selected by driver ("json" or "sqlite") at path.
func Open(driver, path string) (Store, error) {
	switch driver {
	case "json", "":
		return NewJSONStore(path), nil
	case "sqlite":
		s, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q (want json or sqlite)", driver)
	}
}

// checkFields normalizes f and enforces the required fields.
func checkFields(f model.Fields) (model.Fields, error) {
	f = f.Normalize()
	var verr *model.ValidationError
	if err := f.Validate(); errors.As(err, &verr) {
		if verr.Missing() {
			return f, ErrRequired
		}
		return f, ErrInvalidTime
	}
	return f, nil
}

// findByName returns the record named name (ignoring case), skipping
// exceptID.
func findByName(records []model.Medicine, name string, exceptID int64) *model.Medicine {
	for i := range records {
		if records[i].ID != exceptID && strings.EqualFold(records[i].Name, name) {
			return &records[i]
		}
	}
	return nil
}

// findByID returns the index of record id, or -1.
func findByID(records []model.Medicine, id int64) int {
	for i := range records {
		if records[i].ID == id {
			return i
		}
	}
	return -1
}

// nextID returns the highest id plus one.
func nextID(records []model.Medicine) int64 {
	var max int64
	for _, r := range records {
		if r.ID > max {
			max = r.ID
		}
	}
	return max + 1
}

// sortByTakenTime orders records by taken time, keeping insertion order for
// equal times. HH:MM strings sort correctly as text.
func sortByTakenTime(records []model.Medicine) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].TakenTime < records[j].TakenTime
	})
}
