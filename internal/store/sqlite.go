package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/Tiliavir/medrem/internal/model"
)

const schema = `CREATE TABLE IF NOT EXISTS medicines (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    taken_time TEXT NOT NULL,
    dosage TEXT NOT NULL DEFAULT '',
    uses TEXT NOT NULL DEFAULT '[]',
    side_effects TEXT NOT NULL DEFAULT '[]'
);`

// medicineRow is a record as stored in SQLite; list fields are JSON text.
type medicineRow struct {
	ID          int64  `db:"id"`
	Name        string `db:"name"`
	TakenTime   string `db:"taken_time"`
	Dosage      string `db:"dosage"`
	Uses        string `db:"uses"`
	SideEffects string `db:"side_effects"`
}

func (r medicineRow) toModel() (model.Medicine, error) {
	m := model.Medicine{ID: r.ID, Name: r.Name, TakenTime: r.TakenTime, Dosage: r.Dosage}
	if err := json.Unmarshal([]byte(r.Uses), &m.Uses); err != nil {
		return model.Medicine{}, fmt.Errorf("decoding uses of medicine %d: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.SideEffects), &m.SideEffects); err != nil {
		return model.Medicine{}, fmt.Errorf("decoding side effects of medicine %d: %w", r.ID, err)
	}
	m.Uses = model.CleanList(m.Uses)
	m.SideEffects = model.CleanList(m.SideEffects)
	return m, nil
}

func rowFrom(id int64, f model.Fields) (medicineRow, error) {
	uses, err := json.Marshal(model.CleanList(f.Uses))
	if err != nil {
		return medicineRow{}, err
	}
	se, err := json.Marshal(model.CleanList(f.SideEffects))
	if err != nil {
		return medicineRow{}, err
	}
	return medicineRow{
		ID:          id,
		Name:        f.Name,
		TakenTime:   f.TakenTime,
		Dosage:      f.Dosage,
		Uses:        string(uses),
		SideEffects: string(se),
	}, nil
}

// SQLiteStore keeps records in a SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// OpenSQLite opens (and if needed creates) the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("storage error creating directories: %w", err)
		}
	}
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// List returns all records ordered by taken time.
func (s *SQLiteStore) List(ctx context.Context) ([]model.Medicine, error) {
	return s.selectAll(ctx, s.db, `SELECT * FROM medicines ORDER BY taken_time, id`)
}

func (s *SQLiteStore) selectAll(ctx context.Context, q sqlx.QueryerContext, query string) ([]model.Medicine, error) {
	var rows []medicineRow
	if err := sqlx.SelectContext(ctx, q, &rows, query); err != nil {
		return nil, fmt.Errorf("listing medicines: %w", err)
	}
	out := make([]model.Medicine, 0, len(rows))
	for _, r := range rows {
		m, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// Get returns record id.
func (s *SQLiteStore) Get(ctx context.Context, id int64) (model.Medicine, error) {
	var row medicineRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM medicines WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Medicine{}, ErrNotFound
	}
	if err != nil {
		return model.Medicine{}, fmt.Errorf("loading medicine %d: %w", id, err)
	}
	return row.toModel()
}

// Add inserts a new record with the next free id.
func (s *SQLiteStore) Add(ctx context.Context, f model.Fields) (model.Medicine, error) {
	f, err := checkFields(f)
	if err != nil {
		return model.Medicine{}, err
	}

	var created model.Medicine
	err = s.inTx(ctx, func(tx *sqlx.Tx) error {
		existing, err := s.selectAll(ctx, tx, `SELECT * FROM medicines`)
		if err != nil {
			return err
		}
		if findByName(existing, f.Name, 0) != nil {
			return &DuplicateError{Name: f.Name}
		}
		row, err := rowFrom(nextID(existing), f)
		if err != nil {
			return err
		}
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO medicines (id, name, taken_time, dosage, uses, side_effects)
			VALUES (:id, :name, :taken_time, :dosage, :uses, :side_effects)`, row); err != nil {
			return fmt.Errorf("inserting medicine: %w", err)
		}
		created, err = row.toModel()
		return err
	})
	return created, err
}

// Update replaces the editable fields of record id.
func (s *SQLiteStore) Update(ctx context.Context, id int64, f model.Fields) (model.Medicine, error) {
	f, err := checkFields(f)
	if err != nil {
		return model.Medicine{}, err
	}

	var updated model.Medicine
	err = s.inTx(ctx, func(tx *sqlx.Tx) error {
		existing, err := s.selectAll(ctx, tx, `SELECT * FROM medicines`)
		if err != nil {
			return err
		}
		if findByID(existing, id) < 0 {
			return ErrNotFound
		}
		if findByName(existing, f.Name, id) != nil {
			return &DuplicateError{Name: f.Name}
		}
		row, err := rowFrom(id, f)
		if err != nil {
			return err
		}
		if _, err := tx.NamedExecContext(ctx, `UPDATE medicines SET name = :name, taken_time = :taken_time,
			dosage = :dosage, uses = :uses, side_effects = :side_effects WHERE id = :id`, row); err != nil {
			return fmt.Errorf("updating medicine %d: %w", id, err)
		}
		updated, err = row.toModel()
		return err
	})
	return updated, err
}

// Remove deletes record id and returns it.
func (s *SQLiteStore) Remove(ctx context.Context, id int64) (model.Medicine, error) {
	var removed model.Medicine
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var row medicineRow
		err := tx.GetContext(ctx, &row, `SELECT * FROM medicines WHERE id = ?`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("loading medicine %d: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM medicines WHERE id = ?`, id); err != nil {
			return fmt.Errorf("deleting medicine %d: %w", id, err)
		}
		removed, err = row.toModel()
		return err
	})
	return removed, err
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
