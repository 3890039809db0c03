package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	dom "todolist/internal/domain"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	sqliteTodoColumns = `id, title, description, priority, completed, due_date, created_at, updated_at`
	sqliteTimeLayout  = "2006-01-02T15:04:05.000000000Z07:00"
)

// SQLiteTodoRepo stores todos in an embedded SQLite file. Timestamps are kept as
// fixed-width UTC text so they sort lexically.
type SQLiteTodoRepo struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (creating if needed) the database at path and migrates it.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// A single connection serializes writers and keeps in-memory databases alive.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	if err := Migrate(ctx, db, "sqlite3"); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func NewSQLiteTodoRepo(db *sql.DB) *SQLiteTodoRepo {
	return &SQLiteTodoRepo{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *SQLiteTodoRepo) Create(ctx context.Context, t dom.Todo) (dom.Todo, error) {
	now := r.now()
	out := dom.Todo{
		ID:          uuid.NewString(),
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		DueDate:     t.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO todos (`+sqliteTodoColumns+`)
		VALUES (?, ?, ?, ?, 0, ?, ?, ?)`,
		out.ID, out.Title, out.Description, string(out.Priority),
		formatNullTime(out.DueDate), formatTime(now), formatTime(now))
	if err != nil {
		return dom.Todo{}, fmt.Errorf("sqlite insert todo: %w", err)
	}
	return out, nil
}

func (r *SQLiteTodoRepo) GetByID(ctx context.Context, id string) (dom.Todo, error) {
	return r.get(ctx, r.db, id)
}

func (r *SQLiteTodoRepo) List(ctx context.Context) ([]dom.Todo, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sqliteTodoColumns+` FROM todos ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []dom.Todo{}
	for rows.Next() {
		t, err := scanSQLiteTodo(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *SQLiteTodoRepo) Update(ctx context.Context, id string, patch dom.Patch) (dom.Todo, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return dom.Todo{}, err
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := r.get(ctx, tx, id)
	if err != nil {
		return dom.Todo{}, err
	}
	next := patch.Apply(existing)
	next.UpdatedAt = r.now()

	_, err = tx.ExecContext(ctx, `
		UPDATE todos SET title = ?, description = ?, priority = ?, completed = ?,
			due_date = ?, updated_at = ?
		WHERE id = ?`,
		next.Title, next.Description, string(next.Priority), next.Completed,
		formatNullTime(next.DueDate), formatTime(next.UpdatedAt), id)
	if err != nil {
		return dom.Todo{}, err
	}
	if err := tx.Commit(); err != nil {
		return dom.Todo{}, err
	}
	return next, nil
}

func (r *SQLiteTodoRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoRecord
	}
	return nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *SQLiteTodoRepo) get(ctx context.Context, q queryRower, id string) (dom.Todo, error) {
	t, err := scanSQLiteTodo(q.QueryRowContext(ctx,
		`SELECT `+sqliteTodoColumns+` FROM todos WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return dom.Todo{}, ErrNoRecord
	}
	return t, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteTodo(row rowScanner) (dom.Todo, error) {
	var (
		t                    dom.Todo
		priority             string
		due                  sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &priority, &t.Completed, &due,
		&createdAt, &updatedAt); err != nil {
		return dom.Todo{}, err
	}
	t.Priority = dom.Priority(priority)

	var err error
	if t.CreatedAt, err = time.Parse(sqliteTimeLayout, createdAt); err != nil {
		return dom.Todo{}, fmt.Errorf("created_at: %w", err)
	}
	if t.UpdatedAt, err = time.Parse(sqliteTimeLayout, updatedAt); err != nil {
		return dom.Todo{}, fmt.Errorf("updated_at: %w", err)
	}
	if due.Valid {
		d, err := time.Parse(sqliteTimeLayout, due.String)
		if err != nil {
			return dom.Todo{}, fmt.Errorf("due_date: %w", err)
		}
		t.DueDate = &d
	}
	return t, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func formatNullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}
