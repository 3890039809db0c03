package repo

import (
	"context"
	"errors"
	"fmt"

	dom "todolist/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

const pgTodoColumns = `id, title, description, priority, completed, due_date, created_at, updated_at`

// MigratePostgres runs the embedded migrations over a short-lived database/sql handle.
func MigratePostgres(ctx context.Context, dsn string) error {
	db, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return fmt.Errorf("goose open db: %w", err)
	}
	defer db.Close()

	return Migrate(ctx, db, "postgres")
}

type PGTodoRepo struct {
	db *pgxpool.Pool
}

func NewPGTodoRepo(db *pgxpool.Pool) *PGTodoRepo {
	return &PGTodoRepo{db: db}
}

func (r *PGTodoRepo) Create(ctx context.Context, t dom.Todo) (dom.Todo, error) {
	query := `
		INSERT INTO todos (id, title, description, priority, completed, due_date)
		VALUES ($1, $2, $3, $4, FALSE, $5)
		RETURNING ` + pgTodoColumns
	out, err := scanPGTodo(r.db.QueryRow(ctx, query,
		uuid.NewString(), t.Title, t.Description, string(t.Priority), t.DueDate))
	if err != nil {
		return dom.Todo{}, fmt.Errorf("pg insert todo: %w", err)
	}
	return out, nil
}

func (r *PGTodoRepo) GetByID(ctx context.Context, id string) (dom.Todo, error) {
	query := `SELECT ` + pgTodoColumns + ` FROM todos WHERE id = $1`
	t, err := scanPGTodo(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return dom.Todo{}, ErrNoRecord
	}
	return t, err
}

func (r *PGTodoRepo) List(ctx context.Context) ([]dom.Todo, error) {
	query := `SELECT ` + pgTodoColumns + ` FROM todos ORDER BY created_at ASC, id ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []dom.Todo{}
	for rows.Next() {
		t, err := scanPGTodo(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// Update reads the row under FOR UPDATE, applies the patch and writes every column back.
func (r *PGTodoRepo) Update(ctx context.Context, id string, patch dom.Patch) (dom.Todo, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return dom.Todo{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	existing, err := scanPGTodo(tx.QueryRow(ctx,
		`SELECT `+pgTodoColumns+` FROM todos WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return dom.Todo{}, ErrNoRecord
	}
	if err != nil {
		return dom.Todo{}, err
	}

	next := patch.Apply(existing)
	query := `
		UPDATE todos SET title = $2, description = $3, priority = $4, completed = $5,
			due_date = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + pgTodoColumns
	out, err := scanPGTodo(tx.QueryRow(ctx, query,
		id, next.Title, next.Description, string(next.Priority), next.Completed, next.DueDate))
	if err != nil {
		return dom.Todo{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return dom.Todo{}, err
	}
	return out, nil
}

func (r *PGTodoRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM todos WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRecord
	}
	return nil
}

func scanPGTodo(row pgx.Row) (dom.Todo, error) {
	var (
		t        dom.Todo
		priority string
	)
	err := row.Scan(&t.ID, &t.Title, &t.Description, &priority, &t.Completed, &t.DueDate,
		&t.CreatedAt, &t.UpdatedAt)
	t.Priority = dom.Priority(priority)
	return t, err
}
