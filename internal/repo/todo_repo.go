package repo

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	dom "todolist/internal/domain"

	"github.com/pressly/goose/v3"
)

// ErrNoRecord is returned when an id does not resolve to a stored todo.
var ErrNoRecord = errors.New("repo: no record")

//go:embed migrations
var migrationsFS embed.FS

type TodoRepo interface {
	Create(ctx context.Context, t dom.Todo) (dom.Todo, error)
	GetByID(ctx context.Context, id string) (dom.Todo, error)
	List(ctx context.Context) ([]dom.Todo, error)
	Update(ctx context.Context, id string, patch dom.Patch) (dom.Todo, error)
	Delete(ctx context.Context, id string) error
}

// Migrate applies the embedded goose migrations for dialect ("postgres" or "sqlite3").
func Migrate(ctx context.Context, db *sql.DB, dialect string) error {
	var dir string
	switch dialect {
	case "postgres":
		dir = "migrations/postgres"
	case "sqlite3":
		dir = "migrations/sqlite"
	default:
		return fmt.Errorf("migrate: unsupported dialect %q", dialect)
	}

	goose.SetBaseFS(migrationsFS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}
