package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"todolist/internal/cache"
	dom "todolist/internal/domain"
	"todolist/internal/repo"

	"golang.org/x/sync/singleflight"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
)

// CreateInput carries the fields accepted on creation.
type CreateInput struct {
	Title       string
	Description string
	Priority    dom.Priority
	DueDate     *time.Time
}

type TodoService struct {
	repo  repo.TodoRepo
	cache *cache.TodoCache
	sf    singleflight.Group
	log   *slog.Logger
}

// NewTodoService creates a TodoService. If c is nil, caching is disabled.
func NewTodoService(r repo.TodoRepo, c *cache.TodoCache, log *slog.Logger) *TodoService {
	if log == nil {
		log = slog.Default()
	}
	return &TodoService{repo: r, cache: c, log: log}
}

func (s *TodoService) Create(ctx context.Context, in CreateInput) (dom.Todo, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return dom.Todo{}, fmt.Errorf("%w: title is required", ErrValidation)
	}
	priority, err := normalizePriority(in.Priority)
	if err != nil {
		return dom.Todo{}, err
	}

	t, err := s.repo.Create(ctx, dom.Todo{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Priority:    priority,
		DueDate:     in.DueDate,
	})
	if err != nil {
		return dom.Todo{}, err
	}
	s.invalidateCache(ctx)
	return t, nil
}

// List serves the cached list of the current generation when there is one.
// A write bumps the generation, so a refill racing with it is never read back.
func (s *TodoService) List(ctx context.Context) ([]dom.Todo, error) {
	if s.cache == nil {
		return s.repo.List(ctx)
	}
	gen, err := s.cache.Generation(ctx)
	if err != nil {
		s.log.Warn("todo cache generation read failed", "error", err)
		return s.repo.List(ctx)
	}
	v, err, _ := s.sf.Do(cache.ListKey(gen), func() (interface{}, error) {
		if list, err := s.cache.GetList(ctx, gen); err == nil && list != nil {
			return list, nil
		} else if err != nil {
			s.log.Warn("todo cache read failed", "error", err)
		}
		list, err := s.repo.List(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.cache.SetList(ctx, gen, list); err != nil {
			s.log.Warn("todo cache write failed", "error", err)
		}
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]dom.Todo), nil
}

func (s *TodoService) GetByID(ctx context.Context, id string) (dom.Todo, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dom.Todo{}, mapRepoErr(err)
	}
	return t, nil
}

// Update applies only the fields present in patch. Title is trimmed but not
// re-validated; an unknown priority is rejected.
func (s *TodoService) Update(ctx context.Context, id string, patch dom.Patch) (dom.Todo, error) {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		patch.Title = &title
	}
	if patch.Description != nil {
		desc := strings.TrimSpace(*patch.Description)
		patch.Description = &desc
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return dom.Todo{}, fmt.Errorf("%w: priority must be low, medium or high", ErrValidation)
	}

	// An empty patch still has to report unknown ids.
	if patch.Empty() {
		return s.GetByID(ctx, id)
	}

	t, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return dom.Todo{}, mapRepoErr(err)
	}
	s.invalidateCache(ctx)
	return t, nil
}

func (s *TodoService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoErr(err)
	}
	s.invalidateCache(ctx)
	return nil
}

func (s *TodoService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn("todo cache invalidate failed", "error", err)
	}
}

func normalizePriority(p dom.Priority) (dom.Priority, error) {
	p = dom.Priority(strings.ToLower(strings.TrimSpace(string(p))))
	if p == "" {
		return dom.DefaultPriority, nil
	}
	if !p.Valid() {
		return "", fmt.Errorf("%w: priority must be low, medium or high", ErrValidation)
	}
	return p, nil
}

func mapRepoErr(err error) error {
	if errors.Is(err, repo.ErrNoRecord) {
		return ErrNotFound
	}
	return err
}
