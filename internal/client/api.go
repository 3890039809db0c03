package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("todo not found")
)

// TransportError is a network failure or a server-side (5xx) response.
type TransportError struct {
	Op         string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: server returned %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

type Todo struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	Completed   bool       `json:"completed"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// NewTodo is the create request body.
type NewTodo struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Priority    string `json:"priority,omitempty"`
	DueDate     string `json:"dueDate,omitempty"` // YYYY-MM-DD or RFC3339
}

// Changes is a partial update; nil fields are left out of the request.
type Changes struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
	DueDate     *string `json:"dueDate,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
}

// API talks to the todo collection endpoint, e.g. http://localhost:5000/api/todos.
type API struct {
	http    *resty.Client
	baseURL string
}

func NewAPI(baseURL string, timeout time.Duration) *API {
	c := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &API{http: c, baseURL: strings.TrimRight(baseURL, "/")}
}

func (a *API) itemURL(id string) string {
	return a.baseURL + "/" + id
}

func (a *API) List(ctx context.Context) ([]Todo, error) {
	var out []Todo
	var body errorBody
	resp, err := a.http.R().SetContext(ctx).SetResult(&out).SetError(&body).Get(a.baseURL)
	if err := check("list todos", resp, err, body); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Todo{}
	}
	return out, nil
}

func (a *API) Create(ctx context.Context, in NewTodo) (Todo, error) {
	var out Todo
	var body errorBody
	resp, err := a.http.R().SetContext(ctx).SetBody(in).SetResult(&out).SetError(&body).Post(a.baseURL)
	if err := check("create todo", resp, err, body); err != nil {
		return Todo{}, err
	}
	return out, nil
}

func (a *API) Update(ctx context.Context, id string, ch Changes) (Todo, error) {
	var out Todo
	var body errorBody
	resp, err := a.http.R().SetContext(ctx).SetBody(ch).SetResult(&out).SetError(&body).Put(a.itemURL(id))
	if err := check("update todo", resp, err, body); err != nil {
		return Todo{}, err
	}
	return out, nil
}

func (a *API) Delete(ctx context.Context, id string) error {
	var body errorBody
	resp, err := a.http.R().SetContext(ctx).SetError(&body).Delete(a.itemURL(id))
	return check("delete todo", resp, err, body)
}

// check maps a resty outcome onto the client error taxonomy.
func check(op string, resp *resty.Response, err error, body errorBody) error {
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	if !resp.IsError() {
		return nil
	}
	msg := body.Error
	if msg == "" {
		msg = http.StatusText(resp.StatusCode())
	}
	switch resp.StatusCode() {
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrValidation, msg)
	case http.StatusNotFound:
		return ErrNotFound
	}
	return &TransportError{Op: op, StatusCode: resp.StatusCode(), Err: errors.New(msg)}
}

// Message renders err for the transient error line.
func Message(err error) string {
	var te *TransportError
	switch {
	case errors.Is(err, ErrNotFound):
		return "Todo not found"
	case errors.Is(err, ErrValidation):
		return strings.TrimPrefix(err.Error(), ErrValidation.Error()+": ")
	case errors.As(err, &te):
		if te.StatusCode != 0 {
			return te.Err.Error()
		}
		return "cannot reach server"
	}
	return err.Error()
}
