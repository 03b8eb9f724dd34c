package admin

import (
	"context"
	"errors"

	"tourdesk/internal/dispatch"
	"tourdesk/internal/form"
	"tourdesk/internal/store"
	"tourdesk/internal/table"
)

var (
	ErrNotFound = errors.New("no such row in the current list")
	ErrReadOnly = errors.New("this list is read only")
	ErrNoAction = errors.New("unknown action")
)

// Screen is the type-erased face of a Controller, so a console can hold
// screens for different record types side by side.
type Screen interface {
	Name() string
	Title() string
	Columns() []string
	Actions() []dispatch.Action
	ReadOnly() bool

	Refresh(ctx context.Context) error
	Render() Rendered
	Subscribe(fn func()) func()

	Sort(column string) (table.SortSpec, error)
	SortBy(column string, dir table.Direction) error
	GoToPage(ctx context.Context, index int) error
	SetPageSize(ctx context.Context, size int) error

	Select(id uint64) error
	SelectAll()
	ClearSelection()
	Selected() []uint64
	Expand(id uint64) (bool, error)

	Create(ctx context.Context, p Prompter) error
	Edit(ctx context.Context, id uint64, p Prompter) error
	Delete(ctx context.Context, id uint64) error
	DeleteSelected(ctx context.Context) (int, error)
	Do(ctx context.Context, action string, id uint64) error

	Close()
}

// Rendered is one derived frame of a screen, already turned into text cells
type Rendered struct {
	Title   string
	Status  store.Status
	Err     error
	Headers []string
	Rows    []RenderedRow
	Sort    table.SortSpec

	PageIndex   int
	PageCount   int
	PageSize    int
	Total       int
	ServerPaged bool
	AllSelected bool
	FetchedAt   string
}

type RenderedRow struct {
	ID       uint64
	Cells    []string
	Selected bool
	Expanded bool
	Detail   []string
}

// Prompter collects dialog input. Prompt is asked once per field with the
// current value and the last problem reported for that field, if any.
type Prompter interface {
	Prompt(ctx context.Context, field form.FieldSpec, current, problem string) (string, error)
	// Retry asks whether to correct the form after a failed submit
	Retry(ctx context.Context, err error) (bool, error)
}
