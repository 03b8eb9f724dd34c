package admin

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"tourdesk/internal/dispatch"
	"tourdesk/internal/events"
	"tourdesk/internal/form"
	"tourdesk/internal/store"
	"tourdesk/internal/table"
	console "tourdesk/internal/utils/logger"
	"tourdesk/internal/validation"
)

var log = console.New("ADMIN")

// maxAttempts bounds how often one dialog is re-prompted after failed submits
const maxAttempts = 5

type Deps struct {
	Confirm   dispatch.Confirmer
	Notify    dispatch.Notifier
	Bus       *events.EventBus
	Validator *validation.Validator
	// KeepStaleOnError keeps the last list visible behind a failed refresh
	KeepStaleOnError bool
}

// Controller wires store, table view, dispatcher and dialog for one resource
type Controller[T any, D any] struct {
	def      Definition[T, D]
	store    *store.Store[T]
	view     *table.View[T]
	dispatch *dispatch.Dispatcher
	dialog   *form.Dialog[D]
}

func New[T any, D any](def Definition[T, D], backend store.Backend[T], deps Deps) *Controller[T, D] {
	opts := []store.Option{}
	if deps.Bus != nil {
		opts = append(opts, store.WithBus(deps.Bus))
	}
	if deps.KeepStaleOnError {
		opts = append(opts, store.WithKeepStaleOnError())
	}
	if def.PageSize < 1 {
		def.PageSize = 10
	}
	if def.ServerPaging {
		opts = append(opts, store.WithQuery(pageQuery(1, def.PageSize)))
	}

	s := store.New(def.Name, backend, opts...)
	return &Controller[T, D]{
		def:      def,
		store:    s,
		view:     table.NewView(def.Columns, def.ID, def.PageSize),
		dispatch: dispatch.New(def.Noun, s, deps.Confirm, deps.Notify),
		dialog:   form.New(def.NewDraft, deps.Validator),
	}
}

func pageQuery(page, size int) url.Values {
	return url.Values{
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(size)},
	}
}

func (c *Controller[T, D]) Name() string {
	return c.def.Name
}

func (c *Controller[T, D]) Title() string {
	return c.def.Title
}

func (c *Controller[T, D]) Columns() []string {
	out := make([]string, 0, len(c.def.Columns))
	for _, col := range c.def.Columns {
		out = append(out, col.ID)
	}
	return out
}

func (c *Controller[T, D]) Actions() []dispatch.Action {
	return c.def.Actions
}

func (c *Controller[T, D]) ReadOnly() bool {
	return c.def.ReadOnly
}

func (c *Controller[T, D]) Store() *store.Store[T] {
	return c.store
}

func (c *Controller[T, D]) Dialog() *form.Dialog[D] {
	return c.dialog
}

// Refresh reloads the list. A refresh overtaken by a newer one is not an error.
func (c *Controller[T, D]) Refresh(ctx context.Context) error {
	err := c.store.Refresh(ctx)
	if errors.Is(err, store.ErrSuperseded) {
		return nil
	}
	return err
}

func (c *Controller[T, D]) Subscribe(fn func()) func() {
	return c.store.Subscribe(func(store.State[T]) { fn() })
}

// Render derives the current frame from the latest snapshot
func (c *Controller[T, D]) Render() Rendered {
	state := c.store.State()
	page := c.view.Derive(state.Snapshot)

	out := Rendered{
		Title:       c.def.Title,
		Status:      state.Status,
		Err:         state.Err,
		Sort:        page.Sort,
		PageIndex:   page.PageIndex,
		PageCount:   page.PageCount,
		PageSize:    page.PageSize,
		Total:       page.Total,
		ServerPaged: page.ServerPaged,
		AllSelected: page.AllSelected,
	}
	if state.Snapshot != nil {
		out.FetchedAt = state.Snapshot.FetchedAt.Format("15:04:05")
	}
	for _, col := range c.def.Columns {
		out.Headers = append(out.Headers, col.Header)
	}
	for _, row := range page.Rows {
		r := RenderedRow{ID: row.ID, Selected: row.Selected, Expanded: row.Expanded}
		for _, col := range c.def.Columns {
			r.Cells = append(r.Cells, col.Text(row.Item))
		}
		if row.Expanded && c.def.Detail != nil {
			r.Detail = c.def.Detail(row.Item)
		}
		out.Rows = append(out.Rows, r)
	}
	return out
}

func (c *Controller[T, D]) Sort(column string) (table.SortSpec, error) {
	return c.view.ToggleSort(column)
}

func (c *Controller[T, D]) SortBy(column string, dir table.Direction) error {
	return c.view.SetSort(column, dir)
}

// GoToPage moves to a 0-based page. Server-paged screens refetch that page.
func (c *Controller[T, D]) GoToPage(ctx context.Context, index int) error {
	if index < 0 {
		return fmt.Errorf("page %d out of range", index+1)
	}
	if !c.def.ServerPaging {
		c.view.SetPage(index)
		return nil
	}
	q := c.store.Query()
	size := c.def.PageSize
	if n, err := strconv.Atoi(q.Get("per_page")); err == nil && n > 0 {
		size = n
	}
	c.store.SetQuery(pageQuery(index+1, size))
	return c.Refresh(ctx)
}

func (c *Controller[T, D]) SetPageSize(ctx context.Context, size int) error {
	if size < 1 {
		return fmt.Errorf("page size must be at least 1")
	}
	c.view.SetPageSize(size)
	if !c.def.ServerPaging {
		return nil
	}
	c.store.SetQuery(pageQuery(1, size))
	return c.Refresh(ctx)
}

// sync brings the view up to the store's snapshot so selection state never
// outlives the snapshot it was made against.
func (c *Controller[T, D]) sync() {
	c.view.Derive(c.store.State().Snapshot)
}

func (c *Controller[T, D]) Select(id uint64) error {
	c.sync()
	return c.view.ToggleRow(id)
}

func (c *Controller[T, D]) SelectAll() {
	c.sync()
	c.view.ToggleSelectAll()
}

func (c *Controller[T, D]) ClearSelection() {
	c.view.ClearSelection()
}

func (c *Controller[T, D]) Selected() []uint64 {
	c.sync()
	return c.view.Selected()
}

func (c *Controller[T, D]) Expand(id uint64) (bool, error) {
	if c.def.Detail == nil {
		return false, fmt.Errorf("%s rows have no details", c.def.Noun)
	}
	c.sync()
	return c.view.ToggleExpanded(id)
}

// find looks a record up in the current snapshot only
func (c *Controller[T, D]) find(id uint64) (T, error) {
	var zero T
	snap := c.store.State().Snapshot
	if snap == nil {
		return zero, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	for _, item := range snap.Items {
		if c.def.ID(item) == id {
			return item, nil
		}
	}
	return zero, fmt.Errorf("%w: %d", ErrNotFound, id)
}

func (c *Controller[T, D]) Delete(ctx context.Context, id uint64) error {
	if c.def.ReadOnly {
		return ErrReadOnly
	}
	item, err := c.find(id)
	if err != nil {
		return err
	}
	_, err = c.dispatch.OnDelete(ctx, id, c.def.label(item))
	return err
}

// DeleteSelected removes every selected row after a single confirmation
func (c *Controller[T, D]) DeleteSelected(ctx context.Context) (int, error) {
	if c.def.ReadOnly {
		return 0, ErrReadOnly
	}
	return c.dispatch.OnDeleteMany(ctx, c.Selected())
}

func (c *Controller[T, D]) Do(ctx context.Context, name string, id uint64) error {
	action, ok := c.def.action(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoAction, name)
	}
	if _, err := c.find(id); err != nil {
		return err
	}
	_, err := c.dispatch.OnAction(ctx, id, action)
	return err
}

func (c *Controller[T, D]) Create(ctx context.Context, p Prompter) error {
	if c.def.ReadOnly {
		return ErrReadOnly
	}
	if err := c.dialog.OpenCreate(); err != nil {
		return err
	}
	return c.run(ctx, p)
}

// Edit opens the dialog prefilled from the row as it is in the current snapshot
func (c *Controller[T, D]) Edit(ctx context.Context, id uint64, p Prompter) error {
	if c.def.ReadOnly {
		return ErrReadOnly
	}
	item, err := c.find(id)
	if err != nil {
		return err
	}
	if err := c.dialog.OpenEdit(id, c.def.ToDraft(item)); err != nil {
		return err
	}
	return c.run(ctx, p)
}

// run prompts for the fields and submits until the dialog closes, the user
// gives up, or maxAttempts is reached.
func (c *Controller[T, D]) run(ctx context.Context, p Prompter) error {
	fields := c.dialog.Fields()
	only := map[string]string(nil)

	for attempt := 1; ; attempt++ {
		if err := c.fill(ctx, p, fields, only); err != nil {
			c.dialog.Cancel()
			return err
		}

		err := dispatch.OnSubmit(ctx, c.dispatch, c.dialog)
		if err == nil {
			return nil
		}
		if attempt >= maxAttempts {
			c.dialog.Cancel()
			return err
		}
		retry, perr := p.Retry(ctx, err)
		if perr != nil || !retry {
			c.dialog.Cancel()
			if perr != nil {
				return perr
			}
			return err
		}
		only = c.dialog.FieldErrors()
		if len(only) == 0 {
			only = nil
		}
	}
}

// fill prompts for each field, or only the failing ones when problems is set
func (c *Controller[T, D]) fill(ctx context.Context, p Prompter, fields []form.FieldSpec, problems map[string]string) error {
	for _, spec := range fields {
		problem, failing := problems[spec.Name]
		if problems != nil && !failing {
			continue
		}
		for {
			current, err := c.dialog.Value(spec.Name)
			if err != nil {
				return err
			}
			raw, err := p.Prompt(ctx, spec, current, problem)
			if err != nil {
				return err
			}
			if err := c.dialog.Set(spec.Name, raw); err != nil {
				log.Debug("Rejected input for %s: %v", spec.Name, err)
				problem = err.Error()
				continue
			}
			break
		}
	}
	return nil
}

func (c *Controller[T, D]) Close() {
	c.dialog.Cancel()
	c.store.Close()
}

var _ Screen = (*Controller[struct{}, struct{}])(nil)
