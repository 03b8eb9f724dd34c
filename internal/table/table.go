package table

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"tourdesk/internal/store"
)

var (
	ErrUnknownColumn = errors.New("unknown column")
	ErrNotSortable   = errors.New("column is not sortable")
	ErrNotVisible    = errors.New("row is not on the current page")
)

type Direction int

const (
	None Direction = iota
	Asc
	Desc
)

func (d Direction) String() string {
	switch d {
	case Asc:
		return "asc"
	case Desc:
		return "desc"
	default:
		return "none"
	}
}

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "asc", "":
		return Asc, nil
	case "desc":
		return Desc, nil
	case "none", "off":
		return None, nil
	default:
		return None, fmt.Errorf("unknown sort direction %q", s)
	}
}

// SortSpec is a view-only ordering; it is never sent to the backend
type SortSpec struct {
	Column    string
	Direction Direction
}

type Column[T any] struct {
	ID       string
	Header   string
	Value    func(T) any
	Format   func(T) string
	Sortable bool
}

// Text renders the cell for item
func (c Column[T]) Text(item T) string {
	if c.Format != nil {
		return c.Format(item)
	}
	if c.Value == nil {
		return ""
	}
	return FormatValue(c.Value(item))
}

type Row[T any] struct {
	ID       uint64
	Item     T
	Selected bool
	Expanded bool
}

// Page is the derived, render-ready window over a snapshot
type Page[T any] struct {
	Rows        []Row[T]
	Sort        SortSpec
	PageIndex   int
	PageCount   int
	PageSize    int
	Total       int
	ServerPaged bool
	AllSelected bool
	Version     uint64
}

// View owns the view state of one table: sort, page window, selection and
// expansion. It never owns records; every Derive starts from a snapshot.
type View[T any] struct {
	mu       sync.Mutex
	columns  []Column[T]
	idOf     func(T) uint64
	sort     SortSpec
	page     int
	pageSize int
	selected map[uint64]bool
	expanded map[uint64]bool
	version  uint64
	visible  []uint64
}

func NewView[T any](columns []Column[T], idOf func(T) uint64, pageSize int) *View[T] {
	if pageSize < 1 {
		pageSize = 10
	}
	return &View[T]{
		columns:  columns,
		idOf:     idOf,
		pageSize: pageSize,
		selected: map[uint64]bool{},
		expanded: map[uint64]bool{},
	}
}

func (v *View[T]) Columns() []Column[T] {
	return v.columns
}

func (v *View[T]) column(id string) (Column[T], bool) {
	for _, c := range v.columns {
		if c.ID == id {
			return c, true
		}
	}
	return Column[T]{}, false
}

// Derive applies sort, then selection/expansion flags, then the page window.
// A new snapshot version clears the selection. Expanded rows survive for as
// long as the snapshot still holds them.
func (v *View[T]) Derive(snap *store.Snapshot[T]) Page[T] {
	v.mu.Lock()
	defer v.mu.Unlock()

	if snap == nil {
		v.visible = nil
		v.selected = map[uint64]bool{}
		v.expanded = map[uint64]bool{}
		return Page[T]{Sort: v.sort, PageSize: v.pageSize, PageCount: 1}
	}
	if snap.Version != v.version {
		v.version = snap.Version
		v.selected = map[uint64]bool{}
	}

	items := v.sorted(snap.Items)
	if len(v.expanded) > 0 {
		known := make(map[uint64]bool, len(items))
		for _, item := range items {
			known[v.idOf(item)] = true
		}
		for id := range v.expanded {
			if !known[id] {
				delete(v.expanded, id)
			}
		}
	}

	out := Page[T]{Sort: v.sort, Version: snap.Version}
	var window []T
	if snap.Meta != nil {
		// the backend already paged; the page size is whatever it sent
		out.ServerPaged = true
		out.PageSize = len(items)
		out.PageIndex = max(snap.Meta.CurrentPage-1, 0)
		out.Total = snap.Meta.Total
		out.PageCount = 1
		if snap.Meta.PerPage > 0 {
			out.PageCount = max((snap.Meta.Total+snap.Meta.PerPage-1)/snap.Meta.PerPage, 1)
		}
		window = items
	} else {
		out.PageSize = v.pageSize
		out.Total = len(items)
		out.PageCount = max((len(items)+v.pageSize-1)/v.pageSize, 1)
		v.page = min(max(v.page, 0), out.PageCount-1)
		out.PageIndex = v.page
		start := v.page * v.pageSize
		end := min(start+v.pageSize, len(items))
		window = items[start:end]
	}

	v.visible = make([]uint64, 0, len(window))
	present := make(map[uint64]bool, len(window))
	for _, item := range window {
		id := v.idOf(item)
		v.visible = append(v.visible, id)
		present[id] = true
	}
	for id := range v.selected {
		if !present[id] {
			delete(v.selected, id)
		}
	}

	out.Rows = make([]Row[T], 0, len(window))
	for i, item := range window {
		id := v.visible[i]
		out.Rows = append(out.Rows, Row[T]{
			ID:       id,
			Item:     item,
			Selected: v.selected[id],
			Expanded: v.expanded[id],
		})
	}
	out.AllSelected = len(v.visible) > 0 && len(v.selected) == len(v.visible)
	return out
}

func (v *View[T]) sorted(items []T) []T {
	out := slices.Clone(items)
	if v.sort.Direction == None {
		return out
	}
	col, ok := v.column(v.sort.Column)
	if !ok || col.Value == nil {
		return out
	}
	desc := v.sort.Direction == Desc
	slices.SortStableFunc(out, func(a, b T) int {
		av, bv := col.Value(a), col.Value(b)
		an, bn := isEmpty(av), isEmpty(bv)
		switch {
		case an && bn:
			return 0
		case an:
			return 1
		case bn:
			return -1
		}
		c := compareValues(av, bv)
		if desc {
			return -c
		}
		return c
	})
	return out
}

// ToggleSort cycles a column asc -> desc -> none. Switching columns starts at asc.
func (v *View[T]) ToggleSort(columnID string) (SortSpec, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.checkSortable(columnID); err != nil {
		return v.sort, err
	}
	switch {
	case v.sort.Column != columnID || v.sort.Direction == None:
		v.sort = SortSpec{Column: columnID, Direction: Asc}
	case v.sort.Direction == Asc:
		v.sort.Direction = Desc
	default:
		v.sort = SortSpec{}
	}
	v.page = 0
	return v.sort, nil
}

func (v *View[T]) SetSort(columnID string, dir Direction) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if dir == None {
		v.sort = SortSpec{}
		return nil
	}
	if err := v.checkSortable(columnID); err != nil {
		return err
	}
	v.sort = SortSpec{Column: columnID, Direction: dir}
	v.page = 0
	return nil
}

func (v *View[T]) Sort() SortSpec {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sort
}

func (v *View[T]) checkSortable(columnID string) error {
	col, ok := v.column(columnID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, columnID)
	}
	if !col.Sortable || col.Value == nil {
		return fmt.Errorf("%w: %s", ErrNotSortable, columnID)
	}
	return nil
}

// SetPage moves the client-side window (0-based). Selection does not follow
// across pages.
func (v *View[T]) SetPage(index int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if index != v.page {
		v.selected = map[uint64]bool{}
	}
	v.page = max(index, 0)
}

func (v *View[T]) SetPageSize(size int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if size < 1 {
		return
	}
	v.pageSize = size
	v.page = 0
	v.selected = map[uint64]bool{}
}

func (v *View[T]) PageSize() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pageSize
}

// ToggleSelectAll selects exactly the rows of the current page, or clears
// the selection when they were all selected already.
func (v *View[T]) ToggleSelectAll() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if len(v.visible) > 0 && len(v.selected) == len(v.visible) {
		v.selected = map[uint64]bool{}
		return
	}
	v.selected = make(map[uint64]bool, len(v.visible))
	for _, id := range v.visible {
		v.selected[id] = true
	}
}

func (v *View[T]) ClearSelection() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selected = map[uint64]bool{}
}

func (v *View[T]) ToggleRow(id uint64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !slices.Contains(v.visible, id) {
		return fmt.Errorf("%w: %d", ErrNotVisible, id)
	}
	if v.selected[id] {
		delete(v.selected, id)
	} else {
		v.selected[id] = true
	}
	return nil
}

// ToggleExpanded flips a row's detail panel; it is independent of selection
func (v *View[T]) ToggleExpanded(id uint64) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !slices.Contains(v.visible, id) {
		return false, fmt.Errorf("%w: %d", ErrNotVisible, id)
	}
	v.expanded[id] = !v.expanded[id]
	if !v.expanded[id] {
		delete(v.expanded, id)
	}
	return v.expanded[id], nil
}

// Selected returns the selected ids in display order
func (v *View[T]) Selected() []uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := make([]uint64, 0, len(v.selected))
	for _, id := range v.visible {
		if v.selected[id] {
			out = append(out, id)
		}
	}
	return out
}

func (v *View[T]) Visible() []uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.visible)
}

// FormatValue renders a cell value for plain-text output
func FormatValue(val any) string {
	switch x := val.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "yes"
		}
		return "no"
	case float32:
		return fmt.Sprintf("%.2f", x)
	case float64:
		return fmt.Sprintf("%.2f", x)
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Format("2006-01-02 15:04")
	case *time.Time:
		if x == nil {
			return ""
		}
		return FormatValue(*x)
	case []string:
		return strings.Join(x, ", ")
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
