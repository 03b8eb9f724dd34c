package admin

import (
	"tourdesk/internal/dispatch"
	"tourdesk/internal/table"
)

// Definition is the declarative description of one admin list screen. One
// Controller serves every resource; only the Definition differs.
type Definition[T any, D any] struct {
	// Name keys the store and its events ("boats")
	Name string
	// Title is the screen heading ("Boats"), Noun the singular ("Boat")
	Title string
	Noun  string
	// Path is the collection endpoint relative to the API base ("/boats")
	Path    string
	Columns []table.Column[T]
	ID      func(T) uint64
	Label   func(T) string

	NewDraft func() D
	ToDraft  func(T) D

	// Detail renders the expandable panel under a row, nil when rows do not expand
	Detail  func(T) []string
	Actions []dispatch.Action

	PageSize int
	// ServerPaging sends page/per_page and lets the backend cut the window
	ServerPaging bool
	// ReadOnly screens have no create, edit or delete
	ReadOnly bool
}

func (d Definition[T, D]) label(item T) string {
	if d.Label != nil {
		return d.Label(item)
	}
	return d.Noun
}

func (d Definition[T, D]) action(name string) (dispatch.Action, bool) {
	for _, a := range d.Actions {
		if a.Name == name {
			return a, true
		}
	}
	return dispatch.Action{}, false
}
