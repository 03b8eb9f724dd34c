package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"tourdesk/internal/client"
	"tourdesk/internal/form"
	"tourdesk/internal/store"
	console "tourdesk/internal/utils/logger"
	"tourdesk/internal/validation"
)

var log = console.New("DISPATCH")

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is a transient message for the user. Nothing is retried
// after one is shown.
type Notification struct {
	Level   Level
	Title   string
	Message string
}

type Notifier interface {
	Notify(n Notification)
}

type NotifierFunc func(n Notification)

func (f NotifierFunc) Notify(n Notification) {
	f(n)
}

// Confirmer asks a blocking yes/no question
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// Mutator is the write side of a list store. *store.Store satisfies it.
type Mutator interface {
	Create(ctx context.Context, draft interface{}) error
	Update(ctx context.Context, id uint64, draft interface{}) error
	Remove(ctx context.Context, id uint64) error
	Action(ctx context.Context, id uint64, name string) error
}

// Action describes a custom row action. A non-empty Confirm prompt makes it
// ask before running.
type Action struct {
	Name    string
	Label   string
	Confirm string
}

// Dispatcher turns user intents into store calls and every outcome into a
// notification.
type Dispatcher struct {
	noun    string
	mutator Mutator
	confirm Confirmer
	notify  Notifier
}

// New builds a dispatcher for one resource. noun is the singular display name ("Boat").
func New(noun string, m Mutator, c Confirmer, n Notifier) *Dispatcher {
	if n == nil {
		n = NotifierFunc(func(Notification) {})
	}
	return &Dispatcher{noun: noun, mutator: m, confirm: c, notify: n}
}

// OnDelete asks for confirmation and removes the record. A declined
// confirmation is a no-op, reported as done=false with a nil error.
func (d *Dispatcher) OnDelete(ctx context.Context, id uint64, label string) (bool, error) {
	prompt := fmt.Sprintf("Delete %s %q?", strings.ToLower(d.noun), label)
	ok, err := d.ask(ctx, prompt)
	if err != nil || !ok {
		return false, err
	}

	err = d.mutator.Remove(ctx, id)
	if !d.report(err, "delete", "deleted") {
		return false, err
	}
	return true, nil
}

// OnDeleteMany confirms once and removes each id in turn, stopping at the
// first failure. It returns how many were removed.
func (d *Dispatcher) OnDeleteMany(ctx context.Context, ids []uint64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if len(ids) == 1 {
		done, err := d.OnDelete(ctx, ids[0], fmt.Sprintf("#%d", ids[0]))
		if done {
			return 1, err
		}
		return 0, err
	}

	ok, err := d.ask(ctx, fmt.Sprintf("Delete %d %s records?", len(ids), strings.ToLower(d.noun)))
	if err != nil || !ok {
		return 0, err
	}

	removed := 0
	for _, id := range ids {
		err := d.mutator.Remove(ctx, id)
		var re *store.RefreshError
		if err != nil && !errors.As(err, &re) {
			d.fail("delete", err)
			return removed, err
		}
		removed++
	}
	d.notify.Notify(Notification{Level: LevelSuccess, Title: fmt.Sprintf("%d %s records deleted", removed, strings.ToLower(d.noun))})
	return removed, nil
}

// OnAction runs a custom row action, confirming first when the action asks for it
func (d *Dispatcher) OnAction(ctx context.Context, id uint64, action Action) (bool, error) {
	if action.Confirm != "" {
		ok, err := d.ask(ctx, action.Confirm)
		if err != nil || !ok {
			return false, err
		}
	}

	label := action.Label
	if label == "" {
		label = action.Name
	}
	err := d.mutator.Action(ctx, id, action.Name)
	if !d.reportAction(err, label) {
		return false, err
	}
	return true, nil
}

// OnSubmit validates the dialog's draft and creates or updates depending on
// whether it edits an existing record. When only the reload after a
// successful save fails the dialog still closes; the failure is notified.
func OnSubmit[D any](ctx context.Context, d *Dispatcher, dialog *form.Dialog[D]) error {
	var verb, past string
	err := dialog.Submit(ctx, func(ctx context.Context, sub form.Submission[D]) error {
		var err error
		if sub.Mode == form.ModeEdit {
			verb, past = "update", "updated"
			err = d.mutator.Update(ctx, sub.ID, sub.Draft)
		} else {
			verb, past = "create", "created"
			err = d.mutator.Create(ctx, sub.Draft)
		}
		var re *store.RefreshError
		if errors.As(err, &re) {
			d.notify.Notify(Notification{
				Level:   LevelWarning,
				Title:   fmt.Sprintf("%s %s", d.noun, past),
				Message: Describe(re),
			})
			return nil
		}
		if err == nil {
			d.notify.Notify(Notification{Level: LevelSuccess, Title: fmt.Sprintf("%s %s", d.noun, past)})
		}
		return err
	})
	if err == nil {
		return nil
	}

	var ve *validation.ValidationError
	if errors.As(err, &ve) {
		d.notify.Notify(Notification{
			Level:   LevelError,
			Title:   "Please fix the form",
			Message: ve.Message,
		})
		return err
	}
	if errors.Is(err, form.ErrNotOpen) || errors.Is(err, form.ErrBusy) {
		return err
	}
	d.fail(verb, err)
	return err
}

func (d *Dispatcher) ask(ctx context.Context, prompt string) (bool, error) {
	if d.confirm == nil {
		return true, nil
	}
	ok, err := d.confirm.Confirm(ctx, prompt)
	if err != nil {
		d.notify.Notify(Notification{Level: LevelError, Title: "Confirmation failed", Message: err.Error()})
		return false, err
	}
	if !ok {
		log.Debug("Declined: %s", prompt)
	}
	return ok, nil
}

// report notifies the outcome of a mutation and reports whether it saved
func (d *Dispatcher) report(err error, verb, past string) bool {
	var re *store.RefreshError
	switch {
	case err == nil:
		d.notify.Notify(Notification{Level: LevelSuccess, Title: fmt.Sprintf("%s %s", d.noun, past)})
		return true
	case errors.As(err, &re):
		d.notify.Notify(Notification{Level: LevelWarning, Title: fmt.Sprintf("%s %s", d.noun, past), Message: Describe(re)})
		return true
	default:
		d.fail(verb, err)
		return false
	}
}

func (d *Dispatcher) reportAction(err error, label string) bool {
	var re *store.RefreshError
	switch {
	case err == nil:
		d.notify.Notify(Notification{Level: LevelSuccess, Title: fmt.Sprintf("%s: %s done", d.noun, label)})
		return true
	case errors.As(err, &re):
		d.notify.Notify(Notification{Level: LevelWarning, Title: fmt.Sprintf("%s: %s done", d.noun, label), Message: Describe(re)})
		return true
	default:
		d.notify.Notify(Notification{
			Level:   LevelError,
			Title:   fmt.Sprintf("Could not %s %s", label, strings.ToLower(d.noun)),
			Message: Describe(err),
		})
		return false
	}
}

func (d *Dispatcher) fail(verb string, err error) {
	log.Warn("%s %s failed: %v", verb, d.noun, err)
	d.notify.Notify(Notification{
		Level:   LevelError,
		Title:   fmt.Sprintf("Could not %s %s", verb, strings.ToLower(d.noun)),
		Message: Describe(err),
	})
}

// Describe renders an error for a notification body
func Describe(err error) string {
	var (
		re *client.RequestError
		te *client.TransportError
		ve *validation.ValidationError
		fe *store.RefreshError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &fe):
		return "Saved, but the list could not be reloaded: " + Describe(fe.Err)
	case errors.As(err, &ve):
		return ve.Message
	case errors.As(err, &re):
		if fields := re.FieldErrors(); len(fields) > 0 {
			parts := make([]string, 0, len(fields))
			for field, msg := range fields {
				parts = append(parts, field+": "+msg)
			}
			sort.Strings(parts)
			return re.Message + " (" + strings.Join(parts, "; ") + ")"
		}
		return re.Message
	case errors.As(err, &te):
		if te.Timeout() {
			return "The server did not answer in time"
		}
		if errors.Is(err, context.Canceled) {
			return "Request cancelled"
		}
		return "Could not reach the server: " + te.Err.Error()
	case errors.Is(err, store.ErrClosed):
		return "This screen was closed"
	default:
		return err.Error()
	}
}
