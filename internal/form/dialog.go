package form

import (
	"context"
	"errors"
	"reflect"
	"sync"

	"tourdesk/internal/validation"
)

var (
	ErrNotOpen = errors.New("dialog is not open")
	ErrBusy    = errors.New("dialog is submitting")
)

type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

type Phase int

const (
	PhaseClosed Phase = iota
	PhaseOpen
	PhaseValidating
	PhaseSubmitting
)

func (p Phase) String() string {
	switch p {
	case PhaseOpen:
		return "open"
	case PhaseValidating:
		return "validating"
	case PhaseSubmitting:
		return "submitting"
	default:
		return "closed"
	}
}

// Submission is what a valid dialog hands to its submit func
type Submission[D any] struct {
	Mode  Mode
	ID    uint64
	Draft D
}

// fieldErrorer is implemented by backend errors that carry per-field messages
type fieldErrorer interface {
	FieldErrors() map[string]string
}

// Dialog owns one pending draft. It moves
// closed -> open -> validating -> submitting -> closed, falling back to open
// with the error when validation or the submit func fails.
type Dialog[D any] struct {
	mu        sync.Mutex
	phase     Phase
	mode      Mode
	id        uint64
	draft     D
	newDraft  func() D
	validator *validation.Validator
	err       error
	fieldErrs map[string]string
}

func New[D any](newDraft func() D, v *validation.Validator) *Dialog[D] {
	if v == nil {
		v = validation.Default()
	}
	if newDraft == nil {
		newDraft = func() D {
			var zero D
			return zero
		}
	}
	return &Dialog[D]{newDraft: newDraft, validator: v}
}

func (d *Dialog[D]) OpenCreate() error {
	return d.open(ModeCreate, 0, d.newDraft())
}

// OpenEdit starts editing a copy of an existing record's editable fields
func (d *Dialog[D]) OpenEdit(id uint64, draft D) error {
	return d.open(ModeEdit, id, draft)
}

func (d *Dialog[D]) open(mode Mode, id uint64, draft D) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.phase == PhaseValidating || d.phase == PhaseSubmitting {
		return ErrBusy
	}
	d.phase = PhaseOpen
	d.mode = mode
	d.id = id
	d.draft = draft
	d.err = nil
	d.fieldErrs = nil
	return nil
}

// Cancel closes the dialog from any open state and drops the draft
func (d *Dialog[D]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reset()
}

func (d *Dialog[D]) reset() {
	var zero D
	d.phase = PhaseClosed
	d.draft = zero
	d.id = 0
	d.err = nil
	d.fieldErrs = nil
}

func (d *Dialog[D]) Phase() Phase {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.phase
}

func (d *Dialog[D]) IsOpen() bool {
	return d.Phase() != PhaseClosed
}

func (d *Dialog[D]) Mode() Mode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

// ID is the record being edited, 0 when creating
func (d *Dialog[D]) ID() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.id
}

func (d *Dialog[D]) Draft() D {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.draft
}

func (d *Dialog[D]) Fields() []FieldSpec {
	var zero D
	return Describe(zero)
}

// Set assigns raw input to the field with the given json name
func (d *Dialog[D]) Set(field, raw string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.phase != PhaseOpen {
		return ErrNotOpen
	}

	v := reflect.ValueOf(&d.draft).Elem()
	if v.Kind() != reflect.Struct {
		return ErrUnknownField
	}
	f, err := fieldByName(v, field)
	if err != nil {
		return err
	}
	if err := assign(f, raw); err != nil {
		return err
	}
	delete(d.fieldErrs, field)
	return nil
}

// Value renders the current value of a field for display
func (d *Dialog[D]) Value(field string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	v := reflect.ValueOf(&d.draft).Elem()
	if v.Kind() != reflect.Struct {
		return "", ErrUnknownField
	}
	f, err := fieldByName(v, field)
	if err != nil {
		return "", err
	}
	return render(f), nil
}

// Validate checks the draft without submitting it
func (d *Dialog[D]) Validate() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.phase != PhaseOpen {
		return ErrNotOpen
	}
	return d.validateLocked()
}

func (d *Dialog[D]) validateLocked() error {
	err := d.validator.Struct(d.draft)
	if err == nil {
		d.fieldErrs = nil
		return nil
	}
	var ve *validation.ValidationError
	if errors.As(err, &ve) {
		d.fieldErrs = ve.Map()
	}
	d.err = err
	return err
}

// Submit validates the draft and, only when it is valid, hands it to fn.
// On success the dialog closes; on any failure it stays open holding the error.
func (d *Dialog[D]) Submit(ctx context.Context, fn func(context.Context, Submission[D]) error) error {
	d.mu.Lock()
	switch d.phase {
	case PhaseClosed:
		d.mu.Unlock()
		return ErrNotOpen
	case PhaseValidating, PhaseSubmitting:
		d.mu.Unlock()
		return ErrBusy
	}

	d.phase = PhaseValidating
	d.err = nil
	if err := d.validateLocked(); err != nil {
		d.phase = PhaseOpen
		d.mu.Unlock()
		return err
	}

	d.phase = PhaseSubmitting
	sub := Submission[D]{Mode: d.mode, ID: d.id, Draft: d.draft}
	d.mu.Unlock()

	err := fn(ctx, sub)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.phase != PhaseSubmitting {
		// cancelled while the call was in flight
		return err
	}
	if err != nil {
		d.phase = PhaseOpen
		d.err = err
		var fe fieldErrorer
		if errors.As(err, &fe) {
			d.fieldErrs = fe.FieldErrors()
		}
		return err
	}
	d.reset()
	return nil
}

// Err is the last validation or submit error while the dialog is open
func (d *Dialog[D]) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// FieldErrors maps json field names to messages from the last failed attempt
func (d *Dialog[D]) FieldErrors() map[string]string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]string, len(d.fieldErrs))
	for k, v := range d.fieldErrs {
		out[k] = v
	}
	return out
}
