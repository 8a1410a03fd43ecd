// Package submission tracks one form submission through
// idle → validating → submitting → success | error.
//
// The in-flight guard is advisory: it stops a second Begin on the same
// Machine, but the server remains the authority on duplicates.
package submission

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

type State string

const (
	Idle       State = "idle"
	Validating State = "validating"
	Submitting State = "submitting"
	Success    State = "success"
	Error      State = "error"
)

// FallbackMessage is used when a failure carries no message of its own.
const FallbackMessage = "Đã có lỗi xảy ra, vui lòng thử lại sau."

var (
	ErrInFlight          = errors.New("submission already in progress")
	ErrInvalidTransition = errors.New("invalid submission transition")
	ErrValidation        = errors.New("submission has field errors")
)

// Hook is called after every transition, outside the lock.
type Hook func(from, to State)

type Option func(*Machine)

func WithHook(h Hook) Option {
	return func(m *Machine) { m.hook = h }
}

type Machine struct {
	mu          sync.Mutex
	state       State
	fieldErrors map[string]string
	message     string
	hook        Hook
}

func New(opts ...Option) *Machine {
	m := &Machine{state: Idle}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsSubmitting is true while validating or submitting; forms disable their
// submit control on it.
func (m *Machine) IsSubmitting() bool {
	s := m.State()
	return s == Validating || s == Submitting
}

// FieldErrors returns a copy of the errors kept from the last validation.
func (m *Machine) FieldErrors() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.fieldErrors))
	for k, v := range m.fieldErrors {
		out[k] = v
	}
	return out
}

// Message is the failure message in the Error state.
func (m *Machine) Message() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.message
}

// Begin starts a submit attempt.
func (m *Machine) Begin() error {
	m.mu.Lock()
	from := m.state
	if from == Validating || from == Submitting {
		m.mu.Unlock()
		return ErrInFlight
	}
	m.state = Validating
	m.fieldErrors = nil
	m.message = ""
	m.mu.Unlock()
	m.notify(from, Validating)
	return nil
}

// Validated moves on to submitting when errs is empty and back to idle,
// keeping errs, otherwise. It reports whether submission may proceed.
func (m *Machine) Validated(errs map[string]string) (bool, error) {
	m.mu.Lock()
	if m.state != Validating {
		from := m.state
		m.mu.Unlock()
		return false, fmt.Errorf("%w: validated from %s", ErrInvalidTransition, from)
	}
	to := Submitting
	if len(errs) > 0 {
		to = Idle
		m.fieldErrors = make(map[string]string, len(errs))
		for k, v := range errs {
			m.fieldErrors[k] = v
		}
	}
	m.state = to
	m.mu.Unlock()
	m.notify(Validating, to)
	return to == Submitting, nil
}

func (m *Machine) Succeed() error {
	return m.finish(Success, "")
}

// Fail records a failed submission; an empty msg becomes FallbackMessage.
func (m *Machine) Fail(msg string) error {
	if msg == "" {
		msg = FallbackMessage
	}
	return m.finish(Error, msg)
}

func (m *Machine) finish(to State, msg string) error {
	m.mu.Lock()
	if m.state != Submitting {
		from := m.state
		m.mu.Unlock()
		return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, to, from)
	}
	m.state = to
	m.message = msg
	m.mu.Unlock()
	m.notify(Submitting, to)
	return nil
}

// Reset returns to idle and clears errors, e.g. after the form is closed.
func (m *Machine) Reset() {
	m.mu.Lock()
	from := m.state
	m.state = Idle
	m.fieldErrors = nil
	m.message = ""
	m.mu.Unlock()
	if from != Idle {
		m.notify(from, Idle)
	}
}

func (m *Machine) notify(from, to State) {
	if m.hook != nil {
		m.hook(from, to)
	}
}

// Run drives one full attempt: validate, then submit once. It never
// retries. submit receives ctx so the caller can cancel the request in
// flight.
func (m *Machine) Run(ctx context.Context, validate func() map[string]string, submit func(context.Context) error) error {
	if err := m.Begin(); err != nil {
		return err
	}
	ok, err := m.Validated(validate())
	if err != nil {
		return err
	}
	if !ok {
		return ErrValidation
	}
	if err := ctx.Err(); err != nil {
		_ = m.Fail(err.Error())
		return err
	}
	if err := submit(ctx); err != nil {
		_ = m.Fail(err.Error())
		return err
	}
	return m.Succeed()
}
