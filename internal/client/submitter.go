package client

import (
	"context"

	"github.com/bloodlink/bloodlink/internal/domain/event"
	"github.com/bloodlink/bloodlink/internal/domain/registration"
	"github.com/bloodlink/bloodlink/internal/domain/volunteer"
	"github.com/bloodlink/bloodlink/pkg/dates"
	"github.com/bloodlink/bloodlink/pkg/submission"
)

// Submitter runs one sign-up form through validate, submit and reconcile.
// The same validators run again on the server. Cancelling the context
// aborts the request in flight.
type Submitter struct {
	client  *Client
	machine *submission.Machine
	today   func() dates.Date
}

func NewSubmitter(c *Client, opts ...submission.Option) *Submitter {
	return &Submitter{client: c, machine: submission.New(opts...), today: dates.Today}
}

// Machine exposes the form state (state, field errors, failure message).
func (s *Submitter) Machine() *submission.Machine {
	return s.machine
}

// Register submits a donation registration for ev.
func (s *Submitter) Register(ctx context.Context, ev *event.Event, req registration.CreateRequest) (*registration.Registration, error) {
	var out *registration.Registration
	err := s.machine.Run(ctx,
		func() map[string]string { return registration.ValidateRequest(req, ev.EventDate, s.today()) },
		func(ctx context.Context) error {
			reg, err := s.client.RegisterForEvent(ctx, ev.ID, req)
			out = reg
			return err
		})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Volunteer submits a volunteer sign-up.
func (s *Submitter) Volunteer(ctx context.Context, req volunteer.CreateRequest) (*volunteer.Volunteer, error) {
	var out *volunteer.Volunteer
	err := s.machine.Run(ctx,
		func() map[string]string { return volunteer.ValidateRequest(req, s.today()) },
		func(ctx context.Context) error {
			v, err := s.client.Volunteer(ctx, req)
			out = v
			return err
		})
	if err != nil {
		return nil, err
	}
	return out, nil
}
