package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/bloodlink/bloodlink/internal/client"
	"github.com/bloodlink/bloodlink/internal/domain/registration"
	"github.com/bloodlink/bloodlink/internal/domain/volunteer"
	"github.com/bloodlink/bloodlink/pkg/dates"
	"github.com/bloodlink/bloodlink/pkg/submission"
)

type remoteFlags struct {
	server   string
	email    string
	password string
	timeout  time.Duration
}

func (f *remoteFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.server, "server", "http://localhost:8000", "API base URL")
	cmd.Flags().StringVar(&f.email, "email", "", "member email")
	cmd.Flags().StringVar(&f.password, "password", os.Getenv("BLOODLINK_PASSWORD"), "member password")
	cmd.Flags().DurationVar(&f.timeout, "timeout", client.DefaultTimeout, "request timeout")
	_ = cmd.MarkFlagRequired("email")
}

// login returns a submitter that reports its state changes on stderr.
func (f *remoteFlags) login(ctx context.Context, cmd *cobra.Command) (*client.Submitter, *client.Client, error) {
	c := client.New(f.server, client.WithTimeout(f.timeout))
	if _, err := c.Login(ctx, f.email, f.password); err != nil {
		return nil, nil, fmt.Errorf("login: %w", err)
	}
	hook := submission.WithHook(func(from, to submission.State) {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s -> %s\n", from, to)
	})
	return client.NewSubmitter(c, hook), c, nil
}

func registerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Submit donation forms to a running server",
	}
	cmd.AddCommand(registerEventCmd(), registerVolunteerCmd())
	return cmd
}

func registerEventCmd() *cobra.Command {
	var (
		remote  remoteFlags
		eventID string
		last    string
		note    string
	)
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Register for a donation event",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(eventID)
			if err != nil {
				return fmt.Errorf("invalid event id: %w", err)
			}
			req := registration.CreateRequest{Note: note}
			if last != "" {
				if req.LastDonationDate, err = dates.Parse(last); err != nil {
					return fmt.Errorf("invalid last donation date: %w", err)
				}
			}

			ctx := cmd.Context()
			sub, c, err := remote.login(ctx, cmd)
			if err != nil {
				return err
			}
			ev, err := c.Event(ctx, id)
			if err != nil {
				return err
			}
			reg, err := sub.Register(ctx, ev, req)
			if err != nil {
				return submissionError(sub.Machine(), err)
			}
			return writeJSON(cmd, reg)
		},
	}
	remote.bind(cmd)
	cmd.Flags().StringVar(&eventID, "event", "", "event id")
	cmd.Flags().StringVar(&last, "last-donation", "", "last donation date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&note, "note", "", "note for the staff")
	_ = cmd.MarkFlagRequired("event")
	return cmd
}

func registerVolunteerCmd() *cobra.Command {
	var (
		remote   remoteFlags
		req      volunteer.CreateRequest
		facility string
		from, to string
	)
	cmd := &cobra.Command{
		Use:   "volunteer",
		Short: "Offer to donate on call during a date window",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if req.FacilityID, err = uuid.Parse(facility); err != nil {
				return fmt.Errorf("invalid facility id: %w", err)
			}
			if req.AvailableFrom, err = dates.Parse(from); err != nil {
				return fmt.Errorf("invalid --from: %w", err)
			}
			if req.AvailableTo, err = dates.Parse(to); err != nil {
				return fmt.Errorf("invalid --to: %w", err)
			}

			ctx := cmd.Context()
			sub, _, err := remote.login(ctx, cmd)
			if err != nil {
				return err
			}
			v, err := sub.Volunteer(ctx, req)
			if err != nil {
				return submissionError(sub.Machine(), err)
			}
			return writeJSON(cmd, v)
		},
	}
	remote.bind(cmd)
	f := cmd.Flags()
	f.StringVar(&facility, "facility", "", "facility id")
	f.StringVar(&req.BloodType, "blood-type", "", "blood type, e.g. O-")
	f.StringVar(&req.Component, "component", "whole-blood", "blood component")
	f.StringVar(&from, "from", "", "first available day (YYYY-MM-DD)")
	f.StringVar(&to, "to", "", "last available day (YYYY-MM-DD)")
	f.StringVar(&req.Phone, "phone", "", "contact phone")
	f.StringVar(&req.Email, "contact-email", "", "contact email")
	f.StringVar(&req.Note, "note", "", "note for the staff")
	_ = cmd.MarkFlagRequired("facility")
	return cmd
}

// submissionError adds the per-field messages of a rejected form.
func submissionError(m *submission.Machine, err error) error {
	fields := m.FieldErrors()
	if len(fields) == 0 {
		return err
	}
	msg := err.Error()
	for field, problem := range fields {
		msg += fmt.Sprintf("\n  %s: %s", field, problem)
	}
	return fmt.Errorf("%s", msg)
}
