package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bloodlink/bloodlink/internal/domain/bloodtype"
	"github.com/bloodlink/bloodlink/internal/platform/auth"
	"github.com/bloodlink/bloodlink/pkg/listops"
)

// ListSpec drives search, filters and sorting of the account table.
var ListSpec = listops.Spec[*Account]{
	SearchFields: []func(*Account) string{
		func(a *Account) string { return a.FullName },
		func(a *Account) string { return a.Email },
		func(a *Account) string { return a.Phone },
	},
	Filters: map[string]func(*Account) string{
		"role":      func(a *Account) string { return a.Role },
		"status":    func(a *Account) string { return a.Status },
		"bloodType": func(a *Account) string { return a.BloodType.String() },
	},
	Sorters: map[string]listops.Less[*Account]{
		"fullName":  listops.ByString(func(a *Account) string { return a.FullName }),
		"email":     listops.ByString(func(a *Account) string { return a.Email }),
		"role":      listops.ByString(func(a *Account) string { return a.Role }),
		"createdAt": listops.ByTime(func(a *Account) time.Time { return a.CreatedAt }),
	},
}

type Service struct {
	repo        Repository
	tokens      *auth.TokenIssuer
	revocations auth.RevocationList
	logger      zerolog.Logger
}

func NewService(repo Repository, tokens *auth.TokenIssuer, revocations auth.RevocationList, logger zerolog.Logger) *Service {
	return &Service{repo: repo, tokens: tokens, revocations: revocations, logger: logger}
}

// Register signs up a member account.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Account, error) {
	if err := req.Validate().Err(); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	a := &Account{
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
		FullName:     strings.TrimSpace(req.FullName),
		Phone:        req.Phone,
		Role:         auth.RoleMember,
		Status:       StatusActive,
		Gender:       req.Gender,
		DateOfBirth:  req.DateOfBirth,
		Address:      req.Address,
	}
	if req.BloodType != "" {
		id := bloodtype.CodeToNumericID(req.BloodType)
		a.BloodTypeID = &id
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Login verifies credentials and issues an access token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if err := req.Validate().Err(); err != nil {
		return nil, err
	}
	a, err := s.repo.GetByEmail(ctx, req.Email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := auth.CheckPassword(req.Password, a.PasswordHash); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !a.Active() {
		return nil, ErrDisabled
	}

	token, session, err := s.tokens.Issue(a.ID, a.Role)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", a.ID.String()).Str("role", a.Role).Msg("login")
	return &LoginResult{AccessToken: token, ExpiresAt: session.ExpiresAt, Account: a}, nil
}

// Logout ends the session by revoking its token until it would have
// expired anyway.
func (s *Service) Logout(ctx context.Context, session *auth.Session) error {
	if session == nil {
		return nil
	}
	if s.revocations == nil {
		return errors.New("no revocation store configured")
	}
	if err := s.revocations.Revoke(ctx, session.TokenID, time.Until(session.ExpiresAt)); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Account, error) {
	return s.repo.GetByID(ctx, id)
}

// AddStaff creates a staff (or admin) account. Blood type selectors are
// resolved with the codec fallback, so an unknown selector still yields an
// account.
func (s *Service) AddStaff(ctx context.Context, req AddStaffRequest) (*Account, error) {
	if err := req.Validate().Err(); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	role := req.Role
	if role == "" {
		role = auth.RoleStaff
	}
	a := &Account{
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
		FullName:     strings.TrimSpace(req.FullName),
		Phone:        req.Phone,
		Role:         role,
		Status:       StatusActive,
		BloodTypeID:  req.BloodTypeID(),
		Gender:       req.Gender,
		Address:      req.Address,
		FacilityID:   req.FacilityID,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) List(ctx context.Context, q listops.Query) (listops.Page[*Account], error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return listops.Page[*Account]{}, err
	}
	return listops.Apply(all, q, ListSpec), nil
}

// Export returns every account matching q, unpaginated.
func (s *Service) Export(ctx context.Context, q listops.Query) ([]*Account, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return listops.Process(all, q, ListSpec), nil
}

func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, req UpdateStatusRequest) (*Account, error) {
	if err := req.Validate().Err(); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, id, req.Status); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*Account, error) {
	if err := req.Validate().Err(); err != nil {
		return nil, err
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	a.FullName = strings.TrimSpace(req.FullName)
	a.Phone = req.Phone
	a.Gender = req.Gender
	a.DateOfBirth = req.DateOfBirth
	a.Address = req.Address
	if err := s.repo.UpdateProfile(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// RecordBloodType stores a lab-confirmed blood type for an account that has
// none yet. An existing value is never overwritten.
func (s *Service) RecordBloodType(ctx context.Context, id uuid.UUID, t bloodtype.BloodType) error {
	changed, err := s.repo.SetBloodTypeIfUnknown(ctx, id, t.ID())
	if err != nil {
		return err
	}
	if changed {
		s.logger.Info().Str("account_id", id.String()).Str("blood_type", t.String()).Msg("blood type recorded")
	}
	return nil
}

// exportHeaders and exportRow define the account export layout.
var exportHeaders = []string{"Full name", "Email", "Phone", "Role", "Status", "Blood type", "Created"}

func exportRow(a *Account) []string {
	return []string{
		a.FullName, a.Email, a.Phone, a.Role, a.Status,
		a.BloodType.String(), a.CreatedAt.Format(time.RFC3339),
	}
}
