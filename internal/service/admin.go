package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sudeepta/portfolio/internal/apperror"
	"github.com/sudeepta/portfolio/internal/auth"
	"github.com/sudeepta/portfolio/internal/model"
	"github.com/sudeepta/portfolio/internal/repository"
)

// AdminService signs the operator in and serves the delivery log.
type AdminService struct {
	passwordHash string
	passwords    *auth.PasswordService
	tokens       *auth.TokenService
	deliveries   repository.DeliveryRepository
	logger       *slog.Logger
}

func NewAdminService(
	passwordHash string,
	passwords *auth.PasswordService,
	tokens *auth.TokenService,
	deliveries repository.DeliveryRepository,
	logger *slog.Logger,
) *AdminService {
	return &AdminService{
		passwordHash: passwordHash,
		passwords:    passwords,
		tokens:       tokens,
		deliveries:   deliveries,
		logger:       logger,
	}
}

// Login checks password against the configured hash and returns a signed
// session token.
func (s *AdminService) Login(ctx context.Context, password string) (string, error) {
	if s.passwordHash == "" {
		return "", apperror.ConfigMissing("ADMIN_PASSWORD_HASH")
	}

	if err := s.passwords.Verify(s.passwordHash, password); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			s.logger.Warn("admin login rejected")
			return "", apperror.Unauthorized("invalid credentials")
		}
		// A malformed hash is an operator mistake, not a bad guess.
		return "", fmt.Errorf("service/admin: verifying password: %w", err)
	}

	token, err := s.tokens.Generate(auth.AdminSubject)
	if err != nil {
		return "", fmt.Errorf("service/admin: generating token: %w", err)
	}

	s.logger.Info("admin signed in")
	return token, nil
}

// DeliveryPage is one page of the delivery log plus overall counts.
type DeliveryPage struct {
	Deliveries []model.Delivery           `json:"deliveries"`
	Summary    repository.DeliverySummary `json:"summary"`
	Limit      int                        `json:"limit"`
	Offset     int                        `json:"offset"`
}

// Deliveries returns a page of the delivery log, newest first.
func (s *AdminService) Deliveries(ctx context.Context, opts repository.ListOptions) (*DeliveryPage, error) {
	if opts.Status != "" && opts.Status != model.DeliverySent && opts.Status != model.DeliveryFailed {
		return nil, apperror.InvalidInput("status", `status must be "sent" or "failed"`)
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	opts.Limit = min(opts.Limit, 100)
	opts.Offset = max(opts.Offset, 0)

	list, err := s.deliveries.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("service/admin: listing deliveries: %w", err)
	}

	summary, err := s.deliveries.Summary(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/admin: summarising deliveries: %w", err)
	}

	return &DeliveryPage{
		Deliveries: list,
		Summary:    summary,
		Limit:      opts.Limit,
		Offset:     opts.Offset,
	}, nil
}

// Delivery returns a single delivery log entry.
func (s *AdminService) Delivery(ctx context.Context, id string) (*model.Delivery, error) {
	d, err := s.deliveries.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/admin: getting delivery: %w", err)
	}
	return d, nil
}
