// Package service contains the business logic between the HTTP handlers
// and the infrastructure (mail transport, database, token signing).
//
// Services take interfaces, never concrete infrastructure types, so each
// one can be tested with in-memory fakes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sudeepta/portfolio/internal/apperror"
	"github.com/sudeepta/portfolio/internal/mailer"
	"github.com/sudeepta/portfolio/internal/model"
	"github.com/sudeepta/portfolio/internal/repository"
)

// ContactRecorder observes dispatch outcomes. *metrics.Collector
// implements it.
type ContactRecorder interface {
	ContactDispatched(kind string, d time.Duration)
}

type nopContactRecorder struct{}

func (nopContactRecorder) ContactDispatched(string, time.Duration) {}

// ContactService validates contact submissions, renders them into an
// email and hands that email to the transport exactly once.
type ContactService struct {
	composer   mailer.Composer
	transport  mailer.Transport
	deliveries repository.DeliveryRepository
	recorder   ContactRecorder
	validate   *validator.Validate
	logger     *slog.Logger
	clock      func() time.Time
}

// ContactOption customises a ContactService.
type ContactOption func(*ContactService)

// WithDeliveryLog records the metadata of every dispatch in repo.
func WithDeliveryLog(repo repository.DeliveryRepository) ContactOption {
	return func(s *ContactService) { s.deliveries = repo }
}

// WithContactRecorder reports every dispatch to r.
func WithContactRecorder(r ContactRecorder) ContactOption {
	return func(s *ContactService) { s.recorder = r }
}

// NewContactService creates a ContactService.
func NewContactService(composer mailer.Composer, transport mailer.Transport, logger *slog.Logger, opts ...ContactOption) *ContactService {
	s := &ContactService{
		composer:  composer,
		transport: transport,
		recorder:  nopContactRecorder{},
		validate:  newValidator(),
		logger:    logger,
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newValidator reports fields by their JSON names, so error messages match
// what the form sent.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Submit dispatches one submission.
//
// There is no retry: a transport failure is returned to the caller as-is.
// Invalid input is rejected before the transport is touched. The returned
// error carries one of apperror.ErrInvalidInput, ErrConfigMissing or
// ErrTransport.
func (s *ContactService) Submit(ctx context.Context, requestID string, sub model.ContactSubmission) error {
	start := s.clock()

	err := s.dispatch(ctx, normalise(sub))
	elapsed := s.clock().Sub(start)
	kind := apperror.KindOf(err)

	s.recorder.ContactDispatched(kind, elapsed)
	s.record(ctx, requestID, kind, elapsed)

	if err != nil {
		// The submission body is never logged.
		s.logger.Error("contact email failed",
			slog.String("requestID", requestID),
			slog.String("kind", kind),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("service/contact: %w", err)
	}

	s.logger.Info("contact email sent",
		slog.String("requestID", requestID),
		slog.Duration("duration", elapsed),
	)
	return nil
}

// RejectBody accounts for a request whose body never decoded into a
// submission. It is counted and logged as invalid input like any other
// rejected submission; the transport is not involved.
func (s *ContactService) RejectBody(ctx context.Context, requestID string, cause error) {
	kind := apperror.KindInvalidInput

	s.recorder.ContactDispatched(kind, 0)
	s.record(ctx, requestID, kind, 0)

	s.logger.Warn("invalid contact request body",
		slog.String("requestID", requestID),
		slog.String("kind", kind),
		slog.String("error", cause.Error()),
	)
}

func (s *ContactService) dispatch(ctx context.Context, sub model.ContactSubmission) error {
	if err := s.validate.Struct(sub); err != nil {
		return validationError(err)
	}

	msg, err := s.composer.Compose(sub)
	if err != nil {
		return err
	}

	return s.transport.Send(ctx, msg)
}

// record writes the delivery log entry. A database failure is logged and
// otherwise ignored: the email outcome is what the visitor cares about.
func (s *ContactService) record(ctx context.Context, requestID, kind string, elapsed time.Duration) {
	if s.deliveries == nil {
		return
	}

	d := &model.Delivery{
		RequestID:  requestID,
		Status:     model.DeliverySent,
		ErrorKind:  kind,
		DurationMs: elapsed.Milliseconds(),
		CreatedAt:  s.clock().UTC(),
	}
	if kind != apperror.KindNone {
		d.Status = model.DeliveryFailed
	}

	// The request may already be cancelled (client went away); the log
	// entry should still be written.
	ctx = context.WithoutCancel(ctx)
	if err := s.deliveries.Record(ctx, d); err != nil {
		s.logger.Warn("recording contact delivery",
			slog.String("requestID", requestID),
			slog.String("error", err.Error()),
		)
	}
}

func normalise(sub model.ContactSubmission) model.ContactSubmission {
	sub.FirstName = strings.TrimSpace(sub.FirstName)
	sub.LastName = strings.TrimSpace(sub.LastName)
	sub.Email = strings.TrimSpace(sub.Email)
	sub.Phone = strings.TrimSpace(sub.Phone)
	sub.Service = strings.TrimSpace(sub.Service)
	return sub
}

// validationError turns the first validator failure into an
// apperror.InvalidInput naming the offending field.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperror.InvalidInput("", err.Error())
	}

	e := fieldErrs[0]
	field := e.Field()

	var msg string
	switch e.Tag() {
	case "required":
		msg = fmt.Sprintf("%s is required", field)
	case "max":
		msg = fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	case "email":
		msg = fmt.Sprintf("%s must be a valid email address", field)
	default:
		msg = fmt.Sprintf("%s is invalid", field)
	}
	return apperror.InvalidInput(field, msg)
}
