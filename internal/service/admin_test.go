package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sudeepta/portfolio/internal/apperror"
	"github.com/sudeepta/portfolio/internal/auth"
	"github.com/sudeepta/portfolio/internal/model"
	"github.com/sudeepta/portfolio/internal/repository"
)

const testPassword = "correct-horse-battery-staple"

func newTestAdminService(t *testing.T, repo repository.DeliveryRepository) (*AdminService, *auth.TokenService) {
	t.Helper()

	passwords := auth.NewPasswordServiceForTest(bcrypt.MinCost)
	hash, err := passwords.Hash(testPassword)
	require.NoError(t, err)

	tokens, err := auth.NewTokenService("admin-test-secret-0123456789")
	require.NoError(t, err)

	return NewAdminService(hash, passwords, tokens, repo, discardLogger()), tokens
}

func TestLogin_CorrectPassword(t *testing.T) {
	svc, tokens := newTestAdminService(t, &fakeDeliveryRepo{})

	token, err := svc.Login(context.Background(), testPassword)
	require.NoError(t, err)

	subject, err := tokens.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, auth.AdminSubject, subject)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newTestAdminService(t, &fakeDeliveryRepo{})

	_, err := svc.Login(context.Background(), "guess")
	assert.True(t, errors.Is(err, apperror.ErrUnauthorized))
}

func TestLogin_NoHashConfigured(t *testing.T) {
	tokens, err := auth.NewTokenService("admin-test-secret-0123456789")
	require.NoError(t, err)
	svc := NewAdminService("", auth.NewPasswordServiceForTest(bcrypt.MinCost), tokens, &fakeDeliveryRepo{}, discardLogger())

	_, err = svc.Login(context.Background(), testPassword)
	assert.True(t, errors.Is(err, apperror.ErrConfigMissing))
}

func TestLogin_MalformedHashIsNotUnauthorized(t *testing.T) {
	tokens, err := auth.NewTokenService("admin-test-secret-0123456789")
	require.NoError(t, err)
	svc := NewAdminService("plaintext-oops", auth.NewPasswordServiceForTest(bcrypt.MinCost), tokens, &fakeDeliveryRepo{}, discardLogger())

	_, err = svc.Login(context.Background(), testPassword)
	require.Error(t, err)
	assert.False(t, errors.Is(err, apperror.ErrUnauthorized))
}

func TestDeliveries(t *testing.T) {
	repo := &fakeDeliveryRepo{recorded: []model.Delivery{
		{ID: "b", Status: model.DeliveryFailed, ErrorKind: apperror.KindTransport, CreatedAt: time.Now()},
		{ID: "a", Status: model.DeliverySent, ErrorKind: apperror.KindNone, CreatedAt: time.Now()},
	}}
	svc, _ := newTestAdminService(t, repo)

	page, err := svc.Deliveries(context.Background(), repository.ListOptions{Limit: 500, Offset: -3})
	require.NoError(t, err)

	assert.Len(t, page.Deliveries, 2)
	assert.Equal(t, repository.DeliverySummary{Sent: 1, Failed: 1}, page.Summary)
	assert.Equal(t, 100, page.Limit)
	assert.Equal(t, 0, page.Offset)
}

func TestDeliveries_RejectsUnknownStatus(t *testing.T) {
	svc, _ := newTestAdminService(t, &fakeDeliveryRepo{})

	_, err := svc.Deliveries(context.Background(), repository.ListOptions{Status: "queued"})
	assert.True(t, errors.Is(err, apperror.ErrInvalidInput))
}

func TestDelivery_NotFound(t *testing.T) {
	svc, _ := newTestAdminService(t, &fakeDeliveryRepo{})

	_, err := svc.Delivery(context.Background(), "missing")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}
