package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/posa/jerseyapp/internal/dependencies/mocks"
	"github.com/posa/jerseyapp/internal/storage/memory"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.service = New(s.storage, s.clock, DefaultConfig())
	s.ctx = context.Background()
}

func (s *ServiceSuite) registerFirst() *Session {
	session, err := s.service.Register(s.ctx, "admin@example.com", "password123", nil)
	s.Require().NoError(err)
	return session
}

// Register tests

func (s *ServiceSuite) TestFirstAdminRegistersFreely() {
	session := s.registerFirst()

	s.NotEmpty(session.Token)
	s.Equal("admin@example.com", session.Email)
}

func (s *ServiceSuite) TestRegisterHashesPassword() {
	s.registerFirst()

	user, err := s.storage.GetUserByEmail(s.ctx, "admin@example.com")
	s.Require().NoError(err)
	s.NotEmpty(user.PasswordHash)
	s.NotEqual("password123", user.PasswordHash)
}

func (s *ServiceSuite) TestRegisterNormalizesEmail() {
	session, err := s.service.Register(s.ctx, "  Admin@Example.COM ", "password123", nil)
	s.Require().NoError(err)
	s.Equal("admin@example.com", session.Email)
}

func (s *ServiceSuite) TestSecondAdminNeedsSession() {
	s.registerFirst()

	_, err := s.service.Register(s.ctx, "other@example.com", "password123", nil)
	s.ErrorIs(err, ErrRegistrationClosed)
}

func (s *ServiceSuite) TestSecondAdminWithSession() {
	caller := s.registerFirst()

	session, err := s.service.Register(s.ctx, "other@example.com", "password123", caller)
	s.Require().NoError(err)
	s.Equal("other@example.com", session.Email)
}

func (s *ServiceSuite) TestRegisterFailsIfEmailExists() {
	caller := s.registerFirst()

	_, err := s.service.Register(s.ctx, "admin@example.com", "different1", caller)
	s.ErrorIs(err, ErrEmailExists)
}

func (s *ServiceSuite) TestRegisterValidatesInput() {
	_, err := s.service.Register(s.ctx, "admin@example.com", "short", nil)
	s.ErrorIs(err, ErrWeakPassword)

	_, err = s.service.Register(s.ctx, " ", "password123", nil)
	s.ErrorIs(err, ErrInvalidEmail)
}

// Login tests

func (s *ServiceSuite) TestLoginSucceeds() {
	s.registerFirst()

	session, err := s.service.Login(s.ctx, "admin@example.com", "password123")
	s.Require().NoError(err)
	s.NotEmpty(session.Token)
	s.Equal("admin@example.com", session.Email)
}

func (s *ServiceSuite) TestLoginFailsWithWrongPassword() {
	s.registerFirst()

	_, err := s.service.Login(s.ctx, "admin@example.com", "wrongpassword")
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *ServiceSuite) TestLoginFailsWithUnknownUser() {
	_, err := s.service.Login(s.ctx, "nobody@example.com", "password123")
	s.ErrorIs(err, ErrInvalidCredentials)
}

// ValidateSession tests

func (s *ServiceSuite) TestValidateSessionSucceeds() {
	session := s.registerFirst()

	validated, err := s.service.ValidateSession(session.Token)
	s.Require().NoError(err)
	s.Equal(session.Token, validated.Token)
}

func (s *ServiceSuite) TestValidateSessionFailsWithInvalidToken() {
	_, err := s.service.ValidateSession("invalid_token")
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestValidateSessionFailsWhenExpired() {
	session := s.registerFirst()

	s.clock.Advance(25 * time.Hour)

	_, err := s.service.ValidateSession(session.Token)
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestInvalidateSessionRemovesSession() {
	session := s.registerFirst()

	s.service.InvalidateSession(session.Token)

	_, err := s.service.ValidateSession(session.Token)
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestCleanExpiredSessionsRemovesExpired() {
	old := s.registerFirst()

	s.clock.Advance(25 * time.Hour)

	fresh, err := s.service.Login(s.ctx, "admin@example.com", "password123")
	s.Require().NoError(err)

	s.service.CleanExpiredSessions()

	_, err = s.service.ValidateSession(old.Token)
	s.ErrorIs(err, ErrInvalidSession)
	_, err = s.service.ValidateSession(fresh.Token)
	s.NoError(err)
}
