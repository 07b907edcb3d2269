package roster

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/posa/jerseyapp/internal/dependencies/mocks"
	"github.com/posa/jerseyapp/internal/model"
	"github.com/posa/jerseyapp/internal/services/jersey"
	"github.com/posa/jerseyapp/internal/storage/memory"
	"github.com/posa/jerseyapp/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage  *memory.Storage
	notifier *mocks.MockNotifier
	service  *Service
	ctx      context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.notifier = mocks.NewMockNotifier()
	s.ctx = context.Background()
	s.service = New(
		s.storage,
		jersey.New(jersey.DefaultPool()),
		s.notifier,
		mocks.NewMockClock(time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)),
		DefaultConfig(),
		testutil.NopLogger(),
	)
}

func (s *ServiceSuite) register(name, sport, division string, jersey int) *model.Player {
	p := &model.Player{ID: model.PlayerID("p-" + name), FullName: name, ParentEmail: name + "@example.com", JerseyNumber: model.JerseyPtr(jersey)}
	s.Require().NoError(s.storage.SavePlayer(s.ctx, p))
	s.Require().NoError(s.storage.SaveRegistration(s.ctx, &model.Registration{
		ID:        model.RegistrationID("r-" + name + sport),
		PlayerID:  p.ID,
		Program:   "Fall " + sport,
		Division:  division,
		Sport:     sport,
		Season:    "fall",
		CreatedAt: time.Now(),
	}))
	return p
}

func (s *ServiceSuite) TestRosterGroupsBySportAndDivision() {
	s.register("Amy", "soccer", "U10", 3)
	s.register("Ben", "soccer", "U6", 1)
	s.register("Cal", "soccer", "Open", 2)
	s.register("Dee", "basketball", "U12", 5)

	sports, err := s.service.Roster(s.ctx)
	s.Require().NoError(err)

	s.Require().Len(sports, 2)
	s.Equal("basketball", sports[0].Name)
	s.Equal("soccer", sports[1].Name)

	soccer := sports[1]
	s.Require().Len(soccer.Divisions, 3)
	s.Equal("U6", soccer.Divisions[0].Name)
	s.Equal("U10", soccer.Divisions[1].Name)
	s.Equal("Open", soccer.Divisions[2].Name)
	s.Equal("Ben", soccer.Divisions[0].Players[0].FullName)
	s.Equal(1, *soccer.Divisions[0].Players[0].JerseyNumber)
}

func (s *ServiceSuite) TestCreatePlayerUsesDefaultDivision() {
	s.register("Ben", "soccer", "U6", 1)

	p, err := s.service.CreatePlayer(s.ctx, CreatePlayerInput{FullName: " New Kid ", ParentEmail: "parent@example.com"})
	s.Require().NoError(err)

	s.Equal("New Kid", p.FullName)
	s.Equal(2, p.Jersey())
	s.Require().Equal(1, s.notifier.Count())
	s.Equal("parent@example.com", s.notifier.Sent[0].Recipient)
	s.Equal(2, s.notifier.Sent[0].JerseyNumber)
	s.Nil(s.notifier.Sent[0].Registration)
}

func (s *ServiceSuite) TestCreatePlayerInGivenDivision() {
	s.register("Ben", "soccer", "U6", 1)

	p, err := s.service.CreatePlayer(s.ctx, CreatePlayerInput{FullName: "New Kid", Division: "U10"})
	s.Require().NoError(err)
	s.Equal(1, p.Jersey())
	s.Zero(s.notifier.Count(), "no parent email, no confirmation")
}

func (s *ServiceSuite) TestCreatePlayerRejectsDuplicateName() {
	s.register("Ben", "soccer", "U6", 1)

	_, err := s.service.CreatePlayer(s.ctx, CreatePlayerInput{FullName: "Ben"})
	s.ErrorIs(err, model.ErrPlayerNameTaken)
}

func (s *ServiceSuite) TestCreatePlayerRequiresName() {
	_, err := s.service.CreatePlayer(s.ctx, CreatePlayerInput{FullName: "  "})
	s.ErrorIs(err, model.ErrNameRequired)
}

func (s *ServiceSuite) TestUpdatePlayer() {
	p := s.register("Ben", "soccer", "U6", 1)
	name, email, number := "Benjamin", "dad@example.com", 23

	updated, err := s.service.UpdatePlayer(s.ctx, p.ID, UpdatePlayerInput{
		FullName: &name, ParentEmail: &email, JerseyNumber: &number,
	})
	s.Require().NoError(err)
	s.Equal("Benjamin", updated.FullName)

	stored, err := s.storage.GetPlayer(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("dad@example.com", stored.ParentEmail)
	s.Equal(23, stored.Jersey())
}

func (s *ServiceSuite) TestUpdatePlayerValidatesJersey() {
	p := s.register("Ben", "soccer", "U6", 1)

	for _, n := range []int{0, 100} {
		number := n
		_, err := s.service.UpdatePlayer(s.ctx, p.ID, UpdatePlayerInput{JerseyNumber: &number})
		s.ErrorIs(err, model.ErrInvalidJersey)
	}
}

func (s *ServiceSuite) TestUpdateMissingPlayer() {
	_, err := s.service.UpdatePlayer(s.ctx, "ghost", UpdatePlayerInput{})
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *ServiceSuite) TestDeletePlayer() {
	p := s.register("Ben", "soccer", "U6", 1)

	s.Require().NoError(s.service.DeletePlayer(s.ctx, p.ID))

	details, err := s.service.ListPlayers(s.ctx)
	s.Require().NoError(err)
	s.Empty(details)

	s.ErrorIs(s.service.DeletePlayer(s.ctx, p.ID), model.ErrPlayerNotFound)
}

func (s *ServiceSuite) TestGetPlayer() {
	p := s.register("Ben", "soccer", "U6", 1)

	detail, err := s.service.GetPlayer(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("Ben", detail.Player.FullName)
	s.Len(detail.Registrations, 1)
}

func (s *ServiceSuite) TestExportCSV() {
	s.register("Ben", "soccer", "U6", 1)
	s.Require().NoError(s.storage.SavePlayer(s.ctx, &model.Player{ID: "p-x", FullName: "Al, Jr.", ParentEmail: "al@example.com"}))

	var buf bytes.Buffer
	s.Require().NoError(s.service.ExportCSV(s.ctx, &buf))

	s.Equal("Name,Parent Email,Jersey Number\n\"Al, Jr.\",al@example.com,\nBen,Ben@example.com,1\n", buf.String())
}

func (s *ServiceSuite) TestBackfillPromo() {
	ben := s.register("Ben", "soccer", "U6", 1)
	s.register("Amy", "soccer", "U10", 3)
	s.Require().NoError(s.storage.SaveRegistration(s.ctx, &model.Registration{
		ID:        "r-Ben-basketball",
		PlayerID:  ben.ID,
		Program:   "Winter Basketball",
		Division:  "U8",
		Sport:     "basketball",
		Season:    "winter",
		PromoCode: "Pines2Players",
	}))

	updated, err := s.service.BackfillPromo(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, updated)

	regs, err := s.storage.ListRegistrationsForPlayer(s.ctx, ben.ID)
	s.Require().NoError(err)
	codes := map[string]string{}
	for _, reg := range regs {
		codes[reg.Sport] = reg.PromoCode
	}
	s.Equal(map[string]string{"soccer": "Pines1Player", "basketball": "Pines2Players"}, codes)

	updated, err = s.service.BackfillPromo(s.ctx)
	s.Require().NoError(err)
	s.Zero(updated, "already stamped")
}

func TestNewWithoutLogger(t *testing.T) {
	store := memory.New()
	svc := New(store, jersey.New(jersey.DefaultPool()), nil,
		mocks.NewMockClock(time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)), Config{}, nil)

	p, err := svc.CreatePlayer(context.Background(), CreatePlayerInput{FullName: "Quiet Kid"})
	require.NoError(t, err)
	assert.Equal(t, 1, p.Jersey())

	_, err = svc.BackfillPromo(context.Background())
	assert.NoError(t, err)
}

func TestSortDivisions(t *testing.T) {
	names := []string{"Open", "U14", "Adult", "U4", "U10", "u8"}
	SortDivisions(names)
	assert.Equal(t, []string{"U4", "u8", "U10", "U14", "Adult", "Open"}, names)
}
