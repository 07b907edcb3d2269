package jersey

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/posa/jerseyapp/internal/model"
	"github.com/posa/jerseyapp/internal/storage/memory"
)

type AllocatorSuite struct {
	suite.Suite
	storage   *memory.Storage
	allocator *Allocator
	ctx       context.Context
}

func TestAllocatorSuite(t *testing.T) {
	suite.Run(t, new(AllocatorSuite))
}

func (s *AllocatorSuite) SetupTest() {
	s.storage = memory.New()
	s.allocator = New(DefaultPool())
	s.ctx = context.Background()
}

func (s *AllocatorSuite) register(name, division string, jersey int) {
	p := &model.Player{ID: model.PlayerID("p-" + name), FullName: name}
	if jersey > 0 {
		p.JerseyNumber = model.JerseyPtr(jersey)
	}
	s.Require().NoError(s.storage.SavePlayer(s.ctx, p))
	s.Require().NoError(s.storage.SaveRegistration(s.ctx, &model.Registration{
		ID:        model.RegistrationID("r-" + name),
		PlayerID:  p.ID,
		Program:   "prog",
		Division:  division,
		Sport:     "soccer",
		Season:    "fall",
		CreatedAt: time.Now(),
	}))
}

func (s *AllocatorSuite) TestEmptyDivisionGetsOne() {
	n, err := s.allocator.Allocate(s.ctx, s.storage, "U8")
	s.Require().NoError(err)
	s.Equal(1, n)
}

func (s *AllocatorSuite) TestReturnsLowestUnused() {
	for _, n := range []int{1, 2, 4} {
		s.register(fmt.Sprintf("Player %d", n), "U8", n)
	}

	n, err := s.allocator.Allocate(s.ctx, s.storage, "U8")
	s.Require().NoError(err)
	s.Equal(3, n)
}

func (s *AllocatorSuite) TestSaturatedDivisionReturnsTop() {
	for n := 1; n <= 99; n++ {
		s.register(fmt.Sprintf("Player %d", n), "U8", n)
	}

	n, err := s.allocator.Allocate(s.ctx, s.storage, "U8")
	s.Require().NoError(err)
	s.Equal(99, n)
}

func (s *AllocatorSuite) TestOtherDivisionsDoNotCount() {
	s.register("Player One", "U10", 1)

	n, err := s.allocator.Allocate(s.ctx, s.storage, "U8")
	s.Require().NoError(err)
	s.Equal(1, n)
}

func (s *AllocatorSuite) TestPlayersWithoutNumberAreIgnored() {
	s.register("No Number", "U8", 0)
	s.register("Player One", "U8", 1)

	n, err := s.allocator.Allocate(s.ctx, s.storage, "U8")
	s.Require().NoError(err)
	s.Equal(2, n)
}

func (s *AllocatorSuite) TestCustomPool() {
	a := New(Pool{Min: 10, Max: 11})
	s.register("Ten", "U8", 10)

	n, err := a.Allocate(s.ctx, s.storage, "U8")
	s.Require().NoError(err)
	s.Equal(11, n)

	s.register("Eleven", "U8", 11)
	n, err = a.Allocate(s.ctx, s.storage, "U8")
	s.Require().NoError(err)
	s.Equal(11, n)
}

func (s *AllocatorSuite) TestNeverReturnsTakenNumber() {
	for _, n := range []int{1, 3, 5, 7} {
		s.register(fmt.Sprintf("Player %d", n), "U12", n)
	}

	taken, err := s.allocator.Taken(s.ctx, s.storage, "U12")
	s.Require().NoError(err)

	n, err := s.allocator.Allocate(s.ctx, s.storage, "U12")
	s.Require().NoError(err)
	s.False(taken[n])
	s.Equal(2, n)
}
