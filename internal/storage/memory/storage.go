package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/posa/jerseyapp/internal/model"
	"github.com/posa/jerseyapp/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	// unitMu serializes RunInTx units; mu guards the maps
	unitMu sync.Mutex
	mu     sync.RWMutex

	state
}

type state struct {
	players       map[model.PlayerID]*model.Player
	nameIndex     map[string]model.PlayerID
	registrations map[model.RegistrationID]*model.Registration
	uniqueIndex   map[string]model.RegistrationID
	users         map[string]*model.User
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		state: state{
			players:       make(map[model.PlayerID]*model.Player),
			nameIndex:     make(map[string]model.PlayerID),
			registrations: make(map[model.RegistrationID]*model.Registration),
			uniqueIndex:   make(map[string]model.RegistrationID),
			users:         make(map[string]*model.User),
		},
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.nameIndex[player.FullName]; ok && id != player.ID {
		return model.ErrPlayerNameTaken
	}
	if existing, ok := s.players[player.ID]; ok && existing.FullName != player.FullName {
		delete(s.nameIndex, existing.FullName)
	}
	s.players[player.ID] = clonePlayer(player)
	s.nameIndex[player.FullName] = player.ID
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return clonePlayer(player), nil
}

func (s *Storage) GetPlayerByName(ctx context.Context, fullName string) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.nameIndex[fullName]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return clonePlayer(s.players[id]), nil
}

func (s *Storage) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	players := make([]*model.Player, 0, len(s.players))
	for _, p := range s.players {
		players = append(players, clonePlayer(p))
	}
	sort.Slice(players, func(i, j int) bool {
		return players[i].FullName < players[j].FullName
	})
	return players, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	player, ok := s.players[id]
	if !ok {
		return nil
	}
	for regID, reg := range s.registrations {
		if reg.PlayerID == id {
			delete(s.uniqueIndex, reg.Key().UniqueKey())
			delete(s.registrations, regID)
		}
	}
	delete(s.nameIndex, player.FullName)
	delete(s.players, id)
	return nil
}

// Registration operations

func (s *Storage) SaveRegistration(ctx context.Context, reg *model.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.players[reg.PlayerID]; !ok {
		return model.ErrPlayerNotFound
	}
	uk := reg.Key().UniqueKey()
	if id, ok := s.uniqueIndex[uk]; ok && id != reg.ID {
		return model.ErrRegistrationExists
	}
	if existing, ok := s.registrations[reg.ID]; ok {
		delete(s.uniqueIndex, existing.Key().UniqueKey())
	}
	s.registrations[reg.ID] = cloneRegistration(reg)
	s.uniqueIndex[uk] = reg.ID
	return nil
}

func (s *Storage) GetRegistrationByKey(ctx context.Context, key model.RegistrationKey) (*model.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.uniqueIndex[key.UniqueKey()]
	if !ok {
		return nil, model.ErrRegistrationNotFound
	}
	reg := s.registrations[id]
	if reg.Key() != key {
		return nil, model.ErrRegistrationNotFound
	}
	return cloneRegistration(reg), nil
}

func (s *Storage) ListRegistrationsByDivision(ctx context.Context, division string) ([]*model.Registration, error) {
	return s.listRegistrations(func(r *model.Registration) bool {
		return r.Division == division
	}), nil
}

func (s *Storage) ListRegistrationsForPlayer(ctx context.Context, playerID model.PlayerID) ([]*model.Registration, error) {
	return s.listRegistrations(func(r *model.Registration) bool {
		return r.PlayerID == playerID
	}), nil
}

func (s *Storage) listRegistrations(match func(*model.Registration) bool) []*model.Registration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var regs []*model.Registration
	for _, reg := range s.registrations {
		if match(reg) {
			regs = append(regs, cloneRegistration(reg))
		}
	}
	sort.Slice(regs, func(i, j int) bool {
		if regs[i].CreatedAt.Equal(regs[j].CreatedAt) {
			return regs[i].ID < regs[j].ID
		}
		return regs[i].CreatedAt.Before(regs[j].CreatedAt)
	})
	return regs
}

// User operations

func (s *Storage) SaveUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := *user
	s.users[user.Email] = &u
	return nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[email]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	u := *user
	return &u, nil
}

func (s *Storage) CountUsers(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

// Units of work

// RunInTx serializes units and restores the previous state if fn fails
func (s *Storage) RunInTx(ctx context.Context, fn func(ctx context.Context, tx storage.Storage) error) error {
	s.unitMu.Lock()
	defer s.unitMu.Unlock()

	snapshot := s.snapshot()
	if err := fn(ctx, unit{s}); err != nil {
		s.mu.Lock()
		s.state = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Storage) snapshot() state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := state{
		players:       make(map[model.PlayerID]*model.Player, len(s.players)),
		nameIndex:     make(map[string]model.PlayerID, len(s.nameIndex)),
		registrations: make(map[model.RegistrationID]*model.Registration, len(s.registrations)),
		uniqueIndex:   make(map[string]model.RegistrationID, len(s.uniqueIndex)),
		users:         make(map[string]*model.User, len(s.users)),
	}
	for k, v := range s.players {
		snap.players[k] = clonePlayer(v)
	}
	for k, v := range s.nameIndex {
		snap.nameIndex[k] = v
	}
	for k, v := range s.registrations {
		snap.registrations[k] = cloneRegistration(v)
	}
	for k, v := range s.uniqueIndex {
		snap.uniqueIndex[k] = v
	}
	for k, v := range s.users {
		u := *v
		snap.users[k] = &u
	}
	return snap
}

// unit is the Storage handed to a RunInTx callback; nested units run inline
type unit struct {
	*Storage
}

func (u unit) RunInTx(ctx context.Context, fn func(ctx context.Context, tx storage.Storage) error) error {
	return fn(ctx, u)
}

func clonePlayer(p *model.Player) *model.Player {
	c := *p
	if p.JerseyNumber != nil {
		n := *p.JerseyNumber
		c.JerseyNumber = &n
	}
	return &c
}

func cloneRegistration(r *model.Registration) *model.Registration {
	c := *r
	if r.OrderDate != nil {
		d := *r.OrderDate
		c.OrderDate = &d
	}
	return &c
}
