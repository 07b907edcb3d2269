package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/posa/jerseyapp/internal/model"
	"github.com/posa/jerseyapp/internal/storage"
)

// ErrUnitLockTimeout is returned when another writer holds the unit lock for too long
var ErrUnitLockTimeout = errors.New("timed out waiting for unit lock")

// releaseScript deletes the lock only if we still own it
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Storage is a Redis-backed implementation of the storage interface.
// RunInTx serializes units through a lock key but does not roll back:
// writes made before a failing step stay in place.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

var (
	_ storage.Storage = (*Storage)(nil)
	_ storage.Pinger  = (*Storage)(nil)
)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}

	existing, err := s.GetPlayer(ctx, player.ID)
	if err != nil && !errors.Is(err, model.ErrPlayerNotFound) {
		return err
	}

	// Claim the name first so two players can never share it
	nameKey := playerNameIndexKey(player.FullName)
	claimed, err := s.client.SetNX(ctx, nameKey, string(player.ID), 0).Result()
	if err != nil {
		return err
	}
	if !claimed {
		owner, err := s.client.Get(ctx, nameKey).Result()
		if err != nil {
			return err
		}
		if owner != string(player.ID) {
			return model.ErrPlayerNameTaken
		}
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, playerKey(player.ID), data, 0)
	pipe.SAdd(ctx, playersIndexKey(), string(player.ID))
	if existing != nil && existing.FullName != player.FullName {
		pipe.Del(ctx, playerNameIndexKey(existing.FullName))
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	data, err := s.client.Get(ctx, playerKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var player model.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *Storage) GetPlayerByName(ctx context.Context, fullName string) (*model.Player, error) {
	// Look up player ID from name index
	id, err := s.client.Get(ctx, playerNameIndexKey(fullName)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	return s.GetPlayer(ctx, model.PlayerID(id))
}

func (s *Storage) ListPlayers(ctx context.Context) ([]*model.Player, error) {
	ids, err := s.client.SMembers(ctx, playersIndexKey()).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.Player{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = playerKey(model.PlayerID(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	players := make([]*model.Player, 0, len(values))
	for _, val := range values {
		if val == nil {
			continue
		}
		var player model.Player
		if err := json.Unmarshal([]byte(val.(string)), &player); err != nil {
			return nil, fmt.Errorf("decode player: %w", err)
		}
		players = append(players, &player)
	}

	sort.Slice(players, func(i, j int) bool {
		return players[i].FullName < players[j].FullName
	})
	return players, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	player, err := s.GetPlayer(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrPlayerNotFound) {
			return nil
		}
		return err
	}

	regs, err := s.ListRegistrationsForPlayer(ctx, id)
	if err != nil {
		return err
	}

	// Delete the player, its registrations and every index entry in one pipeline
	pipe := s.client.TxPipeline()
	for _, reg := range regs {
		pipe.Del(ctx, registrationKey(reg.ID))
		pipe.Del(ctx, registrationUniqueIndexKey(reg.Key()))
		pipe.SRem(ctx, divisionIndexKey(reg.Division), string(reg.ID))
	}
	pipe.Del(ctx, playerRegistrationsIndexKey(id))
	pipe.Del(ctx, playerNameIndexKey(player.FullName))
	pipe.SRem(ctx, playersIndexKey(), string(id))
	pipe.Del(ctx, playerKey(id))
	_, err = pipe.Exec(ctx)
	return err
}

// Registration operations

func (s *Storage) SaveRegistration(ctx context.Context, reg *model.Registration) error {
	exists, err := s.client.Exists(ctx, playerKey(reg.PlayerID)).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return model.ErrPlayerNotFound
	}

	data, err := json.Marshal(reg)
	if err != nil {
		return err
	}

	existing, err := s.getRegistration(ctx, reg.ID)
	if err != nil && !errors.Is(err, model.ErrRegistrationNotFound) {
		return err
	}

	uniqueKey := registrationUniqueIndexKey(reg.Key())
	claimed, err := s.client.SetNX(ctx, uniqueKey, string(reg.ID), 0).Result()
	if err != nil {
		return err
	}
	if !claimed {
		owner, err := s.client.Get(ctx, uniqueKey).Result()
		if err != nil {
			return err
		}
		if owner != string(reg.ID) {
			return model.ErrRegistrationExists
		}
	}

	pipe := s.client.TxPipeline()
	if existing != nil {
		if existing.Key().UniqueKey() != reg.Key().UniqueKey() {
			pipe.Del(ctx, registrationUniqueIndexKey(existing.Key()))
		}
		if existing.Division != reg.Division {
			pipe.SRem(ctx, divisionIndexKey(existing.Division), string(reg.ID))
		}
	}
	pipe.Set(ctx, registrationKey(reg.ID), data, 0)
	pipe.SAdd(ctx, divisionIndexKey(reg.Division), string(reg.ID))
	pipe.SAdd(ctx, playerRegistrationsIndexKey(reg.PlayerID), string(reg.ID))
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) getRegistration(ctx context.Context, id model.RegistrationID) (*model.Registration, error) {
	data, err := s.client.Get(ctx, registrationKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRegistrationNotFound
		}
		return nil, err
	}

	var reg model.Registration
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, err
	}
	return &reg, nil
}

func (s *Storage) GetRegistrationByKey(ctx context.Context, key model.RegistrationKey) (*model.Registration, error) {
	id, err := s.client.Get(ctx, registrationUniqueIndexKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRegistrationNotFound
		}
		return nil, err
	}

	reg, err := s.getRegistration(ctx, model.RegistrationID(id))
	if err != nil {
		return nil, err
	}
	if reg.Key() != key {
		return nil, model.ErrRegistrationNotFound
	}
	return reg, nil
}

func (s *Storage) ListRegistrationsByDivision(ctx context.Context, division string) ([]*model.Registration, error) {
	return s.listRegistrations(ctx, divisionIndexKey(division))
}

func (s *Storage) ListRegistrationsForPlayer(ctx context.Context, playerID model.PlayerID) ([]*model.Registration, error) {
	return s.listRegistrations(ctx, playerRegistrationsIndexKey(playerID))
}

func (s *Storage) listRegistrations(ctx context.Context, indexKey string) ([]*model.Registration, error) {
	ids, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.Registration{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = registrationKey(model.RegistrationID(id))
	}

	// Fetch all registrations in one round trip using MGET
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	regs := make([]*model.Registration, 0, len(values))
	for _, val := range values {
		if val == nil {
			continue
		}
		var reg model.Registration
		if err := json.Unmarshal([]byte(val.(string)), &reg); err != nil {
			return nil, fmt.Errorf("decode registration: %w", err)
		}
		regs = append(regs, &reg)
	}

	sort.Slice(regs, func(i, j int) bool {
		if regs[i].CreatedAt.Equal(regs[j].CreatedAt) {
			return regs[i].ID < regs[j].ID
		}
		return regs[i].CreatedAt.Before(regs[j].CreatedAt)
	})
	return regs, nil
}

// User operations

func (s *Storage) SaveUser(ctx context.Context, user *model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, userKey(user.Email), data, 0)
	pipe.SAdd(ctx, usersIndexKey(), user.Email)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	data, err := s.client.Get(ctx, userKey(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}

	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Storage) CountUsers(ctx context.Context) (int, error) {
	n, err := s.client.SCard(ctx, usersIndexKey()).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Units of work

// RunInTx holds the unit lock for the duration of fn
func (s *Storage) RunInTx(ctx context.Context, fn func(ctx context.Context, tx storage.Storage) error) error {
	token := uuid.NewString()
	if err := s.acquireUnitLock(ctx, token); err != nil {
		return err
	}
	defer func() {
		// Release on a fresh context so a cancelled request still frees the lock
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, s.client, []string{unitLockKey()}, token).Err()
	}()

	return fn(ctx, unit{s})
}

func (s *Storage) acquireUnitLock(ctx context.Context, token string) error {
	deadline := time.Now().Add(s.cfg.UnitLockWait)
	poll := s.cfg.UnitLockPoll
	if poll <= 0 {
		poll = DefaultConfig().UnitLockPoll
	}

	for {
		ok, err := s.client.SetNX(ctx, unitLockKey(), token, s.cfg.UnitLockTTL).Result()
		if err != nil {
			return fmt.Errorf("acquire unit lock: %w", err)
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrUnitLockTimeout
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(poll):
		}
	}
}

// unit is the Storage handed to a RunInTx callback; nested units run inline
type unit struct {
	*Storage
}

func (u unit) RunInTx(ctx context.Context, fn func(ctx context.Context, tx storage.Storage) error) error {
	return fn(ctx, u)
}
