package storage

import (
	"context"

	"github.com/posa/jerseyapp/internal/model"
)

// Storage defines the interface for data persistence
type Storage interface {
	// Player operations
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	GetPlayerByName(ctx context.Context, fullName string) (*model.Player, error)
	ListPlayers(ctx context.Context) ([]*model.Player, error)
	// DeletePlayer removes the player and all of its registrations
	DeletePlayer(ctx context.Context, id model.PlayerID) error

	// Registration operations
	SaveRegistration(ctx context.Context, reg *model.Registration) error
	GetRegistrationByKey(ctx context.Context, key model.RegistrationKey) (*model.Registration, error)
	ListRegistrationsByDivision(ctx context.Context, division string) ([]*model.Registration, error)
	ListRegistrationsForPlayer(ctx context.Context, playerID model.PlayerID) ([]*model.Registration, error)

	// User operations
	SaveUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	CountUsers(ctx context.Context) (int, error)

	// RunInTx runs fn as one unit of work. Units are serialized against each
	// other; fn must use the Storage it is handed rather than the receiver.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Storage) error) error
}

// Pinger is implemented by backends that hold a network connection
type Pinger interface {
	Ping(ctx context.Context) error
}
