package model

import (
	"strings"
	"time"
)

// RegistrationID uniquely identifies a registration
type RegistrationID string

// Season and sport tag used when the program text carries no known keyword
const Unknown = "unknown"

// Registration is one player's sign-up for a program in a season.
// At most one registration exists per (player, sport, season).
type Registration struct {
	ID               RegistrationID
	PlayerID         PlayerID
	Program          string
	Division         string
	Sport            string
	Season           string
	OrderNumber      string     // empty when not provided
	OrderDate        *time.Time // nil when not provided
	PromoCode        string     // empty when no code applies
	ConfirmationSent bool
	CreatedAt        time.Time
}

// Key returns the lookup key used to detect an existing registration
func (r *Registration) Key() RegistrationKey {
	return RegistrationKey{
		PlayerID: r.PlayerID,
		Division: r.Division,
		Season:   r.Season,
		Sport:    r.Sport,
	}
}

// RegistrationKey identifies a registration for dedup lookups
type RegistrationKey struct {
	PlayerID PlayerID
	Division string
	Season   string
	Sport    string
}

// UniqueKey returns the (player, sport, season) tuple that stores enforce as unique
func (k RegistrationKey) UniqueKey() string {
	return string(k.PlayerID) + "|" + strings.ToLower(k.Sport) + "|" + strings.ToLower(k.Season)
}

// String renders the full key, used for index lookups
func (k RegistrationKey) String() string {
	return string(k.PlayerID) + "|" + k.Division + "|" + k.Season + "|" + k.Sport
}
