package redis

import (
	"fmt"

	"github.com/posa/jerseyapp/internal/model"
)

// Key prefix for all roster data
const keyPrefix = "jersey"

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// playersIndexKey returns the Redis key for the SET of all player ids
func playersIndexKey() string {
	return fmt.Sprintf("%s:idx:players", keyPrefix)
}

// playerNameIndexKey returns the Redis key for the full_name -> player_id index
func playerNameIndexKey(fullName string) string {
	return fmt.Sprintf("%s:idx:player_name:%s", keyPrefix, fullName)
}

// registrationKey returns the Redis key for a Registration
func registrationKey(id model.RegistrationID) string {
	return fmt.Sprintf("%s:registration:%s", keyPrefix, id)
}

// registrationUniqueIndexKey returns the Redis key for the (player, sport, season) -> registration_id index
func registrationUniqueIndexKey(key model.RegistrationKey) string {
	return fmt.Sprintf("%s:idx:registration:%s", keyPrefix, key.UniqueKey())
}

// divisionIndexKey returns the Redis key for the SET of registrations in a division
func divisionIndexKey(division string) string {
	return fmt.Sprintf("%s:idx:division:%s", keyPrefix, division)
}

// playerRegistrationsIndexKey returns the Redis key for the SET of a player's registrations
func playerRegistrationsIndexKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:idx:player_registrations:%s", keyPrefix, id)
}

// userKey returns the Redis key for an admin User
func userKey(email string) string {
	return fmt.Sprintf("%s:user:%s", keyPrefix, email)
}

// usersIndexKey returns the Redis key for the SET of admin emails
func usersIndexKey() string {
	return fmt.Sprintf("%s:idx:users", keyPrefix)
}

// unitLockKey returns the Redis key guarding RunInTx units
func unitLockKey() string {
	return fmt.Sprintf("%s:lock:unit", keyPrefix)
}
