package model

import "time"

// PlayerID uniquely identifies a player across the system
type PlayerID string

// Player represents a youth participant. FullName is unique across all players.
type Player struct {
	ID           PlayerID
	FullName     string
	JerseyNumber *int // nil until assigned
	ParentEmail  string
	CreatedAt    time.Time
}

// HasJersey reports whether a jersey number has been assigned
func (p *Player) HasJersey() bool {
	return p.JerseyNumber != nil
}

// Jersey returns the assigned jersey number, or 0 if none
func (p *Player) Jersey() int {
	if p.JerseyNumber == nil {
		return 0
	}
	return *p.JerseyNumber
}

// JerseyPtr is a convenience for building players with a fixed number
func JerseyPtr(n int) *int {
	return &n
}

// User is an admin account for the roster API
type User struct {
	Email        string // login identifier (immutable)
	PasswordHash string // bcrypt hash
	CreatedAt    time.Time
}
