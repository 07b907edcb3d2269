package model

import "time"

// ExtractedRegistrant is the field set parsed from one registrant block of an
// inbound email. It is never persisted.
type ExtractedRegistrant struct {
	FullName    string
	Program     string
	Division    string
	ParentEmail string
	OrderNumber string
	OrderDate   *time.Time
	Sport       string
	Season      string
}

// OutcomeKind describes what the upsert did for one registrant
type OutcomeKind string

const (
	OutcomeCreated       OutcomeKind = "created"
	OutcomeAlreadyExists OutcomeKind = "already_exists"
)

// Outcome is the per-registrant result of reconciling against storage.
// Registration is the new row for OutcomeCreated and the existing row for
// OutcomeAlreadyExists.
type Outcome struct {
	Kind          OutcomeKind
	Player        *Player
	Registration  *Registration
	PlayerCreated bool
}
