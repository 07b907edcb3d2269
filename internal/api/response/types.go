package response

import (
	"time"

	"github.com/posa/jerseyapp/internal/model"
	"github.com/posa/jerseyapp/internal/services/auth"
	"github.com/posa/jerseyapp/internal/services/extract"
	"github.com/posa/jerseyapp/internal/services/ingest"
	"github.com/posa/jerseyapp/internal/services/roster"
)

// EmailReceivedMessage is returned once an inbound email has been handled
const EmailReceivedMessage = "Email received and processed"

// Player represents a player in API responses
type Player struct {
	ID           string `json:"id"`
	FullName     string `json:"full_name"`
	ParentEmail  string `json:"parent_email"`
	JerseyNumber *int   `json:"jersey_number"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:           string(p.ID),
		FullName:     p.FullName,
		ParentEmail:  p.ParentEmail,
		JerseyNumber: p.JerseyNumber,
	}
}

// Registration represents a registration in API responses
type Registration struct {
	ID               string     `json:"id"`
	PlayerID         string     `json:"player_id"`
	Program          string     `json:"program"`
	Division         string     `json:"division"`
	Sport            string     `json:"sport"`
	Season           string     `json:"season"`
	OrderNumber      string     `json:"order_number,omitempty"`
	OrderDate        *time.Time `json:"order_date,omitempty"`
	PromoCode        string     `json:"promo_code,omitempty"`
	ConfirmationSent bool       `json:"confirmation_sent"`
	CreatedAt        time.Time  `json:"created_at"`
}

// RegistrationFromModel converts a model.Registration
func RegistrationFromModel(r *model.Registration) Registration {
	return Registration{
		ID:               string(r.ID),
		PlayerID:         string(r.PlayerID),
		Program:          r.Program,
		Division:         r.Division,
		Sport:            r.Sport,
		Season:           r.Season,
		OrderNumber:      r.OrderNumber,
		OrderDate:        r.OrderDate,
		PromoCode:        r.PromoCode,
		ConfirmationSent: r.ConfirmationSent,
		CreatedAt:        r.CreatedAt,
	}
}

// PlayerDetail is a player with their registrations
type PlayerDetail struct {
	Player
	Registrations []Registration `json:"registrations"`
}

// PlayerDetailFromRoster converts a roster.PlayerDetail
func PlayerDetailFromRoster(d roster.PlayerDetail) PlayerDetail {
	regs := make([]Registration, len(d.Registrations))
	for i, r := range d.Registrations {
		regs[i] = RegistrationFromModel(r)
	}
	return PlayerDetail{
		Player:        PlayerFromModel(d.Player),
		Registrations: regs,
	}
}

// Outcome is the result for one registrant of an inbound email
type Outcome struct {
	Result        string        `json:"result"`
	PlayerCreated bool          `json:"player_created"`
	Player        Player        `json:"player"`
	Registration  *Registration `json:"registration,omitempty"`
}

// OutcomeFromModel converts a model.Outcome
func OutcomeFromModel(o model.Outcome) Outcome {
	out := Outcome{
		Result:        string(o.Kind),
		PlayerCreated: o.PlayerCreated,
		Player:        PlayerFromModel(o.Player),
	}
	if o.Registration != nil {
		reg := RegistrationFromModel(o.Registration)
		out.Registration = &reg
	}
	return out
}

// Skipped describes a registrant block that could not be used
type Skipped struct {
	extract.SkipEvent
	Message string `json:"message"`
}

// EmailReceived is the response for the ingestion webhook
type EmailReceived struct {
	Message   string    `json:"message"`
	Strategy  string    `json:"strategy,omitempty"`
	Outcomes  []Outcome `json:"outcomes"`
	Skipped   []Skipped `json:"skipped"`
	Filtered  int       `json:"filtered"`
	PromoCode *string   `json:"promo_code"`
}

// EmailReceivedFromReport converts an ingest.Report
func EmailReceivedFromReport(r *ingest.Report) EmailReceived {
	outcomes := make([]Outcome, len(r.Outcomes))
	for i, o := range r.Outcomes {
		outcomes[i] = OutcomeFromModel(o)
	}

	skipped := make([]Skipped, len(r.Skipped))
	for i, s := range r.Skipped {
		skipped[i] = Skipped{SkipEvent: s, Message: s.Message()}
	}

	var promo *string
	if r.PromoCode != "" {
		code := r.PromoCode
		promo = &code
	}

	return EmailReceived{
		Message:   EmailReceivedMessage,
		Strategy:  r.Strategy,
		Outcomes:  outcomes,
		Skipped:   skipped,
		Filtered:  len(r.Filtered),
		PromoCode: promo,
	}
}

// RosterEntry is one player line on the roster
type RosterEntry struct {
	ID           string `json:"id"`
	FullName     string `json:"full_name"`
	ParentEmail  string `json:"parent_email"`
	JerseyNumber *int   `json:"jersey_number"`
}

// RosterDivision groups roster entries for a division
type RosterDivision struct {
	Name    string        `json:"name"`
	Players []RosterEntry `json:"players"`
}

// RosterSport groups divisions for a sport
type RosterSport struct {
	Sport     string           `json:"sport"`
	Divisions []RosterDivision `json:"divisions"`
}

// RosterFromService converts the grouped roster
func RosterFromService(sports []roster.Sport) []RosterSport {
	out := make([]RosterSport, len(sports))
	for i, s := range sports {
		divisions := make([]RosterDivision, len(s.Divisions))
		for j, d := range s.Divisions {
			players := make([]RosterEntry, len(d.Players))
			for k, e := range d.Players {
				players[k] = RosterEntry{
					ID:           string(e.PlayerID),
					FullName:     e.FullName,
					ParentEmail:  e.ParentEmail,
					JerseyNumber: e.JerseyNumber,
				}
			}
			divisions[j] = RosterDivision{Name: d.Name, Players: players}
		}
		out[i] = RosterSport{Sport: s.Name, Divisions: divisions}
	}
	return out
}

// PromoBackfill reports how many registrations received a promo code
type PromoBackfill struct {
	Updated int `json:"updated"`
}

// AuthResponse is the response for admin register and login
type AuthResponse struct {
	Email        string    `json:"email"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		Email:        s.Email,
		SessionToken: s.Token,
		ExpiresAt:    s.ExpiresAt,
	}
}

const (
	HealthOK          = "ok"
	HealthUnavailable = "unavailable"
)

// Health is the body of GET /health
type Health struct {
	Status string `json:"status"`
}
