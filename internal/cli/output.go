package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to stdout
func NewOutput(format string) *Output {
	return &Output{format: format, w: os.Stdout}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == OutputJSON {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == OutputJSON {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == OutputJSON {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Player:
		o.printPlayer(v)
	case []PlayerDetail:
		o.printPlayers(v)
	case PlayerDetail:
		o.printPlayerDetail(v)
	case AuthResult:
		o.printAuthResult(v)
	case []RosterSport:
		o.printRoster(v)
	case EmailReceived:
		o.printEmailReceived(v)
	case ParseResult:
		o.printParseResult(v)
	case HealthResult:
		o.printHealthResult(v)
	case PromoBackfill:
		fmt.Fprintf(o.w, "Promo code added to %d registration(s)\n", v.Updated)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Player response type (matches API)
type Player struct {
	ID           string `json:"id"`
	FullName     string `json:"full_name"`
	ParentEmail  string `json:"parent_email"`
	JerseyNumber *int   `json:"jersey_number"`
}

// Registration response type
type Registration struct {
	ID               string     `json:"id"`
	Program          string     `json:"program"`
	Division         string     `json:"division"`
	Sport            string     `json:"sport"`
	Season           string     `json:"season"`
	OrderNumber      string     `json:"order_number,omitempty"`
	OrderDate        *time.Time `json:"order_date,omitempty"`
	PromoCode        string     `json:"promo_code,omitempty"`
	ConfirmationSent bool       `json:"confirmation_sent"`
}

// PlayerDetail is a player with registrations
type PlayerDetail struct {
	Player
	Registrations []Registration `json:"registrations"`
}

// AuthResult is the admin session returned by register and login
type AuthResult struct {
	Email        string    `json:"email"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// RosterSport response type
type RosterSport struct {
	Sport     string `json:"sport"`
	Divisions []struct {
		Name    string   `json:"name"`
		Players []Player `json:"players"`
	} `json:"divisions"`
}

// Skipped describes an unusable registrant block
type Skipped struct {
	Block   int    `json:"block"`
	Message string `json:"message"`
}

// EmailReceived response type
type EmailReceived struct {
	Message  string `json:"message"`
	Strategy string `json:"strategy,omitempty"`
	Outcomes []struct {
		Result        string        `json:"result"`
		PlayerCreated bool          `json:"player_created"`
		Player        Player        `json:"player"`
		Registration  *Registration `json:"registration,omitempty"`
	} `json:"outcomes"`
	Skipped   []Skipped `json:"skipped"`
	Filtered  int       `json:"filtered"`
	PromoCode *string   `json:"promo_code"`
}

// Registrant is one registrant found by an offline parse
type Registrant struct {
	FullName    string     `json:"full_name"`
	Program     string     `json:"program"`
	Division    string     `json:"division"`
	ParentEmail string     `json:"parent_email"`
	OrderNumber string     `json:"order_number,omitempty"`
	OrderDate   *time.Time `json:"order_date,omitempty"`
	Sport       string     `json:"sport"`
	Season      string     `json:"season"`
}

// ParseResult is the output of an offline parse
type ParseResult struct {
	Strategy    string       `json:"strategy,omitempty"`
	Registrants []Registrant `json:"registrants"`
	PromoCode   string       `json:"promo_code,omitempty"`
	Skipped     []Skipped    `json:"skipped"`
	Filtered    []Filtered   `json:"filtered"`
}

// Filtered describes a block dropped as a non-youth program
type Filtered struct {
	Block  int    `json:"block"`
	Marker string `json:"marker"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

// PromoBackfill response type
type PromoBackfill struct {
	Updated int `json:"updated"`
}

func jerseyString(n *int) string {
	if n == nil {
		return "-"
	}
	return fmt.Sprintf("#%d", *n)
}

func (o *Output) printPlayer(p Player) {
	fmt.Fprintf(o.w, "%s %s (%s)\n", jerseyString(p.JerseyNumber), p.FullName, p.ID)
	if p.ParentEmail != "" {
		fmt.Fprintf(o.w, "  Parent: %s\n", p.ParentEmail)
	}
}

func (o *Output) printPlayers(players []PlayerDetail) {
	if len(players) == 0 {
		fmt.Fprintln(o.w, "No players")
		return
	}
	for _, p := range players {
		o.printPlayerDetail(p)
	}
}

func (o *Output) printPlayerDetail(p PlayerDetail) {
	o.printPlayer(p.Player)
	for _, r := range p.Registrations {
		fmt.Fprintf(o.w, "  - %s [%s] %s/%s\n", r.Program, r.Division, r.Sport, r.Season)
	}
}

func (o *Output) printAuthResult(a AuthResult) {
	fmt.Fprintf(o.w, "Admin: %s\n", a.Email)
	fmt.Fprintf(o.w, "Token: %s\n", a.SessionToken)
}

func (o *Output) printRoster(sports []RosterSport) {
	if len(sports) == 0 {
		fmt.Fprintln(o.w, "Roster is empty")
		return
	}
	for _, s := range sports {
		fmt.Fprintf(o.w, "%s\n", strings.ToUpper(s.Sport))
		for _, d := range s.Divisions {
			fmt.Fprintf(o.w, "  %s (%d)\n", d.Name, len(d.Players))
			for _, p := range d.Players {
				fmt.Fprintf(o.w, "    %-4s %s <%s>\n", jerseyString(p.JerseyNumber), p.FullName, p.ParentEmail)
			}
		}
	}
}

func (o *Output) printEmailReceived(e EmailReceived) {
	fmt.Fprintln(o.w, e.Message)
	for _, oc := range e.Outcomes {
		line := fmt.Sprintf("  %s: %s %s", oc.Result, jerseyString(oc.Player.JerseyNumber), oc.Player.FullName)
		if oc.Registration != nil {
			line += fmt.Sprintf(" - %s [%s]", oc.Registration.Program, oc.Registration.Division)
		}
		fmt.Fprintln(o.w, line)
	}
	o.printDiagnostics(e.Skipped, e.Filtered)
	if e.PromoCode != nil {
		fmt.Fprintf(o.w, "Promo code: %s\n", *e.PromoCode)
	}
}

func (o *Output) printParseResult(p ParseResult) {
	if len(p.Registrants) == 0 {
		fmt.Fprintln(o.w, "No matching order details")
	} else {
		fmt.Fprintf(o.w, "Registrants (%s):\n", p.Strategy)
	}
	for _, r := range p.Registrants {
		fmt.Fprintf(o.w, "  %s - %s [%s] %s/%s <%s>\n", r.FullName, r.Program, r.Division, r.Sport, r.Season, r.ParentEmail)
	}
	o.printDiagnostics(p.Skipped, len(p.Filtered))
	if p.PromoCode != "" {
		fmt.Fprintf(o.w, "Promo code: %s\n", p.PromoCode)
	}
}

func (o *Output) printDiagnostics(skipped []Skipped, filtered int) {
	for _, s := range skipped {
		fmt.Fprintf(o.w, "  skipped block %d: %s\n", s.Block, s.Message)
	}
	if filtered > 0 {
		fmt.Fprintf(o.w, "  filtered %d non-youth block(s)\n", filtered)
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
}
