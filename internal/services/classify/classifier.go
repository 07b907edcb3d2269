package classify

import (
	"strings"
	"unicode"

	"github.com/posa/jerseyapp/internal/model"
)

// Config lists the recognised keywords in priority order
type Config struct {
	Seasons []string
	Sports  []string
}

// DefaultConfig returns the keyword sets used by the league
func DefaultConfig() Config {
	return Config{
		Seasons: []string{"fall", "spring", "summer", "winter"},
		Sports:  []string{"soccer", "basketball", "baseball", "softball", "volleyball", "flag"},
	}
}

// Classifier derives sport and season tags from program text
type Classifier struct {
	seasons map[string]struct{}
	sports  map[string]struct{}
}

// New creates a Classifier from cfg
func New(cfg Config) *Classifier {
	return &Classifier{
		seasons: keywordSet(cfg.Seasons),
		sports:  keywordSet(cfg.Sports),
	}
}

// Classify returns the first sport and the first season keyword found in the
// program text, scanning left to right. Missing tags are model.Unknown.
func (c *Classifier) Classify(program string) (sport, season string) {
	sport, season = model.Unknown, model.Unknown
	for _, token := range tokenize(program) {
		if _, ok := c.sports[token]; ok && sport == model.Unknown {
			sport = token
		}
		if _, ok := c.seasons[token]; ok && season == model.Unknown {
			season = token
		}
	}
	return sport, season
}

// Annotate fills Sport and Season on each registrant from its program
func (c *Classifier) Annotate(registrants []model.ExtractedRegistrant) {
	for i := range registrants {
		registrants[i].Sport, registrants[i].Season = c.Classify(registrants[i].Program)
	}
}

func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func keywordSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = struct{}{}
	}
	return set
}
