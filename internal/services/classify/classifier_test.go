package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/posa/jerseyapp/internal/model"
)

func TestClassify(t *testing.T) {
	c := New(DefaultConfig())

	tests := []struct {
		program string
		sport   string
		season  string
	}{
		{"Winter Soccer", "soccer", "winter"},
		{"2025 Pines Fall Soccer - U6", "soccer", "fall"},
		{"Spring Flag Football", "flag", "spring"},
		{"SUMMER VOLLEYBALL", "volleyball", "summer"},
		{"Winter Basketball", "basketball", "winter"},
		{"Tennis Clinic", model.Unknown, model.Unknown},
		{"Fall", model.Unknown, "fall"},
		{"", model.Unknown, model.Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.program, func(t *testing.T) {
			sport, season := c.Classify(tt.program)
			assert.Equal(t, tt.sport, sport)
			assert.Equal(t, tt.season, season)
		})
	}
}

func TestClassifyFirstMatchWins(t *testing.T) {
	c := New(DefaultConfig())

	sport, season := c.Classify("Spring Baseball / Fall Softball")
	assert.Equal(t, "baseball", sport)
	assert.Equal(t, "spring", season)
}

func TestClassifyIgnoresPunctuation(t *testing.T) {
	c := New(DefaultConfig())

	sport, season := c.Classify("(Fall) Soccer, U10")
	assert.Equal(t, "soccer", sport)
	assert.Equal(t, "fall", season)
}

func TestClassifyDoesNotMatchSubstrings(t *testing.T) {
	c := New(DefaultConfig())

	sport, season := c.Classify("Soccerball Fallout")
	assert.Equal(t, model.Unknown, sport)
	assert.Equal(t, model.Unknown, season)
}

func TestAnnotate(t *testing.T) {
	c := New(DefaultConfig())
	regs := []model.ExtractedRegistrant{
		{FullName: "Player One", Program: "Winter Soccer"},
		{FullName: "Player Two", Program: "Adult Tennis"},
	}

	c.Annotate(regs)

	assert.Equal(t, "soccer", regs[0].Sport)
	assert.Equal(t, "winter", regs[0].Season)
	assert.Equal(t, model.Unknown, regs[1].Sport)
}
