package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/posa/jerseyapp/internal/services/ingest"
	"github.com/posa/jerseyapp/internal/testutil"
)

const sampleEmail = `Name: Player One
Program: Winter Soccer
Division: U10
Parent Email: p1@example.com

Name: Player Two
Program: Winter Soccer

Name: Camper
Program: Summer Camp
Division: U8
Parent Email: camp@example.com`

func parseSample(t *testing.T) ParseResult {
	t.Helper()
	parsed := ingest.NewDefaultParser(testutil.NopLogger()).Parse(sampleEmail)
	return parseResultFrom(parsed)
}

func TestParseResultFrom(t *testing.T) {
	res := parseSample(t)

	assert.Equal(t, "labels", res.Strategy)
	require.Len(t, res.Registrants, 1)
	assert.Equal(t, "Player One", res.Registrants[0].FullName)
	assert.Equal(t, "soccer", res.Registrants[0].Sport)
	assert.Equal(t, "winter", res.Registrants[0].Season)
	assert.Equal(t, "Pines1Player", res.PromoCode)

	require.Len(t, res.Skipped, 1)
	assert.Equal(t, 2, res.Skipped[0].Block)
	assert.Equal(t, "missing: Division, Parent Email", res.Skipped[0].Message)

	require.Len(t, res.Filtered, 1)
	assert.Equal(t, 3, res.Filtered[0].Block)
	assert.Equal(t, "Camp", res.Filtered[0].Marker)
}

func TestPrintParseResultText(t *testing.T) {
	var buf bytes.Buffer
	out := &Output{format: "text", w: &buf}

	out.Print(parseSample(t))

	text := buf.String()
	assert.Contains(t, text, "Registrants (labels):")
	assert.Contains(t, text, "Player One - Winter Soccer [U10] soccer/winter <p1@example.com>")
	assert.Contains(t, text, "skipped block 2: missing: Division, Parent Email")
	assert.Contains(t, text, "filtered 1 non-youth block(s)")
	assert.Contains(t, text, "Promo code: Pines1Player")
}

func TestPrintParseResultJSON(t *testing.T) {
	var buf bytes.Buffer
	out := &Output{format: "json", w: &buf}

	out.Print(parseSample(t))

	var decoded ParseResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Len(t, decoded.Registrants, 1)
	assert.Equal(t, "Pines1Player", decoded.PromoCode)
}

func TestPrintEmptyParse(t *testing.T) {
	var buf bytes.Buffer
	out := &Output{format: "text", w: &buf}

	out.Print(parseResultFrom(ingest.NewDefaultParser(testutil.NopLogger()).Parse("hello there")))

	assert.Equal(t, "No matching order details\n", buf.String())
}

func TestPrintRoster(t *testing.T) {
	var sports []RosterSport
	require.NoError(t, json.Unmarshal([]byte(`[{"sport":"soccer","divisions":[
		{"name":"U6","players":[{"id":"p1","full_name":"Ben","parent_email":"b@example.com","jersey_number":7}]}
	]}]`), &sports))

	var buf bytes.Buffer
	(&Output{format: "text", w: &buf}).Print(sports)

	assert.Equal(t, "SOCCER\n  U6 (1)\n    #7   Ben <b@example.com>\n", buf.String())
}

func TestPrintPromoBackfill(t *testing.T) {
	var buf bytes.Buffer
	out := &Output{format: "text", w: &buf}
	out.Print(PromoBackfill{Updated: 3})
	assert.Equal(t, "Promo code added to 3 registration(s)\n", buf.String())

	buf.Reset()
	out = &Output{format: OutputJSON, w: &buf}
	out.Print(PromoBackfill{Updated: 3})
	assert.JSONEq(t, `{"updated": 3}`, buf.String())
}
