package extract

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/posa/jerseyapp/internal/model"
	"github.com/posa/jerseyapp/internal/testutil"
)

type ExtractorSuite struct {
	suite.Suite
	logs      *bytes.Buffer
	extractor *Extractor
}

func TestExtractorSuite(t *testing.T) {
	suite.Run(t, new(ExtractorSuite))
}

func (s *ExtractorSuite) SetupTest() {
	var logger *slog.Logger
	logger, s.logs = testutil.CaptureLogger()
	s.extractor = New(DefaultConfig(), GoqueryRenderer{}, logger)
}

// crlf converts a fixture to wire line endings
func crlf(s string) string {
	return strings.ReplaceAll(s, "\n", "\r\n")
}

const twoBlocks = `Name: Player One
Program: Winter Soccer
Division: U10
Parent Email: p1@example.com

Name: Player Two
Program: Winter Soccer
Division: U12
Parent Email: p2@example.com
`

func (s *ExtractorSuite) TestTwoLabelBlocks() {
	res := s.extractor.Extract(twoBlocks)

	s.Require().Len(res.Registrants, 2)
	s.Equal("labels", res.Strategy)
	s.Empty(res.Skipped)

	first := res.Registrants[0]
	s.Equal("Player One", first.FullName)
	s.Equal("Winter Soccer", first.Program)
	s.Equal("U10", first.Division)
	s.Equal("p1@example.com", first.ParentEmail)
	s.Empty(first.OrderNumber)
	s.Nil(first.OrderDate)

	s.Equal("Player Two", res.Registrants[1].FullName)
	s.Equal("U12", res.Registrants[1].Division)
}

func (s *ExtractorSuite) TestLabelsAreCaseInsensitiveAndSpaced() {
	res := s.extractor.Extract("  name :  Player One  \nPROGRAM: Fall Soccer\ndivision:U8\nparent   email: Mom <mom@example.com>\n")

	s.Require().Len(res.Registrants, 1)
	s.Equal("Player One", res.Registrants[0].FullName)
	s.Equal("U8", res.Registrants[0].Division)
	s.Equal("mom@example.com", res.Registrants[0].ParentEmail)
}

func (s *ExtractorSuite) TestOptionalOrderFields() {
	res := s.extractor.Extract(`Name: Player One
Program: Fall Soccer
Division: U10
Parent Email: p1@example.com
Order Number: 12345
Order Date: January 1, 2024

Name: Player Two
Program: Fall Soccer
Division: U10
Parent Email: p2@example.com
Order Date: Feb 10, 2024
`)

	s.Require().Len(res.Registrants, 2)
	s.Equal("12345", res.Registrants[0].OrderNumber)
	s.Require().NotNil(res.Registrants[0].OrderDate)
	s.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *res.Registrants[0].OrderDate)
	s.Require().NotNil(res.Registrants[1].OrderDate)
	s.Equal(time.February, res.Registrants[1].OrderDate.Month())
}

func (s *ExtractorSuite) TestMissingSingleFieldIsLogged() {
	res := s.extractor.Extract("Name: John Doe\nProgram: Spring Soccer\nParent Email: p@example.com")

	s.Empty(res.Registrants)
	s.Require().Len(res.Skipped, 1)
	s.Equal([]string{LabelDivision}, res.Skipped[0].Missing)
	s.Contains(s.logs.String(), "missing: Division")
}

func (s *ExtractorSuite) TestMissingSeveralFieldsAreAllLogged() {
	res := s.extractor.Extract("Program: Spring Soccer\nDivision: U12")

	s.Require().Len(res.Skipped, 1)
	s.Equal("missing: Name, Parent Email", res.Skipped[0].Message())
	s.Contains(s.logs.String(), "missing: Name, Parent Email")
}

func (s *ExtractorSuite) TestMalformedBlockDoesNotAbortOthers() {
	res := s.extractor.Extract(`Name: Broken
Program: Fall Soccer

Name: Player One
Program: Fall Soccer
Division: U10
Parent Email: p1@example.com
`)

	s.Require().Len(res.Registrants, 1)
	s.Equal("Player One", res.Registrants[0].FullName)
	s.Require().Len(res.Skipped, 1)
	s.Equal(1, res.Skipped[0].Block)
}

func (s *ExtractorSuite) TestInvalidOrderDateSkipsBlock() {
	res := s.extractor.Extract(`Name: Player One
Program: Fall Soccer
Division: U10
Parent Email: p1@example.com
Order Date: 2024-01-01

Name: Player Two
Program: Fall Soccer
Division: U10
Parent Email: p2@example.com
`)

	s.Require().Len(res.Registrants, 1)
	s.Equal("Player Two", res.Registrants[0].FullName)
	s.Require().Len(res.Skipped, 1)
	s.Equal(ReasonInvalidDate, res.Skipped[0].Reason)
	s.Equal("2024-01-01", res.Skipped[0].Value)
	s.Contains(s.logs.String(), "invalid order date")
}

func (s *ExtractorSuite) TestNonYouthBlocksAreFiltered() {
	res := s.extractor.Extract(`Name: Coach Carter
Program: Adult League Softball
Division: Open
Parent Email: coach@example.com

Name: Camper Kid
Program: Summer Camp
Division: U8
Parent Email: camp@example.com

Name: Player One
Program: Fall Soccer
Division: U10
Parent Email: p1@example.com
`)

	s.Require().Len(res.Registrants, 1)
	s.Equal("Player One", res.Registrants[0].FullName)
	s.Require().Len(res.Filtered, 2)
	s.Equal("Adult League", res.Filtered[0].Marker)
	s.Equal("Camp", res.Filtered[1].Marker)
	s.Contains(s.logs.String(), "skipping non-youth registrant block")
}

func (s *ExtractorSuite) TestProseBlocksAreIgnored() {
	res := s.extractor.Extract("Thank you for your order!\n\n" + twoBlocks + "\nSee you on the field.")

	s.Len(res.Registrants, 2)
	s.Empty(res.Skipped)
}

func (s *ExtractorSuite) TestNothingFound() {
	res := s.extractor.Extract("Hello there,\nnothing to see here.")

	s.Empty(res.Registrants)
	s.Empty(res.Strategy)
	s.Contains(s.logs.String(), "no matching order details")
}

func (s *ExtractorSuite) TestEmptyInput() {
	res := s.extractor.Extract("")
	s.Empty(res.Registrants)
}

func (s *ExtractorSuite) TestHTMLMultipart() {
	raw := crlf(`MIME-Version: 1.0
Subject: Test
Content-Type: multipart/alternative; boundary="BOUNDARY"

--BOUNDARY
Content-Type: text/html; charset="us-ascii"
Content-Transfer-Encoding: 7bit

<html><body>
Name: John Doe<br>
Program: Fall Soccer<br>
Division: U10<br>
Parent Email: parent@example.com<br>
Order Number: 12345<br>
Order Date: January 1, 2024
</body></html>

--BOUNDARY--
`)

	res := s.extractor.Extract(raw)

	s.Require().Len(res.Registrants, 1)
	reg := res.Registrants[0]
	s.Equal("John Doe", reg.FullName)
	s.Equal("Fall Soccer", reg.Program)
	s.Equal("U10", reg.Division)
	s.Equal("parent@example.com", reg.ParentEmail)
	s.Equal("12345", reg.OrderNumber)
}

func (s *ExtractorSuite) TestHTMLTableFixture() {
	raw := crlf(`MIME-Version: 1.0
Subject: Order
Content-Type: multipart/alternative; boundary="b1"

--b1
Content-Type: text/html; charset="utf-8"

<html>
<head><style>td { padding: 2px; }</style></head>
<body>
<p>Thank you for registering with Pines Youth Sports.</p>
<table>
  <tr><td>Name:</td><td>Sally Smith</td></tr>
  <tr><td>Program:</td><td>Winter Basketball</td></tr>
  <tr><td>Division:</td><td>U12</td></tr>
  <tr><td>Parent Email:</td><td>sallyparent@example.com</td></tr>
  <tr><td>Order Number:</td><td>987654321</td></tr>
  <tr><td>Order Date:</td><td>February 10, 2024</td></tr>
</table>
</body>
</html>
--b1--
`)

	res := s.extractor.Extract(raw)

	s.Require().Len(res.Registrants, 1)
	reg := res.Registrants[0]
	s.Equal("Sally Smith", reg.FullName)
	s.Equal("Winter Basketball", reg.Program)
	s.Equal("U12", reg.Division)
	s.Equal("sallyparent@example.com", reg.ParentEmail)
	s.Equal("987654321", reg.OrderNumber)
	s.Require().NotNil(reg.OrderDate)
	s.Equal(time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), *reg.OrderDate)
}

func (s *ExtractorSuite) TestMultipartPrefersPlainText() {
	raw := crlf(`MIME-Version: 1.0
Content-Type: multipart/alternative; boundary="sep"

--sep
Content-Type: text/html

<p>Name: Html Kid<br>Program: Fall Soccer<br>Division: U6<br>Parent Email: h@example.com</p>
--sep
Content-Type: text/plain

Name: Plain Kid
Program: Fall Soccer
Division: U6
Parent Email: p@example.com
--sep--
`)

	res := s.extractor.Extract(raw)

	s.Require().Len(res.Registrants, 1)
	s.Equal("Plain Kid", res.Registrants[0].FullName)
}

func (s *ExtractorSuite) TestQuotedPrintablePart() {
	raw := crlf(`MIME-Version: 1.0
Content-Type: multipart/mixed; boundary="qp"

--qp
Content-Type: text/plain; charset="utf-8"
Content-Transfer-Encoding: quoted-printable

Name: Player One
Program: Winter Soc=
cer
Division: U10
Parent Email: p1=40example.com
--qp--
`)

	res := s.extractor.Extract(raw)

	s.Require().Len(res.Registrants, 1)
	s.Equal("Winter Soccer", res.Registrants[0].Program)
	s.Equal("p1@example.com", res.Registrants[0].ParentEmail)
}

func (s *ExtractorSuite) TestSoftLineBreaksInPlainText() {
	res := s.extractor.Extract("Name: Player One\nProgram: Winter Soc=\ncer\nDivision: U10\nParent Email: p1@example.com")

	s.Require().Len(res.Registrants, 1)
	s.Equal("Winter Soccer", res.Registrants[0].Program)
}

func (s *ExtractorSuite) TestTabularFallback() {
	res := s.extractor.Extract("1 Wells Chilcott 2025 Pines Fall Soccer - U6 $25.00 $0.00")

	s.Require().Len(res.Registrants, 1)
	s.Equal("tabular", res.Strategy)
	reg := res.Registrants[0]
	s.Equal("Wells Chilcott", reg.FullName)
	s.Equal("2025 Pines Fall Soccer - U6", reg.Program)
	s.Equal("U6", reg.Division)
	s.Empty(reg.ParentEmail)
}

func (s *ExtractorSuite) TestTabularFallbackUsesRecipient() {
	raw := crlf(`To: Parent Person <parent@example.com>
Subject: Your order
Content-Type: text/plain

Qty Player Program Price Discount
1 Wells Chilcott2025 Pines Fall Soccer - U6 $25.00 $0.00
1 Ava Chilcott2025 Pines Fall Soccer - U8 $25.00 $0.00
1 Dad Chilcott2025 Pines Adult League Softball - Open $40.00 $0.00
`)

	res := s.extractor.Extract(raw)

	s.Require().Len(res.Registrants, 2)
	s.Equal("Wells Chilcott", res.Registrants[0].FullName)
	s.Equal("parent@example.com", res.Registrants[0].ParentEmail)
	s.Equal("Ava Chilcott", res.Registrants[1].FullName)
	s.Equal("U8", res.Registrants[1].Division)
	s.Require().Len(res.Filtered, 1)
	s.Equal("Adult League", res.Filtered[0].Marker)
}

func (s *ExtractorSuite) TestTabularDivisionIsAfterLastDash() {
	res := s.extractor.Extract("1 Wells Chilcott2025 Pines Fall Soccer - Coed - U6 $25.00 $0.00")

	s.Require().Len(res.Registrants, 1)
	reg := res.Registrants[0]
	s.Equal("Wells Chilcott", reg.FullName)
	s.Equal("2025 Pines Fall Soccer - Coed - U6", reg.Program)
	s.Equal("U6", reg.Division)
}

func (s *ExtractorSuite) TestMalformedLabelsKeepOrderRowsOut() {
	res := s.extractor.Extract("Name: John Doe\nProgram: Spring Soccer\nParent Email: p@example.com\n\n" +
		"1 Wells Chilcott2025 Pines Fall Soccer - U6 $25.00")

	s.Equal("labels", res.Strategy)
	s.Empty(res.Registrants)
	s.Require().Len(res.Skipped, 1)
	s.Equal([]string{LabelDivision}, res.Skipped[0].Missing)
	s.Contains(s.logs.String(), "missing: Division")
}

func (s *ExtractorSuite) TestOrderSummaryLabelsDoNotBlockTabular() {
	res := s.extractor.Extract("Order Number: 555\nOrder Date: March 3, 2025\n\n" +
		"1 Wells Chilcott2025 Pines Fall Soccer - U6 $25.00")

	s.Equal("tabular", res.Strategy)
	s.Require().Len(res.Registrants, 1)
	s.Equal("U6", res.Registrants[0].Division)
	s.Empty(res.Skipped)
}

func (s *ExtractorSuite) TestFilteredLabelsStillClaimDocument() {
	res := s.extractor.Extract("Name: Camper Kid\nProgram: Summer Camp\nDivision: U8\nParent Email: c@example.com\n\n" +
		"1 Wells Chilcott2025 Pines Fall Soccer - U6 $25.00")

	s.Equal("labels", res.Strategy)
	s.Empty(res.Registrants)
	s.Require().Len(res.Filtered, 1)
	s.Equal("Camp", res.Filtered[0].Marker)
}

func (s *ExtractorSuite) TestHTMLParagraphPerLabel() {
	raw := crlf(`MIME-Version: 1.0
Content-Type: text/html; charset="utf-8"

<p>Name: Jo Doe</p><p>Program: Fall Soccer</p><p>Division: U8</p><p>Parent Email: jo@example.com</p>
`)

	res := s.extractor.Extract(raw)

	s.Require().Len(res.Registrants, 1)
	s.Equal("Jo Doe", res.Registrants[0].FullName)
	s.Equal("U8", res.Registrants[0].Division)
	s.Empty(res.Skipped)
}

func (s *ExtractorSuite) TestHTMLParagraphPerRegistrant() {
	raw := crlf(`MIME-Version: 1.0
Content-Type: text/html; charset="utf-8"

<p>Name: Player One<br>Program: Winter Soccer<br>Division: U10<br>Parent Email: p1@example.com</p>
<p>Name: Player Two<br>Program: Winter Soccer<br>Division: U12<br>Parent Email: p2@example.com</p>
`)

	res := s.extractor.Extract(raw)

	s.Require().Len(res.Registrants, 2)
	s.Equal("Player Two", res.Registrants[1].FullName)
}

func (s *ExtractorSuite) TestLabelsWinOverTabular() {
	res := s.extractor.Extract("1 Someone Else 2025 Pines Fall Soccer - U6\n\n" + twoBlocks)

	s.Equal("labels", res.Strategy)
	s.Len(res.Registrants, 2)
}

func TestSkipEventMessage(t *testing.T) {
	assert.Equal(t, "missing: Division", SkipEvent{Missing: []string{"Division"}}.Message())
	assert.Equal(t, ReasonInvalidDate, SkipEvent{Reason: ReasonInvalidDate}.Message())
}

type stubStrategy struct {
	name   string
	result Result
	calls  int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Extract(doc Document) Result {
	s.calls++
	return s.result
}

func TestStrategiesRunInOrderUntilOneProduces(t *testing.T) {
	empty := &stubStrategy{name: "empty", result: Result{Strategy: "empty", Skipped: []SkipEvent{{Block: 1, Reason: "x"}}}}
	winner := &stubStrategy{name: "winner", result: Result{Strategy: "winner", Registrants: make([]model.ExtractedRegistrant, 1)}}
	never := &stubStrategy{name: "never"}

	e := NewWithStrategies(nil, nil, empty, winner, never)
	res := e.Extract("anything")

	require.Len(t, res.Registrants, 1)
	assert.Equal(t, "winner", res.Strategy)
	assert.Empty(t, res.Skipped)
	assert.Equal(t, 1, empty.calls)
	assert.Equal(t, 0, never.calls)
}

func TestMatchingStrategyClaimsDocumentWithoutRegistrants(t *testing.T) {
	claimer := &stubStrategy{name: "claimer", result: Result{
		Strategy: "claimer",
		Matched:  1,
		Skipped:  []SkipEvent{{Block: 1, Missing: []string{LabelDivision}}},
	}}
	later := &stubStrategy{name: "later", result: Result{Strategy: "later", Registrants: make([]model.ExtractedRegistrant, 1)}}

	res := NewWithStrategies(nil, nil, claimer, later).Extract("anything")

	assert.Equal(t, "claimer", res.Strategy)
	assert.Empty(t, res.Registrants)
	assert.Len(t, res.Skipped, 1)
	assert.Equal(t, 0, later.calls)
}
