package extract

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/posa/jerseyapp/internal/model"
)

// ReasonInvalidDate marks a block whose Order Date could not be parsed
const ReasonInvalidDate = "invalid order date"

// Config holds the extraction rules
type Config struct {
	// ExclusionMarkers are phrases that mark a block as a non-youth program
	ExclusionMarkers []string
	// DateLayouts are tried in order when parsing Order Date
	DateLayouts []string
}

// DefaultConfig returns the rules for the league's registration vendor
func DefaultConfig() Config {
	return Config{
		ExclusionMarkers: []string{"Camp", "Adult League"},
		DateLayouts:      []string{"January 2, 2006", "Jan 2, 2006"},
	}
}

// Document is a normalized email ready for strategies
type Document struct {
	Message Message
	Text    string
	Blocks  []Block
}

// SkipEvent records a block that looked like a registrant but could not be used
type SkipEvent struct {
	Block   int      `json:"block"`
	Missing []string `json:"missing,omitempty"`
	Reason  string   `json:"reason,omitempty"`
	Value   string   `json:"value,omitempty"`
}

// Message describes the skip, e.g. "missing: Division, Parent Email"
func (e SkipEvent) Message() string {
	if len(e.Missing) > 0 {
		return "missing: " + strings.Join(e.Missing, ", ")
	}
	return e.Reason
}

// FilterEvent records a block dropped because it names an excluded program
type FilterEvent struct {
	Block  int    `json:"block"`
	Marker string `json:"marker"`
}

// Result is the output of one extraction
type Result struct {
	// Strategy names the strategy that claimed the document, empty if none did
	Strategy    string
	Registrants []model.ExtractedRegistrant
	Skipped     []SkipEvent
	Filtered    []FilterEvent
	// Matched counts the blocks or rows written in the strategy's grammar,
	// including the skipped and filtered ones
	Matched int
}

// Strategy turns a normalized document into registrants
type Strategy interface {
	Name() string
	Extract(doc Document) Result
}

// Extractor turns raw email payloads into registrants
type Extractor struct {
	renderer   TextRenderer
	strategies []Strategy
	logger     *slog.Logger
}

// New creates an Extractor that tries the label grammar, then order-line rows
func New(cfg Config, renderer TextRenderer, logger *slog.Logger) *Extractor {
	return NewWithStrategies(renderer, logger, NewLabelStrategy(cfg), NewTabularStrategy(cfg))
}

// NewWithStrategies creates an Extractor that tries strategies in order.
// The first strategy that recognizes its grammar anywhere in the document
// wins, even if every block it found was skipped or filtered.
func NewWithStrategies(renderer TextRenderer, logger *slog.Logger, strategies ...Strategy) *Extractor {
	if renderer == nil {
		renderer = GoqueryRenderer{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Extractor{
		renderer:   renderer,
		strategies: strategies,
		logger:     logger.With(slog.String("component", "extractor")),
	}
}

// Parse normalizes raw into a Document without running any strategy
func (e *Extractor) Parse(raw string) Document {
	msg, err := ReadMessage(raw, e.renderer)
	if err != nil {
		e.logger.Warn("could not decode email, using raw text", slog.String("error", err.Error()))
		msg.Body, msg.HTML = raw, false
	}

	text := NormalizeText(msg.Body)
	return Document{
		Message: msg,
		Text:    text,
		Blocks:  SplitBlocks(text),
	}
}

// Extract returns the registrants found in raw together with diagnostics for
// skipped and filtered blocks. It never fails: unusable input yields an empty result.
func (e *Extractor) Extract(raw string) *Result {
	doc := e.Parse(raw)

	// a strategy that matched nothing may still report diagnostics; keep the
	// first such report for when no strategy claims the document
	var fallback *Result
	for _, strategy := range e.strategies {
		r := strategy.Extract(doc)
		if r.Matched > 0 || len(r.Registrants) > 0 {
			e.logDiagnostics(&r)
			return &r
		}
		if fallback == nil && (len(r.Skipped) > 0 || len(r.Filtered) > 0) {
			fallback = &r
		}
	}

	res := &Result{}
	if fallback != nil {
		res.Skipped, res.Filtered = fallback.Skipped, fallback.Filtered
	}
	e.logDiagnostics(res)
	return res
}

func (e *Extractor) logDiagnostics(res *Result) {
	for _, f := range res.Filtered {
		e.logger.Info("skipping non-youth registrant block",
			slog.Int("block", f.Block),
			slog.String("marker", f.Marker),
		)
	}
	for _, s := range res.Skipped {
		attrs := []any{slog.Int("block", s.Block)}
		if s.Value != "" {
			attrs = append(attrs, slog.String("value", s.Value))
		}
		e.logger.Warn(fmt.Sprintf("skipping registrant block, %s", s.Message()), attrs...)
	}

	if len(res.Registrants) == 0 {
		e.logger.Info("no matching order details")
		return
	}
	e.logger.Info("registrants extracted",
		slog.String("strategy", res.Strategy),
		slog.Int("count", len(res.Registrants)),
	)
}
