package ingest

import (
	"log/slog"

	"github.com/posa/jerseyapp/internal/model"
	"github.com/posa/jerseyapp/internal/services/classify"
	"github.com/posa/jerseyapp/internal/services/extract"
	"github.com/posa/jerseyapp/internal/services/promo"
)

// Parsed is everything learned from one email before touching storage
type Parsed struct {
	Strategy    string
	Registrants []model.ExtractedRegistrant
	// PromoCode is shared by every registrant in the email, empty when none applies
	PromoCode string
	Skipped   []extract.SkipEvent
	Filtered  []extract.FilterEvent
}

// Parser runs extraction, classification and promo derivation. It has no
// side effects and is used by both the server and the offline CLI.
type Parser struct {
	extractor  *extract.Extractor
	classifier *classify.Classifier
	promos     promo.Table
}

// NewParser creates a Parser from its parts
func NewParser(extractor *extract.Extractor, classifier *classify.Classifier, promos promo.Table) *Parser {
	return &Parser{
		extractor:  extractor,
		classifier: classifier,
		promos:     promos,
	}
}

// NewDefaultParser creates a Parser with the league's default rules
func NewDefaultParser(logger *slog.Logger) *Parser {
	return NewParser(
		extract.New(extract.DefaultConfig(), extract.GoqueryRenderer{}, logger),
		classify.New(classify.DefaultConfig()),
		promo.DefaultTable(),
	)
}

// Parse extracts and annotates the registrants in raw
func (p *Parser) Parse(raw string) *Parsed {
	res := p.extractor.Extract(raw)
	p.classifier.Annotate(res.Registrants)

	code, _ := p.promos.Derive(len(res.Registrants))
	return &Parsed{
		Strategy:    res.Strategy,
		Registrants: res.Registrants,
		PromoCode:   code,
		Skipped:     res.Skipped,
		Filtered:    res.Filtered,
	}
}
