package extract

import (
	"regexp"
	"strings"

	"github.com/posa/jerseyapp/internal/model"
)

// orderLine matches vendor order rows such as
//
//	1 Wells Chilcott2025 Pines Fall Soccer - U6 $25.00 $0.00
//
// capturing the player name, the program and the division. The program runs
// up to the price column, so the division is the token after its last dash
// ("Fall Soccer - Coed - U6" is division U6).
var orderLine = regexp.MustCompile(
	`(?m)^[ \t]*\d+[ \t]+([A-Za-z][A-Za-z '\-]*?)[ \t]*(\d{4}[ \t]+[^\t\n$]*[ \t]-[ \t]*([A-Za-z0-9]+))`,
)

// TabularStrategy reads order-line rows positionally. The parent email comes
// from the message recipient; order number and date are left empty.
type TabularStrategy struct {
	markers markerSet
}

var _ Strategy = (*TabularStrategy)(nil)

// NewTabularStrategy creates a TabularStrategy from cfg
func NewTabularStrategy(cfg Config) *TabularStrategy {
	return &TabularStrategy{markers: newMarkerSet(cfg.ExclusionMarkers)}
}

func (s *TabularStrategy) Name() string {
	return "tabular"
}

func (s *TabularStrategy) Extract(doc Document) Result {
	res := Result{Strategy: s.Name()}

	for i, m := range orderLine.FindAllStringSubmatch(doc.Text, -1) {
		row := i + 1
		res.Matched++
		if marker, ok := s.markers.find(m[0]); ok {
			res.Filtered = append(res.Filtered, FilterEvent{Block: row, Marker: marker})
			continue
		}

		res.Registrants = append(res.Registrants, model.ExtractedRegistrant{
			FullName:    strings.TrimSpace(m[1]),
			Program:     strings.TrimSpace(m[2]),
			Division:    m[3],
			ParentEmail: doc.Message.To,
		})
	}
	return res
}
