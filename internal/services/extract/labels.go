package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/posa/jerseyapp/internal/model"
)

// Field labels recognised in registrant blocks
const (
	LabelName        = "Name"
	LabelProgram     = "Program"
	LabelDivision    = "Division"
	LabelParentEmail = "Parent Email"
	LabelOrderNumber = "Order Number"
	LabelOrderDate   = "Order Date"
)

var (
	requiredLabels = []string{LabelName, LabelProgram, LabelDivision, LabelParentEmail}
	optionalLabels = []string{LabelOrderNumber, LabelOrderDate}
)

// LabelStrategy reads "Label: value" lines from each block
type LabelStrategy struct {
	patterns    map[string]*regexp.Regexp
	markers     markerSet
	dateLayouts []string
}

var _ Strategy = (*LabelStrategy)(nil)

// NewLabelStrategy creates a LabelStrategy from cfg
func NewLabelStrategy(cfg Config) *LabelStrategy {
	patterns := make(map[string]*regexp.Regexp)
	for _, label := range append(append([]string{}, requiredLabels...), optionalLabels...) {
		patterns[label] = labelPattern(label)
	}
	return &LabelStrategy{
		patterns:    patterns,
		markers:     newMarkerSet(cfg.ExclusionMarkers),
		dateLayouts: cfg.DateLayouts,
	}
}

// labelPattern matches a whole line "Label: value", any case, any spacing
func labelPattern(label string) *regexp.Regexp {
	words := strings.Fields(label)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?im)^[ \t]*` + strings.Join(words, `[ \t]+`) + `[ \t]*:[ \t]*(\S.*?)[ \t]*$`)
}

func (s *LabelStrategy) Name() string {
	return "labels"
}

func (s *LabelStrategy) Extract(doc Document) Result {
	res := Result{Strategy: s.Name()}

	for _, block := range doc.Blocks {
		fields := s.fields(block.Text)
		if !hasRegistrantLabel(fields) {
			// greeting, order summary, order table or other prose
			continue
		}
		res.Matched++

		if marker, ok := s.markers.find(block.Text); ok {
			res.Filtered = append(res.Filtered, FilterEvent{Block: block.Index, Marker: marker})
			continue
		}

		var missing []string
		for _, label := range requiredLabels {
			if fields[label] == "" {
				missing = append(missing, label)
			}
		}
		if len(missing) > 0 {
			res.Skipped = append(res.Skipped, SkipEvent{Block: block.Index, Missing: missing})
			continue
		}

		reg := model.ExtractedRegistrant{
			FullName:    fields[LabelName],
			Program:     fields[LabelProgram],
			Division:    fields[LabelDivision],
			ParentEmail: normalizeAddress(fields[LabelParentEmail]),
			OrderNumber: fields[LabelOrderNumber],
		}

		if raw := fields[LabelOrderDate]; raw != "" {
			date, ok := parseDate(raw, s.dateLayouts)
			if !ok {
				res.Skipped = append(res.Skipped, SkipEvent{Block: block.Index, Reason: ReasonInvalidDate, Value: raw})
				continue
			}
			reg.OrderDate = &date
		}

		res.Registrants = append(res.Registrants, reg)
	}
	return res
}

// fields returns the first value found for each label present in text
func (s *LabelStrategy) fields(text string) map[string]string {
	found := make(map[string]string)
	for label, p := range s.patterns {
		if m := p.FindStringSubmatch(text); m != nil {
			found[label] = m[1]
		}
	}
	return found
}

// hasRegistrantLabel reports whether fields holds a label describing the
// registrant itself rather than the order
func hasRegistrantLabel(fields map[string]string) bool {
	for _, label := range requiredLabels {
		if _, ok := fields[label]; ok {
			return true
		}
	}
	return false
}

func parseDate(value string, layouts []string) (time.Time, bool) {
	value = strings.Join(strings.Fields(value), " ")
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
