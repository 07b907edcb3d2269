package promo

import "fmt"

// MaxRegistrants is the largest batch size that earns a code
const MaxRegistrants = 7

// Table maps a registrant count to a promo code
type Table map[int]string

// DefaultTable returns Pines1Player for one registrant and Pines<N>Players up to MaxRegistrants
func DefaultTable() Table {
	t := Table{1: "Pines1Player"}
	for n := 2; n <= MaxRegistrants; n++ {
		t[n] = fmt.Sprintf("Pines%dPlayers", n)
	}
	return t
}

// Derive returns the code for a batch of count registrants, if any
func (t Table) Derive(count int) (string, bool) {
	code, ok := t[count]
	return code, ok
}
