package translator

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NoMatchSentinel marks station rows whose ID could not be rewritten to a
// card ID when the ledger was prepared. These rows are counted, never merged.
const NoMatchSentinel = "No Match"

// ErrMalformedSource indicates the lookup workbook is missing a required column.
var ErrMalformedSource = errors.New("lookup table is missing a required column")

// Table is the bidirectional card-ID <-> API-ID mapping built from the static
// lookup workbook. Forward and reverse maps are exact inverses over the
// defined domain; lookups outside it miss explicitly.
type Table struct {
	forward map[string]int64
	reverse map[int64]string
}

// New returns an empty table. All lookups miss until pairs are added.
func New() *Table {
	return &Table{
		forward: make(map[string]int64),
		reverse: make(map[int64]string),
	}
}

// Add registers one (shortID, longID) pair. Later pairs for the same key
// overwrite earlier ones, keeping both directions consistent.
func (t *Table) Add(shortID string, longID int64) {
	t.forward[shortID] = longID
	t.reverse[longID] = shortID
}

// Len returns the number of mapped pairs.
func (t *Table) Len() int {
	return len(t.forward)
}

// Forward maps a short card ID to its long API ID.
func (t *Table) Forward(shortID string) (int64, bool) {
	longID, ok := t.forward[CanonicalShort(shortID)]
	return longID, ok
}

// Reverse maps a long API ID back to its short card ID.
func (t *Table) Reverse(longID int64) (string, bool) {
	shortID, ok := t.reverse[longID]
	return shortID, ok
}

// CanonicalShort normalizes a card ID as printed on the card. Short IDs are
// opaque strings (leading zeros are significant); only surrounding
// whitespace is stripped.
func CanonicalShort(v string) string {
	return strings.TrimSpace(v)
}

// CanonicalLong converts a long-ID cell value to its integral form. Spreadsheet
// reads and JSON decodes deliver the same ID as "12345", "12345.0" or 1.2345e4;
// all of them must land on one int64 so lookups cannot silently miss.
func CanonicalLong(v string) (int64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, fmt.Errorf("empty long ID")
	}
	if id, err := strconv.ParseInt(v, 10, 64); err == nil {
		return id, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid long ID %q: %w", v, err)
	}
	return CanonicalLongFloat(f)
}

// CanonicalLongFloat converts a numeric long ID to int64, rejecting
// non-integral values.
func CanonicalLongFloat(f float64) (int64, error) {
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("long ID %v is not integral", f)
	}
	if f < math.MinInt64 || f > math.MaxInt64 {
		return 0, fmt.Errorf("long ID %v out of range", f)
	}
	return int64(f), nil
}
