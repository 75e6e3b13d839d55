package store

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// DayLayout is the calendar-day key format used throughout the store.
const DayLayout = "2006-01-02"

// DailyRecord holds one member's events for a single calendar day.
// Stations is ordered by visit, Weights by weighing event. Either may be empty.
type DailyRecord struct {
	Stations []string  `json:"stations"`
	Weights  []float64 `json:"weights"`
}

// HasStations reports whether the day has at least one counter visit.
func (d *DailyRecord) HasStations() bool {
	return d != nil && len(d.Stations) > 0
}

// HasWeights reports whether the day has at least one weight measurement.
func (d *DailyRecord) HasWeights() bool {
	return d != nil && len(d.Weights) > 0
}

// TotalWeight returns the sum of the day's measurements in grams.
func (d *DailyRecord) TotalWeight() float64 {
	var total float64
	for _, w := range d.Weights {
		total += w
	}
	return total
}

// Attributes is the fixed member attribute set supplied by the weighing service.
type Attributes struct {
	Name      string
	House     string
	YearGroup string
	FormClass string
	Balance   *decimal.Decimal
}

// MemberRecord is one member's attribute fields plus a day -> DailyRecord map.
// Attribute fields are populated once, by the first source that supplies them,
// and never overwritten afterwards.
type MemberRecord struct {
	Name      string
	House     string
	YearGroup string
	FormClass string
	Balance   *decimal.Decimal
	Days      map[string]*DailyRecord
}

// EnsureDay returns the DailyRecord for day, creating it if needed.
func (m *MemberRecord) EnsureDay(day string) *DailyRecord {
	if m.Days == nil {
		m.Days = make(map[string]*DailyRecord)
	}
	rec, ok := m.Days[day]
	if !ok {
		rec = &DailyRecord{}
		m.Days[day] = rec
	}
	return rec
}

// SetAttributesIfAbsent applies the set-if-absent merge rule: each attribute
// field is written only when it is currently empty, so the outcome does not
// depend on which source supplies attributes first.
func (m *MemberRecord) SetAttributesIfAbsent(a Attributes) {
	if m.Name == "" {
		m.Name = a.Name
	}
	if m.House == "" {
		m.House = a.House
	}
	if m.YearGroup == "" {
		m.YearGroup = a.YearGroup
	}
	if m.FormClass == "" {
		m.FormClass = a.FormClass
	}
	if m.Balance == nil {
		m.Balance = a.Balance
	}
}

// HasAttributes reports whether any source ever supplied attribute fields.
func (m *MemberRecord) HasAttributes() bool {
	return m.Name != ""
}

// Store is the unified per-member data set, keyed by short card ID.
// It is the sole persisted artifact and the input to all aggregation.
type Store map[string]*MemberRecord

// Ensure returns the MemberRecord for shortID, creating it if needed.
func (s Store) Ensure(shortID string) *MemberRecord {
	rec, ok := s[shortID]
	if !ok {
		rec = &MemberRecord{}
		s[shortID] = rec
	}
	return rec
}

// Attribute keys of the persisted member object. Every other key is an ISO date.
const (
	keyName      = "name"
	keyHouse     = "house"
	keyYearGroup = "yeargroup"
	keyFormClass = "formclass"
	keyBalance   = "balance"
)

type dailyRecordJSON struct {
	Stations []string  `json:"stations"`
	Weights  []float64 `json:"weights"`
}

// MarshalJSON serializes the day's events, keeping empty sequences as [].
func (d *DailyRecord) MarshalJSON() ([]byte, error) {
	out := dailyRecordJSON{Stations: d.Stations, Weights: d.Weights}
	if out.Stations == nil {
		out.Stations = []string{}
	}
	if out.Weights == nil {
		out.Weights = []float64{}
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores a day's events, normalizing null sequences to empty.
func (d *DailyRecord) UnmarshalJSON(data []byte) error {
	var in dailyRecordJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.Stations == nil {
		in.Stations = []string{}
	}
	if in.Weights == nil {
		in.Weights = []float64{}
	}
	d.Stations = in.Stations
	d.Weights = in.Weights
	return nil
}

// MarshalJSON produces the flat member object: ISO date keys mixed with the
// fixed attribute keys. Attributes that were never supplied are omitted.
func (m *MemberRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(m.Days)+5)
	for day, rec := range m.Days {
		out[day] = rec
	}
	if m.Name != "" {
		out[keyName] = m.Name
	}
	if m.House != "" {
		out[keyHouse] = m.House
	}
	if m.YearGroup != "" {
		out[keyYearGroup] = m.YearGroup
	}
	if m.FormClass != "" {
		out[keyFormClass] = m.FormClass
	}
	if m.Balance != nil {
		out[keyBalance] = m.Balance
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores a member object, splitting attribute keys from day keys.
func (m *MemberRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Days = make(map[string]*DailyRecord, len(raw))
	for key, val := range raw {
		switch key {
		case keyName:
			if err := json.Unmarshal(val, &m.Name); err != nil {
				return fmt.Errorf("failed to parse member name: %w", err)
			}
		case keyHouse:
			if err := json.Unmarshal(val, &m.House); err != nil {
				return fmt.Errorf("failed to parse member house: %w", err)
			}
		case keyYearGroup:
			if err := json.Unmarshal(val, &m.YearGroup); err != nil {
				return fmt.Errorf("failed to parse member year group: %w", err)
			}
		case keyFormClass:
			if err := json.Unmarshal(val, &m.FormClass); err != nil {
				return fmt.Errorf("failed to parse member form class: %w", err)
			}
		case keyBalance:
			var bal decimal.Decimal
			if err := json.Unmarshal(val, &bal); err != nil {
				return fmt.Errorf("failed to parse member balance: %w", err)
			}
			m.Balance = &bal
		default:
			rec := &DailyRecord{}
			if err := json.Unmarshal(val, rec); err != nil {
				return fmt.Errorf("failed to parse daily record %q: %w", key, err)
			}
			m.Days[key] = rec
		}
	}
	return nil
}
