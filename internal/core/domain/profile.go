package domain

import (
	"fmt"
	"time"
)

// UnknownCycle is the cycle number recorded when a file does not carry one.
const UnknownCycle = -1

// TimeSource records where a profile timestamp came from.
type TimeSource string

// Timestamp sources.
const (
	// TimeSourceObserved means the timestamp was decoded from the source file.
	TimeSourceObserved TimeSource = "observed"

	// TimeSourceIngestion means decoding failed and ingestion time was used instead.
	// Consumers should treat such profiles as having an unknown observation time.
	TimeSourceIngestion TimeSource = "ingestion"
)

// String returns the string representation.
func (s TimeSource) String() string {
	return string(s)
}

// SourceFile is a binary profile file discovered in the source directory.
type SourceFile struct {
	// Path is the absolute or working-directory relative path.
	Path string

	// Name is the base file name and the file's identity in the ledger.
	Name string
}

// RawProfile is one record as decoded from a source file, before normalisation.
// Fill values have already been compressed out of the measurement arrays.
type RawProfile struct {
	// SourceFile is the name of the file the record came from.
	SourceFile string

	// Index is the record position within the file (N_PROF row).
	Index int

	// PlatformNumber is the instrument identifier with padding removed.
	PlatformNumber string

	// CycleNumber is the dive cycle, or UnknownCycle.
	CycleNumber int

	// Latitude in decimal degrees.
	Latitude float64

	// Longitude in decimal degrees.
	Longitude float64

	// Pressure readings in dbar.
	Pressure []float64

	// Temperature readings in degrees Celsius.
	Temperature []float64

	// Salinity readings in PSU.
	Salinity []float64

	// JulianDay is the observation time in days since ReferenceTime.
	JulianDay float64

	// HasJulianDay is false when the time variable was absent or held a fill value.
	HasJulianDay bool

	// ReferenceTime is the epoch JulianDay counts from.
	ReferenceTime time.Time
}

// Profile is a validated, normalised float profile ready to be persisted.
// Profiles are immutable once loaded.
type Profile struct {
	// ID is the store-generated row id. Zero before insertion.
	ID int64

	// InstrumentID is the float platform number. Zero means unknown.
	InstrumentID int64

	// CycleNumber is the dive cycle, or UnknownCycle.
	CycleNumber int

	// Timestamp is the observation time in UTC.
	Timestamp time.Time

	// TimeSource tells whether Timestamp was observed or substituted.
	TimeSource TimeSource

	// Latitude in decimal degrees, within [-90, 90].
	Latitude float64

	// Longitude in decimal degrees, within [-180, 180].
	Longitude float64

	// Pressure readings in dbar.
	Pressure []float64

	// Temperature readings in degrees Celsius.
	Temperature []float64

	// Salinity readings in PSU.
	Salinity []float64

	// SourceFile is the name of the file this profile was loaded from.
	SourceFile string
}

// Levels returns the number of aligned measurement levels.
func (p *Profile) Levels() int {
	return len(p.Pressure)
}

// HasInstrument reports whether the instrument id is known.
func (p *Profile) HasInstrument() bool {
	return p.InstrumentID > 0
}

// Location returns the profile position as a WKT point in (lon lat) order.
func (p *Profile) Location() string {
	return fmt.Sprintf("POINT(%g %g)", p.Longitude, p.Latitude)
}

// Validate checks the invariants every persisted profile must hold.
func (p *Profile) Validate() error {
	if p.Latitude < -90 || p.Latitude > 90 || p.Longitude < -180 || p.Longitude > 180 {
		return ErrInvalidCoordinates
	}
	n := len(p.Pressure)
	if n == 0 || len(p.Temperature) != n || len(p.Salinity) != n {
		return ErrEmptyProfile
	}
	if p.InstrumentID < 0 {
		return ErrInvalidInstrumentID
	}
	return nil
}

// FloatPosition is the latest known position of a float.
type FloatPosition struct {
	// InstrumentID is the float platform number.
	InstrumentID int64 `json:"float_id"`

	// Latitude in decimal degrees.
	Latitude float64 `json:"latitude"`

	// Longitude in decimal degrees.
	Longitude float64 `json:"longitude"`

	// Timestamp is when the float was at this position.
	Timestamp time.Time `json:"profile_time"`
}

// FloatStats summarises the store contents.
type FloatStats struct {
	// ActiveFloats is the number of distinct known instruments.
	ActiveFloats int64 `json:"active_floats"`

	// DailyProfiles is the number of profiles observed in the last 24 hours.
	DailyProfiles int64 `json:"daily_profiles"`

	// TotalProfiles is the number of stored profiles.
	TotalProfiles int64 `json:"total_profiles"`
}
