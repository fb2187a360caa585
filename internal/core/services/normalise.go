package services

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
	"github.com/custodia-labs/oceanai-cli/internal/logger"
)

// NormaliseOptions controls call-site policy for profile normalisation.
type NormaliseOptions struct {
	// RequireInstrumentID rejects records whose platform number does not parse.
	// When false such records get instrument id 0 (unknown).
	RequireInstrumentID bool

	// Now supplies the ingestion-time fallback timestamp. Defaults to time.Now.
	Now func() time.Time
}

// Timestamps outside this range are treated as undecodable.
var (
	minObservation = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
	maxObservation = time.Date(2200, 1, 1, 0, 0, 0, 0, time.UTC)
)

// NormaliseProfile validates a raw record and aligns its arrays.
//
// The three measurement arrays are truncated to their shortest common
// length, keeping the leading elements. A record left with no levels
// returns domain.ErrEmptyProfile.
func NormaliseProfile(raw domain.RawProfile, opts NormaliseOptions) (domain.Profile, error) {
	id, err := parseInstrumentID(raw.PlatformNumber)
	if err != nil {
		if opts.RequireInstrumentID {
			return domain.Profile{}, err
		}
		id = 0
	}

	if raw.Latitude < -90 || raw.Latitude > 90 || raw.Longitude < -180 || raw.Longitude > 180 ||
		math.IsNaN(raw.Latitude) || math.IsNaN(raw.Longitude) {
		return domain.Profile{}, domain.ErrInvalidCoordinates
	}

	pres, temp, psal := finite(raw.Pressure), finite(raw.Temperature), finite(raw.Salinity)
	n := min(len(pres), len(temp), len(psal))
	if n == 0 {
		return domain.Profile{}, domain.ErrEmptyProfile
	}

	p := domain.Profile{
		InstrumentID: id,
		CycleNumber:  raw.CycleNumber,
		Latitude:     raw.Latitude,
		Longitude:    raw.Longitude,
		Pressure:     pres[:n],
		Temperature:  temp[:n],
		Salinity:     psal[:n],
		SourceFile:   raw.SourceFile,
	}

	if ts, ok := observationTime(raw); ok {
		p.Timestamp = ts
		p.TimeSource = domain.TimeSourceObserved
	} else {
		now := time.Now
		if opts.Now != nil {
			now = opts.Now
		}
		p.Timestamp = now().UTC()
		p.TimeSource = domain.TimeSourceIngestion
		logger.Warn("observation time unavailable, using ingestion time",
			"file", raw.SourceFile, "row", raw.Index)
	}

	return p, nil
}

// finite copies values without NaN and ±Inf, which no store can encode.
func finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, x := range values {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			out = append(out, x)
		}
	}
	return out
}

func parseInstrumentID(platform string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(platform), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidInstrumentID
	}
	return id, nil
}

func observationTime(raw domain.RawProfile) (time.Time, bool) {
	if !raw.HasJulianDay || math.IsNaN(raw.JulianDay) || math.IsInf(raw.JulianDay, 0) {
		return time.Time{}, false
	}
	// Beyond roughly ±290 years a time.Duration overflows.
	if math.Abs(raw.JulianDay) > 100000 {
		return time.Time{}, false
	}
	ref := raw.ReferenceTime
	if ref.IsZero() {
		ref = time.Date(1950, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	ts := ref.Add(time.Duration(raw.JulianDay * float64(24*time.Hour))).UTC()
	if ts.Before(minObservation) || ts.After(maxObservation) {
		return time.Time{}, false
	}
	return ts.Round(time.Microsecond), true
}
