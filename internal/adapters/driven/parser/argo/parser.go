// Package argo decodes Argo float profile files in the NetCDF classic format.
package argo

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
	"github.com/custodia-labs/oceanai-cli/internal/core/ports/driven"
	"github.com/custodia-labs/oceanai-cli/internal/logger"
	"github.com/custodia-labs/oceanai-cli/internal/netcdf"
)

// Ensure Parser implements the interface.
var _ driven.ProfileParser = (*Parser)(nil)

// Argo variable names.
const (
	varPlatform  = "PLATFORM_NUMBER"
	varLatitude  = "LATITUDE"
	varLongitude = "LONGITUDE"
	varCycle     = "CYCLE_NUMBER"
	varPressure  = "PRES"
	varTemp      = "TEMP"
	varSalinity  = "PSAL"
	varJulianDay = "JULD"
	varReference = "REFERENCE_DATE_TIME"
)

// referenceLayout is the YYYYMMDDHHMISS layout of REFERENCE_DATE_TIME.
const referenceLayout = "20060102150405"

// DefaultReferenceTime is the Argo JULD epoch.
var DefaultReferenceTime = time.Date(1950, time.January, 1, 0, 0, 0, 0, time.UTC)

// Parser reads Argo profile files.
type Parser struct{}

// NewParser creates a new Argo parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse decodes every profile row in the file.
//
// A file without a LATITUDE or LONGITUDE variable is rejected whole with a
// *domain.ParseError wrapping domain.ErrMissingCoordinates. A multi-row file
// whose variables exist but hold fill, NaN or ±Inf coordinates for some rows
// is not rejected: only those rows are dropped and logged, and the file is
// rejected only when no row keeps its coordinates. A malformed header or data
// section rejects the file with domain.ErrUnreadableFile.
func (p *Parser) Parse(ctx context.Context, file domain.SourceFile) ([]domain.RawProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := netcdf.Open(file.Path)
	if err != nil {
		return nil, reject(file.Name, "decoding netcdf", fmt.Errorf("%w: %w", domain.ErrUnreadableFile, err))
	}

	lat, okLat := f.Var(varLatitude)
	lon, okLon := f.Var(varLongitude)
	if !okLat || !okLon {
		return nil, reject(file.Name, "LATITUDE/LONGITUDE variable absent", domain.ErrMissingCoordinates)
	}

	lats, err := lat.Float64s()
	if err != nil {
		return nil, reject(file.Name, "reading latitude", fmt.Errorf("%w: %w", domain.ErrUnreadableFile, err))
	}
	lons, err := lon.Float64s()
	if err != nil {
		return nil, reject(file.Name, "reading longitude", fmt.Errorf("%w: %w", domain.ErrUnreadableFile, err))
	}

	reference := referenceTime(f)
	rows := min(len(lats), len(lons))
	profiles := make([]domain.RawProfile, 0, rows)

	for i := 0; i < rows; i++ {
		if missing(lat, lats[i]) || missing(lon, lons[i]) {
			logger.Warn("rejected profile record",
				"file", file.Name, "row", i, "reason", domain.ErrMissingCoordinates.Error())
			continue
		}

		raw := domain.RawProfile{
			SourceFile:     file.Name,
			Index:          i,
			PlatformNumber: platformNumber(f, i),
			CycleNumber:    cycleNumber(f, i),
			Latitude:       lats[i],
			Longitude:      lons[i],
			Pressure:       measurements(f, varPressure, i),
			Temperature:    measurements(f, varTemp, i),
			Salinity:       measurements(f, varSalinity, i),
			ReferenceTime:  reference,
		}
		raw.JulianDay, raw.HasJulianDay = julianDay(f, i)
		profiles = append(profiles, raw)
	}

	if len(profiles) == 0 {
		return nil, reject(file.Name, "no profile has coordinates", domain.ErrMissingCoordinates)
	}

	logger.Debug("parsed file", "file", file.Name, "profiles", len(profiles), "rows", rows)
	return profiles, nil
}

func reject(file, reason string, err error) error {
	logger.Warn("rejected file", "file", file, "reason", reason, "error", err)
	return &domain.ParseError{File: file, Reason: reason, Err: err}
}

// missing reports fill values and non-finite numbers. Neither can be stored.
func missing(v *netcdf.Variable, x float64) bool {
	return math.IsNaN(x) || math.IsInf(x, 0) || v.IsFill(x)
}

// platformNumber strips NUL and space padding and '-' placeholders.
func platformNumber(f *netcdf.File, row int) string {
	v, ok := f.Var(varPlatform)
	if !ok {
		return ""
	}
	text, err := v.TextRow(row)
	if err != nil {
		// Some files store a single platform number for all rows.
		if text, err = v.TextRow(0); err != nil {
			return ""
		}
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case 0, ' ', '-':
			return -1
		}
		return r
	}, text)
}

func cycleNumber(f *netcdf.File, row int) int {
	v, ok := f.Var(varCycle)
	if !ok {
		return domain.UnknownCycle
	}
	values, err := v.Row(row)
	if err != nil || len(values) == 0 || missing(v, values[0]) {
		return domain.UnknownCycle
	}
	return int(values[0])
}

// measurements returns row values with fill values, NaN and ±Inf compressed out.
func measurements(f *netcdf.File, name string, row int) []float64 {
	v, ok := f.Var(name)
	if !ok {
		return []float64{}
	}
	values, err := v.Row(row)
	if err != nil {
		logger.Debug("measurement row unreadable", "variable", name, "row", row, "error", err)
		return []float64{}
	}
	out := values[:0]
	for _, x := range values {
		if !missing(v, x) {
			out = append(out, x)
		}
	}
	return out
}

func julianDay(f *netcdf.File, row int) (float64, bool) {
	v, ok := f.Var(varJulianDay)
	if !ok {
		return 0, false
	}
	values, err := v.Row(row)
	if err != nil || len(values) == 0 || missing(v, values[0]) {
		return 0, false
	}
	return values[0], true
}

func referenceTime(f *netcdf.File) time.Time {
	v, ok := f.Var(varReference)
	if !ok {
		return DefaultReferenceTime
	}
	text, err := v.Text()
	if err != nil {
		return DefaultReferenceTime
	}
	t, err := time.ParseInLocation(referenceLayout, strings.TrimSpace(text), time.UTC)
	if err != nil {
		logger.Debug("invalid reference date", "value", text, "error", err)
		return DefaultReferenceTime
	}
	return t
}
