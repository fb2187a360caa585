package demo

import (
	"time"

	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
)

// SampleProfiles returns the fixed demo dataset: three Indian Ocean floats,
// two profiles for the first.
func SampleProfiles() []domain.Profile {
	at := func(day, hour int) time.Time {
		return time.Date(2024, time.March, day, hour, 0, 0, 0, time.UTC)
	}
	return []domain.Profile{
		{
			InstrumentID: 1902672,
			CycleNumber:  41,
			Timestamp:    at(1, 6),
			TimeSource:   domain.TimeSourceObserved,
			Latitude:     -12.41,
			Longitude:    67.88,
			Pressure:     []float64{5, 50, 200, 1000},
			Temperature:  []float64{28.9, 27.1, 16.4, 5.2},
			Salinity:     []float64{34.6, 34.9, 35.1, 34.7},
			SourceFile:   "sample_1902672_041.nc",
		},
		{
			InstrumentID: 1902672,
			CycleNumber:  42,
			Timestamp:    at(11, 6),
			TimeSource:   domain.TimeSourceObserved,
			Latitude:     -12.63,
			Longitude:    67.52,
			Pressure:     []float64{5, 50, 200, 1000, 1500},
			Temperature:  []float64{29.2, 27.4, 16.1, 5.0, 3.9},
			Salinity:     []float64{34.5, 34.9, 35.0, 34.7, 34.7},
			SourceFile:   "sample_1902672_042.nc",
		},
		{
			InstrumentID: 2902746,
			CycleNumber:  118,
			Timestamp:    at(9, 18),
			TimeSource:   domain.TimeSourceObserved,
			Latitude:     8.95,
			Longitude:    88.14,
			Pressure:     []float64{4, 100, 500, 2000},
			Temperature:  []float64{29.6, 24.8, 10.3, 2.6},
			Salinity:     []float64{33.2, 34.9, 35.0, 34.8},
			SourceFile:   "sample_2902746_118.nc",
		},
		{
			InstrumentID: 5906243,
			CycleNumber:  7,
			Timestamp:    at(10, 0),
			TimeSource:   domain.TimeSourceObserved,
			Latitude:     -31.07,
			Longitude:    102.45,
			Pressure:     []float64{6, 300},
			Temperature:  []float64{21.4, 12.8},
			Salinity:     []float64{35.7, 35.1},
			SourceFile:   "sample_5906243_007.nc",
		},
	}
}
