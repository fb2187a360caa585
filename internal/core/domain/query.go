package domain

import "time"

// QueryIntent is the classified purpose of a free-text question.
type QueryIntent string

// Query intents, in router priority order.
const (
	IntentAverageTemperature QueryIntent = "average_temperature"
	IntentLatest             QueryIntent = "latest"
	IntentDepth              QueryIntent = "depth"
	IntentSalinity           QueryIntent = "salinity"
	IntentLocation           QueryIntent = "location"
	IntentCount              QueryIntent = "count"
	IntentRecentWindow       QueryIntent = "recent_window"
	IntentUnclassified       QueryIntent = "unclassified"
)

// String returns the string representation.
func (i QueryIntent) String() string {
	return string(i)
}

// Description returns a human-readable description of the intent.
func (i QueryIntent) Description() string {
	switch i {
	case IntentAverageTemperature:
		return "Average temperature"
	case IntentLatest:
		return "Latest profile"
	case IntentDepth:
		return "Deepest floats"
	case IntentSalinity:
		return "Average salinity"
	case IntentLocation:
		return "Recent float locations"
	case IntentCount:
		return "Float and profile counts"
	case IntentRecentWindow:
		return "Recent profile activity"
	default:
		return "Unclassified"
	}
}

// TemplateShape is the shape of a parametrised data query.
type TemplateShape string

// Template shapes.
const (
	ShapeNone      TemplateShape = ""
	ShapeAggregate TemplateShape = "aggregate"
	ShapeTopN      TemplateShape = "top_n"
	ShapeGroupBy   TemplateShape = "group_by"
	ShapeCount     TemplateShape = "count"
)

// Measurement names a measurement array.
type Measurement string

// Measurements.
const (
	MeasurementPressure    Measurement = "pressure"
	MeasurementTemperature Measurement = "temperature"
	MeasurementSalinity    Measurement = "salinity"
)

// Unit returns the measurement unit.
func (m Measurement) Unit() string {
	switch m {
	case MeasurementPressure:
		return "dbar"
	case MeasurementTemperature:
		return "°C"
	case MeasurementSalinity:
		return "PSU"
	default:
		return ""
	}
}

// QueryTemplate is a read-only, parametrised query against the profile store.
// Templates are values: identical queries always produce identical templates.
type QueryTemplate struct {
	// Intent is the intent this template answers.
	Intent QueryIntent `json:"intent"`

	// Shape is the query shape.
	Shape TemplateShape `json:"shape,omitempty"`

	// Measurement is the array aggregated, for aggregate and group-by shapes.
	Measurement Measurement `json:"measurement,omitempty"`

	// Limit bounds top-N and group-by results.
	Limit int `json:"limit,omitempty"`

	// Window restricts counts to profiles observed within this duration of now.
	// Zero means all time.
	Window time.Duration `json:"window,omitempty"`
}

// IsEmpty reports whether the template runs no query.
func (t QueryTemplate) IsEmpty() bool {
	return t.Shape == ShapeNone
}

// Route is a classification outcome.
type Route struct {
	// Intent is the classified intent.
	Intent QueryIntent `json:"intent"`

	// Template is the query the intent maps to.
	Template QueryTemplate `json:"template"`
}

// Aggregate is the result of an aggregate template.
type Aggregate struct {
	// Measurement is the aggregated array.
	Measurement Measurement `json:"measurement"`

	// Mean is the average over all stored measurements.
	Mean float64 `json:"mean"`

	// Samples is the number of measurements averaged.
	Samples int64 `json:"samples"`
}

// ProfileSummary is a profile without its measurement arrays.
type ProfileSummary struct {
	InstrumentID int64      `json:"float_id"`
	CycleNumber  int        `json:"cycle_number"`
	Timestamp    time.Time  `json:"profile_time"`
	TimeSource   TimeSource `json:"time_source"`
	Latitude     float64    `json:"latitude"`
	Longitude    float64    `json:"longitude"`
}

// FloatDepth is the maximum pressure reached by a float.
type FloatDepth struct {
	InstrumentID int64   `json:"float_id"`
	MaxPressure  float64 `json:"max_depth"`
}

// Counts is the result of a count template.
type Counts struct {
	// Floats is the number of distinct floats. Only set for all-time counts.
	Floats int64 `json:"total_floats"`

	// Profiles is the number of profiles in the window.
	Profiles int64 `json:"total_profiles"`

	// Window is the counting window, zero for all time.
	Window time.Duration `json:"window,omitempty"`
}

// QueryResult is the typed structured context produced by a template.
// Exactly one of the payload fields is set for a non-empty result.
type QueryResult struct {
	// Intent is the intent that produced the result.
	Intent QueryIntent `json:"intent"`

	// Aggregate is set for aggregate templates with at least one sample.
	Aggregate *Aggregate `json:"aggregate,omitempty"`

	// Profiles is set for top-N templates.
	Profiles []ProfileSummary `json:"profiles,omitempty"`

	// Depths is set for group-by templates.
	Depths []FloatDepth `json:"depths,omitempty"`

	// Counts is set for count templates.
	Counts *Counts `json:"counts,omitempty"`

	// Demo is true when the data is a built-in sample rather than store contents.
	Demo bool `json:"demo,omitempty"`
}

// IsEmpty reports whether the result carries no data.
func (r *QueryResult) IsEmpty() bool {
	if r == nil {
		return true
	}
	if r.Aggregate != nil && r.Aggregate.Samples > 0 {
		return false
	}
	if r.Counts != nil {
		// An empty store has nothing to count; a quiet window is still an answer.
		return r.Counts.Window == 0 && r.Counts.Profiles == 0
	}
	return len(r.Profiles) == 0 && len(r.Depths) == 0
}

// AnswerSource records how an answer was produced.
type AnswerSource string

// Answer sources.
const (
	AnswerGenerated AnswerSource = "generated"
	AnswerFallback  AnswerSource = "fallback"
)

// Answer is the outcome of a retrieval-augmented question.
type Answer struct {
	// Query is the original question.
	Query string `json:"query"`

	// Intent is the classified intent.
	Intent QueryIntent `json:"intent"`

	// Text is the answer shown to the user.
	Text string `json:"answer"`

	// Source tells whether Text came from the generation backend or the fallback.
	Source AnswerSource `json:"source"`

	// Context is the structured data the answer is grounded on.
	Context *QueryResult `json:"context,omitempty"`

	// RelatedFloats are the nearest floats from semantic search, if available.
	RelatedFloats []int64 `json:"related_floats,omitempty"`
}
