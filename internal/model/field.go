package model

import "time"

// Field identifies one of the target fields the orchestrator guarantees to
// drive to present-or-terminal. The set is closed: adding a field means adding
// an enum value and a fieldInfo table entry, not new call sites.
type Field string

const (
	FieldTagline       Field = "tagline"
	FieldHeadquarters  Field = "headquarters_location"
	FieldManufacturing Field = "manufacturing_locations"
	FieldIndustries    Field = "industries"
	FieldKeywords      Field = "product_keywords"
	FieldReviews       Field = "reviews"
	FieldLogo          Field = "logo"
)

// FieldClass groups fields by how terminalization writes their canonical
// "unknown" representation.
type FieldClass int

const (
	ClassText     FieldClass = iota // tagline
	ClassList                       // industries, product_keywords
	ClassLocation                   // headquarters, manufacturing
	ClassReviews
	ClassLogo
)

type fieldInfo struct {
	Class FieldClass

	// Heavy fields are throttled to one per cycle in single-record mode.
	// Priority orders heavy selection; lower runs first.
	Heavy    bool
	Priority int

	// MinBudget is the smallest remaining run budget worth starting an
	// attempt with. Overridable via the scheduler policy file.
	MinBudget time.Duration

	// MaxAttempts is the default per-field attempt ceiling.
	MaxAttempts int
}

var fieldTable = map[Field]fieldInfo{
	FieldHeadquarters:  {Class: ClassLocation, Heavy: true, Priority: 0, MinBudget: 20 * time.Second, MaxAttempts: 3},
	FieldManufacturing: {Class: ClassLocation, Heavy: true, Priority: 1, MinBudget: 20 * time.Second, MaxAttempts: 3},
	FieldReviews:       {Class: ClassReviews, Heavy: true, Priority: 2, MinBudget: 45 * time.Second, MaxAttempts: 3},
	FieldIndustries:    {Class: ClassList, Heavy: true, Priority: 3, MinBudget: 10 * time.Second, MaxAttempts: 3},
	FieldKeywords:      {Class: ClassList, Heavy: true, Priority: 4, MinBudget: 10 * time.Second, MaxAttempts: 3},
	FieldTagline:       {Class: ClassText, MinBudget: 5 * time.Second, MaxAttempts: 3},
	FieldLogo:          {Class: ClassLogo, MinBudget: 5 * time.Second, MaxAttempts: 3},
}

// TargetFields lists every field in evaluation order.
func TargetFields() []Field {
	return []Field{
		FieldIndustries,
		FieldTagline,
		FieldKeywords,
		FieldHeadquarters,
		FieldManufacturing,
		FieldLogo,
		FieldReviews,
	}
}

// Valid reports whether f names a known target field.
func (f Field) Valid() bool {
	_, ok := fieldTable[f]
	return ok
}

// Class returns the terminalization class for the field.
func (f Field) Class() FieldClass {
	return fieldTable[f].Class
}

// Heavy reports whether the field is subject to the one-heavy-per-cycle
// throttle.
func (f Field) Heavy() bool {
	return fieldTable[f].Heavy
}

// Priority returns the heavy-selection priority (lower first).
func (f Field) Priority() int {
	return fieldTable[f].Priority
}

// MinBudget returns the built-in minimum budget for attempting the field.
func (f Field) MinBudget() time.Duration {
	return fieldTable[f].MinBudget
}

// DefaultMaxAttempts returns the built-in attempt ceiling for the field.
func (f Field) DefaultMaxAttempts() int {
	return fieldTable[f].MaxAttempts
}

// HeavyFields returns the heavy fields in priority order.
func HeavyFields() []Field {
	return []Field{
		FieldHeadquarters,
		FieldManufacturing,
		FieldReviews,
		FieldIndustries,
		FieldKeywords,
	}
}
