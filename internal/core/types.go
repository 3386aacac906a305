package core

import (
	"github.com/jackc/pgx/v5/pgtype"
)

// FieldType is the expected data type of a car column.
type FieldType int

const (
	FieldText FieldType = iota
	FieldInteger
	FieldDecimal
)

// FieldSpec describes one canonical car column.
type FieldSpec struct {
	Name     string // canonical snake_case key
	Type     FieldType
	Required bool // must be non-empty after trimming
}

// RawRow is one CSV record keyed by its header exactly as it appeared in
// the file. Values beyond the header are keyed "_<index>".
type RawRow map[string]string

// CarRecord is a validated row ready for the store. Optional columns are
// null when absent or empty in the source row.
type CarRecord struct {
	MakeName            string        `json:"make_name"`
	ModelName           string        `json:"model_name"`
	TrimName            pgtype.Text   `json:"trim_name"`
	TrimDescription     pgtype.Text   `json:"trim_description"`
	EngineType          string        `json:"engine_type"`
	EngineFuelType      pgtype.Text   `json:"engine_fuel_type"`
	EngineCylinders     pgtype.Int4   `json:"engine_cylinders"`
	EngineSize          pgtype.Float8 `json:"engine_size"`
	EngineHorsepowerHp  pgtype.Int4   `json:"engine_horsepower_hp"`
	EngineHorsepowerRpm pgtype.Int4   `json:"engine_horsepower_rpm"`
	EngineDriveType     pgtype.Text   `json:"engine_drive_type"`
	BodyType            string        `json:"body_type"`
	BodyDoors           pgtype.Int4   `json:"body_doors"`
	BodySeats           pgtype.Int4   `json:"body_seats"`
}

// NaturalKey is the identity used for duplicate detection. A null trim is
// distinct from every non-null trim.
type NaturalKey struct {
	MakeName   string
	ModelName  string
	TrimName   pgtype.Text
	EngineType string
	BodyType   string
}

// Key returns the record's natural key.
func (c CarRecord) Key() NaturalKey {
	return NaturalKey{
		MakeName:   c.MakeName,
		ModelName:  c.ModelName,
		TrimName:   c.TrimName,
		EngineType: c.EngineType,
		BodyType:   c.BodyType,
	}
}

// queuedCar is a valid row waiting for the persistence phase.
type queuedCar struct {
	Row int
	Car CarRecord
}

// InvalidRow records a row rejected by validation.
type InvalidRow struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
	Data  RawRow `json:"data"`
}

// DuplicateRow records a valid row skipped because the car already exists.
type DuplicateRow struct {
	Row    int       `json:"row"`
	Data   CarRecord `json:"data"`
	Reason string    `json:"reason"`
}

// InsertError records a valid, non-duplicate row the store refused.
type InsertError struct {
	Row   int       `json:"row"`
	Car   CarRecord `json:"car"`
	Error string    `json:"error"`
}

// ImportReport summarizes one import. TotalRows always equals
// ValidRows + InvalidRows, and ValidRows equals
// InsertedRows + DuplicateRows + Errors.
type ImportReport struct {
	TotalRows         int            `json:"totalRows"`
	ValidRows         int            `json:"validRows"`
	InsertedRows      int            `json:"insertedRows"`
	DuplicateRows     int            `json:"duplicateRows"`
	InvalidRows       int            `json:"invalidRows"`
	Errors            int            `json:"errors"`
	InvalidRowDetails []InvalidRow   `json:"invalidRowDetails"`
	DuplicateDetails  []DuplicateRow `json:"duplicateDetails"`
	InsertErrors      []InsertError  `json:"insertErrors"`

	// Preview is set when the report comes from a dry run.
	Preview bool `json:"preview,omitempty"`
}

// newImportReport returns a report whose detail slices encode as [] rather
// than null.
func newImportReport() *ImportReport {
	return &ImportReport{
		InvalidRowDetails: []InvalidRow{},
		DuplicateDetails:  []DuplicateRow{},
		InsertErrors:      []InsertError{},
	}
}
