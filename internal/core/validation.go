package core

// validation.go turns a normalized row into a CarRecord.
//
// Validation is all-or-nothing: the required-field check runs first, then
// each typed field is converted in table order and the first malformed value
// rejects the row.

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// ValidationError describes why a row was rejected. Error returns the
// message recorded in the import report.
type ValidationError struct {
	Field   string // empty for the missing-required check
	Value   string // raw cell as read from the file
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ValidateRow validates a row whose keys have already been normalized.
// Unknown keys are ignored.
func ValidateRow(row map[string]string) (CarRecord, error) {
	for _, spec := range CarFields {
		if spec.Required && strings.TrimSpace(row[spec.Name]) == "" {
			return CarRecord{}, &ValidationError{Message: MissingRequiredMessage}
		}
	}

	car := CarRecord{
		MakeName:        strings.TrimSpace(row["make_name"]),
		ModelName:       strings.TrimSpace(row["model_name"]),
		TrimName:        ToPgText(row["trim_name"]),
		TrimDescription: ToPgText(row["trim_description"]),
		EngineType:      strings.TrimSpace(row["engine_type"]),
		EngineFuelType:  ToPgText(row["engine_fuel_type"]),
		EngineDriveType: ToPgText(row["engine_drive_type"]),
		BodyType:        strings.TrimSpace(row["body_type"]),
	}

	var err error
	for _, spec := range CarFields {
		raw := row[spec.Name]
		switch spec.Type {
		case FieldInteger:
			v, perr := ToPgInt4(raw)
			if perr != nil {
				return CarRecord{}, fieldError(spec, raw)
			}
			*intField(&car, spec.Name) = v
		case FieldDecimal:
			if car.EngineSize, err = ToPgFloat8(raw); err != nil {
				return CarRecord{}, fieldError(spec, raw)
			}
		}
	}

	return car, nil
}

// intField returns the integer column named by field.
func intField(car *CarRecord, field string) *pgtype.Int4 {
	switch field {
	case "engine_cylinders":
		return &car.EngineCylinders
	case "engine_horsepower_hp":
		return &car.EngineHorsepowerHp
	case "engine_horsepower_rpm":
		return &car.EngineHorsepowerRpm
	case "body_doors":
		return &car.BodyDoors
	case "body_seats":
		return &car.BodySeats
	}
	panic("core: no integer column " + field)
}

func fieldError(spec FieldSpec, raw string) *ValidationError {
	kind := "integer"
	if spec.Type == FieldDecimal {
		kind = "numeric"
	}
	return &ValidationError{
		Field:   spec.Name,
		Value:   raw,
		Message: fmt.Sprintf("Invalid %s value for %s: %s", kind, spec.Name, raw),
	}
}
