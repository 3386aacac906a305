package core

// CarFields lists the canonical car columns in table order.
var CarFields = []FieldSpec{
	{Name: "make_name", Type: FieldText, Required: true},
	{Name: "model_name", Type: FieldText, Required: true},
	{Name: "trim_name", Type: FieldText},
	{Name: "trim_description", Type: FieldText},
	{Name: "engine_type", Type: FieldText, Required: true},
	{Name: "engine_fuel_type", Type: FieldText},
	{Name: "engine_cylinders", Type: FieldInteger},
	{Name: "engine_size", Type: FieldDecimal},
	{Name: "engine_horsepower_hp", Type: FieldInteger},
	{Name: "engine_horsepower_rpm", Type: FieldInteger},
	{Name: "engine_drive_type", Type: FieldText},
	{Name: "body_type", Type: FieldText, Required: true},
	{Name: "body_doors", Type: FieldInteger},
	{Name: "body_seats", Type: FieldInteger},
}

// MissingRequiredMessage is reported for any row lacking a required field.
// It names every required field regardless of which one is missing.
const MissingRequiredMessage = "Missing required fields: make_name, model_name, engine_type, body_type"

// DuplicateReason is recorded for rows whose natural key already exists.
const DuplicateReason = "Car already exists in database"
