package core

import (
	"errors"
	"testing"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Make Name", "make_name"},
		{"make_name", "make_name"},
		{"ENGINE HORSEPOWER HP", "engine_horsepower_hp"},
		{"Engine  Horsepower\tRpm", "engine_horsepower_rpm"},
		{" Body Type", "_body_type"},
		{"Make\u00a0Name", "make_name"},
		{"Model\u3000\u00a0 Name", "model_name"},
		{"Engine\u2009Type\u202f", "engine_type_"},
		{"Body\vDoors", "body_doors"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeKey(tt.in); got != tt.want {
			t.Errorf("NormalizeKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if twice := NormalizeKey(NormalizeKey(tt.in)); twice != NormalizeKey(tt.in) {
			t.Errorf("NormalizeKey not idempotent for %q: %q", tt.in, twice)
		}
	}
}

func TestValidateRow_NoBreakSpaceHeaders(t *testing.T) {
	raw := RawRow{
		"Make\u00a0Name":  "Mazda",
		"Model\u00a0Name": "MX-5",
		"Engine Type":     "gas",
		"Body\u00a0Type":  "Roadster",
	}
	car, err := ValidateRow(NormalizeRow(raw, nil))
	if err != nil {
		t.Fatalf("ValidateRow() error = %v", err)
	}
	if car.MakeName != "Mazda" || car.BodyType != "Roadster" {
		t.Errorf("record = %+v", car)
	}
}

func TestNormalizeRow(t *testing.T) {
	raw := RawRow{"Make Name": " Toyota ", "Unknown Column": "x"}
	got := NormalizeRow(raw, []string{"Make Name", "Unknown Column"})

	if got["make_name"] != " Toyota " {
		t.Errorf("make_name = %q, values must be unchanged", got["make_name"])
	}
	if got["unknown_column"] != "x" {
		t.Errorf("unknown keys should pass through, got %v", got)
	}

	// Later columns win when two headers collide.
	collide := RawRow{"Make Name": "first", "make_name": "second"}
	if got := NormalizeRow(collide, []string{"Make Name", "make_name"}); got["make_name"] != "second" {
		t.Errorf("collision resolved to %q, want %q", got["make_name"], "second")
	}
}

func validRow() map[string]string {
	return map[string]string{
		"make_name":             " Toyota ",
		"model_name":            "Corolla",
		"trim_name":             "",
		"engine_type":           "gas",
		"engine_cylinders":      " 4 ",
		"engine_size":           "1.8",
		"engine_horsepower_hp":  "139",
		"engine_horsepower_rpm": "",
		"body_type":             "Sedan",
		"body_doors":            "4",
	}
}

func TestValidateRow_Valid(t *testing.T) {
	car, err := ValidateRow(validRow())
	if err != nil {
		t.Fatalf("ValidateRow() error = %v", err)
	}

	if car.MakeName != "Toyota" {
		t.Errorf("MakeName = %q, want trimmed %q", car.MakeName, "Toyota")
	}
	if car.TrimName.Valid {
		t.Errorf("TrimName should be null for an empty cell, got %q", car.TrimName.String)
	}
	if car.TrimDescription.Valid {
		t.Error("TrimDescription should be null when the column is absent")
	}
	if !car.EngineCylinders.Valid || car.EngineCylinders.Int32 != 4 {
		t.Errorf("EngineCylinders = %+v, want 4", car.EngineCylinders)
	}
	if !car.EngineSize.Valid || car.EngineSize.Float64 != 1.8 {
		t.Errorf("EngineSize = %+v, want 1.8", car.EngineSize)
	}
	if car.EngineHorsepowerRpm.Valid {
		t.Error("EngineHorsepowerRpm should be null for an empty cell")
	}
	if car.BodySeats.Valid {
		t.Error("BodySeats should be null when the column is absent")
	}
}

func TestValidateRow_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		value   string
		wantMsg string
	}{
		{"missing make", "make_name", "", MissingRequiredMessage},
		{"whitespace model", "model_name", "   ", MissingRequiredMessage},
		{"missing body type", "body_type", "", MissingRequiredMessage},
		{"word for cylinders", "engine_cylinders", "four", "Invalid integer value for engine_cylinders: four"},
		{"engine code for cylinders", "engine_cylinders", "I4", "Invalid integer value for engine_cylinders: I4"},
		{"unit before hp", "engine_horsepower_hp", "hp139", "Invalid integer value for engine_horsepower_hp: hp139"},
		{"bare sign doors", "body_doors", "-", "Invalid integer value for body_doors: -"},
		{"overflow rpm", "engine_horsepower_rpm", "99999999999", "Invalid integer value for engine_horsepower_rpm: 99999999999"},
		{"seats letters", "body_seats", "five", "Invalid integer value for body_seats: five"},
		{"size letters", "engine_size", "abc", "Invalid numeric value for engine_size: abc"},
		{"size NaN", "engine_size", "NaN", "Invalid numeric value for engine_size: NaN"},
		{"size infinity", "engine_size", "Inf", "Invalid numeric value for engine_size: Inf"},
		{"size lone point", "engine_size", ".L", "Invalid numeric value for engine_size: .L"},
		{"size exponent overflow", "engine_size", "1e999", "Invalid numeric value for engine_size: 1e999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := validRow()
			row[tt.field] = tt.value

			_, err := ValidateRow(row)
			if err == nil {
				t.Fatal("ValidateRow() expected error")
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("error = %q, want %q", err.Error(), tt.wantMsg)
			}

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("error is %T, want *ValidationError", err)
			}
		})
	}
}

func TestValidateRow_LeadingNumber(t *testing.T) {
	tests := []struct {
		name      string
		field     string
		value     string
		wantInt   int32
		wantFloat float64
	}{
		{"decimal cylinders", "engine_cylinders", "6.0", 6, 0},
		{"padded cylinders", "engine_cylinders", " 4 ", 4, 0},
		{"fraction truncated", "body_doors", "4.5", 4, 0},
		{"unit suffix hp", "engine_horsepower_hp", "139hp", 139, 0},
		{"signed rpm", "engine_horsepower_rpm", "+6000", 6000, 0},
		{"litres suffix", "engine_size", "2.5L", 0, 2.5},
		{"leading point", "engine_size", ".8", 0, 0.8},
		{"exponent", "engine_size", "2e0", 0, 2},
		{"dangling exponent", "engine_size", "3e", 0, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := validRow()
			row[tt.field] = tt.value

			car, err := ValidateRow(row)
			if err != nil {
				t.Fatalf("ValidateRow() error = %v", err)
			}
			if tt.field == "engine_size" {
				if !car.EngineSize.Valid || car.EngineSize.Float64 != tt.wantFloat {
					t.Errorf("EngineSize = %+v, want %v", car.EngineSize, tt.wantFloat)
				}
				return
			}
			got := intField(&car, tt.field)
			if !got.Valid || got.Int32 != tt.wantInt {
				t.Errorf("%s = %+v, want %d", tt.field, *got, tt.wantInt)
			}
		})
	}
}

func TestValidateRow_MissingColumn(t *testing.T) {
	row := validRow()
	delete(row, "engine_type")

	_, err := ValidateRow(row)
	if err == nil || err.Error() != MissingRequiredMessage {
		t.Errorf("error = %v, want %q", err, MissingRequiredMessage)
	}
}

func TestValidateRow_RequiredCheckedFirst(t *testing.T) {
	row := validRow()
	row["make_name"] = ""
	row["engine_cylinders"] = "lots"

	_, err := ValidateRow(row)
	if err == nil || err.Error() != MissingRequiredMessage {
		t.Errorf("error = %v, want the required-field message", err)
	}
}

func TestValidateRow_HeaderCasingEquivalent(t *testing.T) {
	titled := RawRow{
		"Make Name":   "Honda",
		"Model Name":  "Civic",
		"Trim Name":   "Sport",
		"Engine Type": "gas",
		"Body Type":   "Hatchback",
		"Body Doors":  "5",
	}
	snake := RawRow{
		"make_name":   "Honda",
		"model_name":  "Civic",
		"trim_name":   "Sport",
		"engine_type": "gas",
		"body_type":   "Hatchback",
		"body_doors":  "5",
	}

	a, errA := ValidateRow(NormalizeRow(titled, nil))
	b, errB := ValidateRow(NormalizeRow(snake, nil))
	if errA != nil || errB != nil {
		t.Fatalf("errors = %v, %v", errA, errB)
	}
	if a != b {
		t.Errorf("records differ:\n%+v\n%+v", a, b)
	}
}

func TestToPgConversions(t *testing.T) {
	if v := ToPgText("  "); v.Valid {
		t.Error("ToPgText(blank) should be null")
	}
	if v := ToPgText(" Sport "); !v.Valid || v.String != "Sport" {
		t.Errorf("ToPgText = %+v, want trimmed Sport", v)
	}

	if v, err := ToPgInt4("-3"); err != nil || v.Int32 != -3 {
		t.Errorf("ToPgInt4(-3) = %+v, %v", v, err)
	}
	if v, err := ToPgInt4(""); err != nil || v.Valid {
		t.Errorf("ToPgInt4(empty) = %+v, %v; want null", v, err)
	}
	if v, err := ToPgInt4("6.0"); err != nil || v.Int32 != 6 {
		t.Errorf("ToPgInt4(6.0) = %+v, %v; want 6", v, err)
	}
	if _, err := ToPgInt4("four"); err == nil {
		t.Error("ToPgInt4(four) should be rejected")
	}

	if v, err := ToPgFloat8("2e0"); err != nil || v.Float64 != 2 {
		t.Errorf("ToPgFloat8(2e0) = %+v, %v", v, err)
	}
	if _, err := ToPgFloat8("-inf"); err == nil {
		t.Error("ToPgFloat8(-inf) should be rejected")
	}
}
