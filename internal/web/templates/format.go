package templates

import (
	"fmt"

	"github.com/JonMunkholm/carcatalog/internal/core"
)

type count struct {
	Label string
	N     int
}

func summary(r *core.ImportReport) []count {
	return []count{
		{"Total rows", r.TotalRows},
		{"Valid rows", r.ValidRows},
		{"Inserted", r.InsertedRows},
		{"Duplicates", r.DuplicateRows},
		{"Invalid", r.InvalidRows},
		{"Insert errors", r.Errors},
	}
}

func reportTitle(r *core.ImportReport) string {
	if r.Preview {
		return "Import preview"
	}
	return "Import report"
}

// DescribeCar renders the natural key of a car for display.
func DescribeCar(c core.CarRecord) string {
	trim := "(no trim)"
	if c.TrimName.Valid {
		trim = c.TrimName.String
	}
	return fmt.Sprintf("%s %s %s, %s, %s", c.MakeName, c.ModelName, trim, c.EngineType, c.BodyType)
}

// FormatBytes prints n in the largest unit that divides it evenly.
func FormatBytes(n int64) string {
	switch {
	case n >= 1<<20 && n%(1<<20) == 0:
		return fmt.Sprintf("%d MiB", n>>20)
	case n >= 1<<10 && n%(1<<10) == 0:
		return fmt.Sprintf("%d KiB", n>>10)
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}
