package core

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/JonMunkholm/carcatalog/internal/logging"
)

// ContextCheckInterval is how many rows are streamed between cancellation
// checks.
var ContextCheckInterval = 100

// Importer runs CSV imports against a CarStore.
type Importer struct {
	store CarStore
}

// NewImporter creates an Importer.
func NewImporter(store CarStore) *Importer {
	return &Importer{store: store}
}

// ImportFile imports the CSV at path and removes the file. The file is
// removed as soon as the stream is exhausted, before any row is persisted,
// and on every failure path.
func (im *Importer) ImportFile(ctx context.Context, path string) (*ImportReport, error) {
	logger := logging.FromContext(ctx)
	defer removeUpload(logger, path)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}

	start := time.Now()
	queue, report, bytesRead, streamErr := im.stream(ctx, f)
	f.Close()
	removeUpload(logger, path)

	if streamErr != nil {
		return nil, streamErr
	}

	logger.Info("import stream complete",
		"rows", report.TotalRows,
		"valid", report.ValidRows,
		"invalid", report.InvalidRows,
		"bytes", bytesRead,
		"duration", time.Since(start),
	)

	if err := im.persist(ctx, queue, report); err != nil {
		return nil, err
	}
	return report, nil
}

// Import runs both phases over r. The caller owns r.
func (im *Importer) Import(ctx context.Context, r io.Reader) (*ImportReport, error) {
	queue, report, _, err := im.stream(ctx, r)
	if err != nil {
		return nil, err
	}
	if err := im.persist(ctx, queue, report); err != nil {
		return nil, err
	}
	return report, nil
}

// stream parses r, validating each record. Valid rows are queued in file
// order; invalid rows go straight into the report. Any error is a
// *StreamError or a context error.
func (im *Importer) stream(ctx context.Context, r io.Reader) ([]queuedCar, *ImportReport, int64, error) {
	report := newImportReport()

	counter := WrapForStreaming(r)
	reader := csv.NewReader(counter)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, report, counter.BytesRead, nil
	}
	if err != nil {
		return nil, nil, counter.BytesRead, &StreamError{Err: err}
	}
	header = append([]string(nil), header...)

	var queue []queuedCar
	rowNum := 0
	for {
		if rowNum%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, counter.BytesRead, fmt.Errorf("import cancelled at row %d: %w", rowNum, err)
			}
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, counter.BytesRead, &StreamError{Err: err}
		}
		rowNum++

		raw, order := buildRawRow(header, record)
		car, verr := ValidateRow(NormalizeRow(raw, order))
		if verr != nil {
			report.InvalidRowDetails = append(report.InvalidRowDetails, InvalidRow{
				Row:   rowNum,
				Error: verr.Error(),
				Data:  raw,
			})
			continue
		}
		queue = append(queue, queuedCar{Row: rowNum, Car: car})
	}

	report.TotalRows = rowNum
	report.ValidRows = len(queue)
	report.InvalidRows = len(report.InvalidRowDetails)
	return queue, report, counter.BytesRead, nil
}

// persist drains queue strictly in order, one row at a time.
func (im *Importer) persist(ctx context.Context, queue []queuedCar, report *ImportReport) error {
	logger := logging.FromContext(ctx)

	for _, item := range queue {
		if err := ctx.Err(); err != nil {
			logger.Warn("import stopped during persistence",
				"row", item.Row,
				"inserted", report.InsertedRows,
				"duplicates", len(report.DuplicateDetails),
				"insert_errors", len(report.InsertErrors),
				"error", err,
			)
			return &CancelledError{AtRow: item.Row, Inserted: report.InsertedRows, Err: err}
		}

		inserted, err := im.insertOrSkip(ctx, item.Car)
		switch {
		case err != nil:
			logger.Warn("row insert failed", "row", item.Row, "error", err)
			report.InsertErrors = append(report.InsertErrors, InsertError{
				Row:   item.Row,
				Car:   item.Car,
				Error: FormatUserError(err),
			})
		case inserted:
			report.InsertedRows++
		default:
			logger.Debug("duplicate row skipped", "row", item.Row)
			report.DuplicateDetails = append(report.DuplicateDetails, DuplicateRow{
				Row:    item.Row,
				Data:   item.Car,
				Reason: DuplicateReason,
			})
		}
	}

	report.DuplicateRows = len(report.DuplicateDetails)
	report.Errors = len(report.InsertErrors)
	return nil
}

// insertOrSkip inserts car unless a car with the same natural key exists.
// It reports whether a row was written.
func (im *Importer) insertOrSkip(ctx context.Context, car CarRecord) (bool, error) {
	exists, err := im.store.CarExists(ctx, car.Key())
	if err != nil {
		return false, fmt.Errorf("check duplicate: %w", err)
	}
	if exists {
		return false, nil
	}
	if _, err := im.store.InsertCar(ctx, car); err != nil {
		return false, fmt.Errorf("insert car: %w", err)
	}
	return true, nil
}

// buildRawRow keys record by header. Cells past the header are keyed by
// "_<index>". The returned order lists keys in column order.
func buildRawRow(header, record []string) (RawRow, []string) {
	raw := make(RawRow, len(record))
	order := header
	if len(record) > len(header) {
		order = make([]string, len(header), len(record))
		copy(order, header)
		for i := len(header); i < len(record); i++ {
			order = append(order, "_"+strconv.Itoa(i))
		}
	}
	for i, v := range record {
		raw[order[i]] = v
	}
	if len(record) < len(order) {
		order = order[:len(record)]
	}
	return raw, order
}

func removeUpload(logger *slog.Logger, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("failed to remove upload", "path", path, "error", err)
	}
}
