package core

import (
	"context"
)

// stagingStore wraps a CarStore so nothing is written. Inserts are staged in
// memory, which lets a preview report later rows that repeat an earlier row
// of the same file as duplicates, exactly as a real import would.
type stagingStore struct {
	base   CarStore
	staged map[NaturalKey]struct{}
}

func newStagingStore(base CarStore) *stagingStore {
	return &stagingStore{base: base, staged: make(map[NaturalKey]struct{})}
}

func (s *stagingStore) CarExists(ctx context.Context, key NaturalKey) (bool, error) {
	if _, ok := s.staged[key]; ok {
		return true, nil
	}
	return s.base.CarExists(ctx, key)
}

func (s *stagingStore) InsertCar(_ context.Context, car CarRecord) (int64, error) {
	s.staged[car.Key()] = struct{}{}
	return 0, nil
}

// PreviewFile runs the import pipeline over the CSV at path without writing
// to the store, then removes the file. InsertedRows counts the rows a real
// import would insert if the catalog does not change in between.
func (im *Importer) PreviewFile(ctx context.Context, path string) (*ImportReport, error) {
	dry := &Importer{store: newStagingStore(im.store)}
	report, err := dry.ImportFile(ctx, path)
	if err != nil {
		return nil, err
	}
	report.Preview = true
	return report, nil
}
