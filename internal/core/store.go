package core

import (
	"context"

	db "github.com/JonMunkholm/carcatalog/internal/database"
)

// CarStore is the persistence the import orchestrator needs.
type CarStore interface {
	CarExists(ctx context.Context, key NaturalKey) (bool, error)
	InsertCar(ctx context.Context, car CarRecord) (int64, error)
}

// User is the subset of a user row that login needs.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
}

// UserStore looks users up for login. It returns pgx.ErrNoRows, possibly
// wrapped, when no user has the email.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (User, error)
}

// PgStore implements CarStore and UserStore on sqlc queries.
type PgStore struct {
	q *db.Queries
}

// NewPgStore wraps a pool or transaction.
func NewPgStore(conn db.DBTX) *PgStore {
	return &PgStore{q: db.New(conn)}
}

// CarExists reports whether a car with the same natural key is stored.
func (s *PgStore) CarExists(ctx context.Context, key NaturalKey) (bool, error) {
	return s.q.CarExists(ctx, db.CarExistsParams{
		MakeName:   key.MakeName,
		ModelName:  key.ModelName,
		TrimName:   key.TrimName,
		EngineType: key.EngineType,
		BodyType:   key.BodyType,
	})
}

// InsertCar stores car and returns its ID.
func (s *PgStore) InsertCar(ctx context.Context, car CarRecord) (int64, error) {
	return s.q.InsertCar(ctx, db.InsertCarParams{
		MakeName:            car.MakeName,
		ModelName:           car.ModelName,
		TrimName:            car.TrimName,
		TrimDescription:     car.TrimDescription,
		EngineType:          car.EngineType,
		EngineFuelType:      car.EngineFuelType,
		EngineCylinders:     car.EngineCylinders,
		EngineSize:          car.EngineSize,
		EngineHorsepowerHp:  car.EngineHorsepowerHp,
		EngineHorsepowerRpm: car.EngineHorsepowerRpm,
		EngineDriveType:     car.EngineDriveType,
		BodyType:            car.BodyType,
		BodyDoors:           car.BodyDoors,
		BodySeats:           car.BodySeats,
	})
}

// GetUserByEmail implements UserStore.
func (s *PgStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	u, err := s.q.GetUserByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}
	return User{ID: u.ID, Email: u.Email, PasswordHash: u.Password}, nil
}

// CountCars returns the number of stored cars.
func (s *PgStore) CountCars(ctx context.Context) (int64, error) {
	return s.q.CountCars(ctx)
}
