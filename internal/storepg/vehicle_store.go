package storepg

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/redgavel/auction/internal/vehicle"
)

// VehicleStore persists vehicle.Vehicle rows. Vehicles are insert-only in
// every store (spec §4.2), so unlike internal/store's Store[T] this
// adapter has no Update method.
type VehicleStore struct {
	pool *pgxpool.Pool
	tx   *TransactionManager
}

// NewVehicleStore wraps pool. lockTimeout bounds how long Add's
// transaction waits to acquire its row locks before aborting.
func NewVehicleStore(pool *pgxpool.Pool, lockTimeout time.Duration) *VehicleStore {
	return &VehicleStore{pool: pool, tx: NewTransactionManager(pool, lockTimeout)}
}

type vehicleAttributes struct {
	Sedan *vehicle.SedanAttributes `json:"sedan,omitempty"`
	SUV   *vehicle.SUVAttributes   `json:"suv,omitempty"`
	Truck *vehicle.TruckAttributes `json:"truck,omitempty"`
}

// Add inserts v and its ingest-log row in a single transaction, via
// TransactionManager.BeginTx: the two writes must land together, so the
// vehicle catalogue always has exactly one log row per vehicle. A
// duplicate id returns an error wrapping the Postgres unique-violation,
// the persistent analogue of store.ErrDuplicateID.
func (s *VehicleStore) Add(ctx context.Context, v vehicle.Vehicle) error {
	attrs := vehicleAttributes{
		Sedan: &v.Sedan,
		SUV:   &v.SUV,
		Truck: &v.Truck,
	}
	payload, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("marshal vehicle attributes: %w", err)
	}

	tx, err := s.tx.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin vehicle insert: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO vehicles (id, kind, make, model, year, vin, mileage, color, attributes, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		v.ID, string(v.Kind), v.Make, v.Model, v.Year, v.VIN, v.Mileage, v.Color, payload, v.Version, v.CreatedAt, v.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert vehicle: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO vehicle_ingest_log (id, vehicle_id, recorded_at) VALUES ($1, $2, $3)`,
		uuid.New(), v.ID, time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("insert vehicle ingest log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit vehicle insert: %w", err)
	}
	return nil
}

// Get loads the vehicle with the given id.
func (s *VehicleStore) Get(ctx context.Context, id uuid.UUID) (vehicle.Vehicle, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, kind, make, model, year, vin, mileage, color, attributes, version, created_at, updated_at
		FROM vehicles WHERE id = $1`, id)
	return scanVehicle(row)
}

// GetAll loads every vehicle row. Acceptable at catalogue scale; a
// paginated cursor would replace this if the table grew unbounded.
func (s *VehicleStore) GetAll(ctx context.Context) ([]vehicle.Vehicle, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, kind, make, model, year, vin, mileage, color, attributes, version, created_at, updated_at
		FROM vehicles ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("query vehicles: %w", err)
	}
	defer rows.Close()

	var out []vehicle.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// SearchByMakeModel returns every vehicle matching make and model
// exactly, using the migration's composite index.
func (s *VehicleStore) SearchByMakeModel(ctx context.Context, make_, model string) ([]vehicle.Vehicle, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, kind, make, model, year, vin, mileage, color, attributes, version, created_at, updated_at
		FROM vehicles WHERE make = $1 AND model = $2 ORDER BY created_at`, make_, model)
	if err != nil {
		return nil, fmt.Errorf("search vehicles: %w", err)
	}
	defer rows.Close()

	var out []vehicle.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVehicle(row rowScanner) (vehicle.Vehicle, error) {
	var (
		v        vehicle.Vehicle
		kind     string
		mileage  decimal.Decimal
		payload  []byte
	)
	if err := row.Scan(&v.ID, &kind, &v.Make, &v.Model, &v.Year, &v.VIN, &mileage, &v.Color, &payload, &v.Version, &v.CreatedAt, &v.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return vehicle.Vehicle{}, fmt.Errorf("vehicle not found")
		}
		return vehicle.Vehicle{}, fmt.Errorf("scan vehicle: %w", err)
	}
	v.Kind = vehicle.Kind(kind)
	v.Mileage = mileage

	var attrs vehicleAttributes
	if err := json.Unmarshal(payload, &attrs); err != nil {
		return vehicle.Vehicle{}, fmt.Errorf("unmarshal vehicle attributes: %w", err)
	}
	if attrs.Sedan != nil {
		v.Sedan = *attrs.Sedan
	}
	if attrs.SUV != nil {
		v.SUV = *attrs.SUV
	}
	if attrs.Truck != nil {
		v.Truck = *attrs.Truck
	}
	return v, nil
}
