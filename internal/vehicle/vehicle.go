// Package vehicle implements the Vehicle entity (C1): an immutable,
// tagged-variant record of {Sedan, SUV, Truck}.
package vehicle

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind is the vehicle variant tag.
type Kind string

const (
	Sedan Kind = "sedan"
	SUV   Kind = "suv"
	Truck Kind = "truck"
)

func (k Kind) IsValid() bool {
	switch k {
	case Sedan, SUV, Truck:
		return true
	default:
		return false
	}
}

// SedanAttributes holds sedan-specific fields.
type SedanAttributes struct {
	Doors   int
	Sunroof bool
}

// SUVAttributes holds SUV-specific fields.
type SUVAttributes struct {
	Seating     int
	FourByFour  bool
	CargoVolume decimal.Decimal
}

// TruckAttributes holds truck-specific fields.
type TruckAttributes struct {
	LoadCapacity decimal.Decimal
	BedLength    decimal.Decimal
	FourByFour   bool
}

// defaultSedan, defaultSUV and defaultTruck are the coercion fallbacks
// spec §3 calls for when a creation request's variant attributes don't
// resolve cleanly.
func defaultSedan() SedanAttributes { return SedanAttributes{Doors: 4, Sunroof: false} }
func defaultSUV() SUVAttributes {
	return SUVAttributes{Seating: 5, FourByFour: false, CargoVolume: decimal.Zero}
}
func defaultTruck() TruckAttributes {
	return TruckAttributes{LoadCapacity: decimal.Zero, BedLength: decimal.Zero, FourByFour: false}
}

// Vehicle is immutable once created (spec §3): every field is set at
// construction and never mutated afterward.
type Vehicle struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt *time.Time
	Version   uint32

	Kind    Kind
	Make    string
	Model   string
	Year    int
	VIN     string
	Mileage decimal.Decimal
	Color   string

	Sedan SedanAttributes
	SUV   SUVAttributes
	Truck TruckAttributes
}

func (v Vehicle) EntityID() uuid.UUID   { return v.ID }
func (v Vehicle) EntityVersion() uint32 { return v.Version }

// CreateRequest carries the raw, variant-tagged attributes a caller
// supplies; only the attribute pointer matching Kind is read, and a nil
// pointer falls back to that Kind's defaults (spec §3).
type CreateRequest struct {
	Kind    Kind
	Make    string
	Model   string
	Year    int
	VIN     string
	Mileage decimal.Decimal
	Color   string

	Sedan *SedanAttributes
	SUV   *SUVAttributes
	Truck *TruckAttributes
}

// New constructs a Vehicle from req, dispatching on req.Kind. An unknown
// Kind, an empty Make or Model, a VIN that is not 17 characters, or a
// negative Mileage is an invalid-input error; the per-variant
// attribute structs simply default when not supplied (coercion failure is
// represented upstream, at the request-decoding boundary, by a nil pointer
// here — never by an error inside New).
func New(req CreateRequest) (Vehicle, error) {
	if !req.Kind.IsValid() {
		return Vehicle{}, fmt.Errorf("%w: unknown vehicle kind %q", ErrInvalidInput, req.Kind)
	}
	if req.Make == "" || req.Model == "" {
		return Vehicle{}, fmt.Errorf("%w: make and model are required", ErrInvalidInput)
	}
	if len(req.VIN) != 17 {
		return Vehicle{}, fmt.Errorf("%w: VIN must be exactly 17 characters", ErrInvalidInput)
	}
	if req.Mileage.IsNegative() {
		return Vehicle{}, fmt.Errorf("%w: mileage must be non-negative", ErrInvalidInput)
	}

	v := Vehicle{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
		Version:   1,
		Kind:      req.Kind,
		Make:      req.Make,
		Model:     req.Model,
		Year:      req.Year,
		VIN:       req.VIN,
		Mileage:   req.Mileage,
		Color:     req.Color,
		Sedan:     defaultSedan(),
		SUV:       defaultSUV(),
		Truck:     defaultTruck(),
	}

	switch req.Kind {
	case Sedan:
		if req.Sedan != nil {
			v.Sedan = *req.Sedan
		}
	case SUV:
		if req.SUV != nil {
			v.SUV = *req.SUV
		}
	case Truck:
		if req.Truck != nil {
			v.Truck = *req.Truck
		}
	}

	return v, nil
}
