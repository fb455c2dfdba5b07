// Package shipping maps a shipment weight to a carrier and its cost using
// fixed weight bands.
package shipping

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Carrier names used by the default band table.
const (
	CarrierOversizedFreight = "oversized-freight"
	CarrierStandardParcel   = "standard-parcel"
	CarrierLockerNetwork    = "locker-network"
)

// Band assigns Carrier at Cost to any weight strictly greater than Above.
// A band with a nil Above matches every weight and must come last.
type Band struct {
	Above   *decimal.Decimal
	Carrier string
	Cost    decimal.Decimal
}

// Assignment is the carrier chosen for a shipment.
type Assignment struct {
	Carrier string
	Cost    decimal.Decimal
}

// DefaultBands returns the standard weight bands, heaviest first.
func DefaultBands() []Band {
	return []Band{
		{Above: ptr(decimal.NewFromInt(50)), Carrier: CarrierOversizedFreight, Cost: decimal.NewFromInt(500)},
		{Above: ptr(decimal.NewFromInt(20)), Carrier: CarrierStandardParcel, Cost: decimal.NewFromInt(180)},
		{Carrier: CarrierLockerNetwork, Cost: decimal.NewFromInt(89)},
	}
}

// Allocator evaluates bands in order; the first match wins.
type Allocator struct {
	bands []Band
}

// NewAllocator creates an Allocator over the given bands. With no bands it
// uses DefaultBands. Bands must have strictly descending thresholds and end
// with a single catch-all band.
func NewAllocator(bands ...Band) (*Allocator, error) {
	if len(bands) == 0 {
		bands = DefaultBands()
	}
	if err := validate(bands); err != nil {
		return nil, err
	}
	cp := make([]Band, len(bands))
	copy(cp, bands)
	return &Allocator{bands: cp}, nil
}

// Assign returns the carrier and cost for the given total weight. It never
// fails: the catch-all band matches whatever the higher bands did not.
func (a *Allocator) Assign(weight decimal.Decimal) Assignment {
	for _, b := range a.bands {
		if b.Above == nil || weight.GreaterThan(*b.Above) {
			return Assignment{Carrier: b.Carrier, Cost: b.Cost}
		}
	}
	// Unreachable for a validated band table.
	last := a.bands[len(a.bands)-1]
	return Assignment{Carrier: last.Carrier, Cost: last.Cost}
}

func validate(bands []Band) error {
	for i, b := range bands {
		if b.Carrier == "" {
			return errors.Errorf("band %d: carrier is required", i)
		}
		if b.Cost.IsNegative() {
			return errors.Errorf("band %d: negative cost %s", i, b.Cost)
		}
		last := i == len(bands)-1
		switch {
		case b.Above == nil && !last:
			return errors.Errorf("band %d: catch-all band must be last", i)
		case b.Above != nil && last:
			return errors.New("last band must be a catch-all")
		}
		if i > 0 && b.Above != nil && !b.Above.LessThan(*bands[i-1].Above) {
			return errors.Errorf("band %d: threshold %s is not below %s", i, b.Above, bands[i-1].Above)
		}
	}
	return nil
}

func ptr(v decimal.Decimal) *decimal.Decimal {
	return &v
}
