// Package units converts quantities between measurement units via a
// canonical base unit per dimension.
package units

import (
	"errors"
	"fmt"
	"strings"
)

// Unit is a measurement unit known to the catalog.
type Unit string

const (
	UnitGram  Unit = "gram"
	UnitKg    Unit = "Kg"
	UnitMl    Unit = "ml"
	UnitLitre Unit = "Litre"
	UnitPcs   Unit = "Pcs"
	UnitBox   Unit = "Box"
)

// Dimension partitions units into incompatible families.
type Dimension string

const (
	DimensionMass   Dimension = "mass"
	DimensionVolume Dimension = "volume"
	DimensionCount  Dimension = "count"
)

// ErrUnknownUnit indicates a unit outside the supported set.
var ErrUnknownUnit = errors.New("units: unknown unit")

// ErrIncompatibleUnits indicates a conversion across dimensions, e.g. Kg to
// Pcs. Conversion fails closed rather than returning a nonsense number.
var ErrIncompatibleUnits = errors.New("units: incompatible dimensions")

// toBase maps a unit to its factor against the dimension base
// (gram for mass, ml for volume, Pcs for count).
var toBase = map[Unit]float64{
	UnitGram:  1,
	UnitKg:    1000,
	UnitMl:    1,
	UnitLitre: 1000,
	UnitPcs:   1,
	UnitBox:   1,
}

var dimensions = map[Unit]Dimension{
	UnitGram:  DimensionMass,
	UnitKg:    DimensionMass,
	UnitMl:    DimensionVolume,
	UnitLitre: DimensionVolume,
	UnitPcs:   DimensionCount,
	UnitBox:   DimensionCount,
}

// Parse normalises a unit string.
func Parse(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gram", "g", "gr":
		return UnitGram, nil
	case "kg":
		return UnitKg, nil
	case "ml":
		return UnitMl, nil
	case "litre", "liter", "l":
		return UnitLitre, nil
	case "pcs", "pc":
		return UnitPcs, nil
	case "box":
		return UnitBox, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownUnit, s)
}

// DimensionOf returns the dimension of a unit.
func DimensionOf(u Unit) (Dimension, error) {
	d, ok := dimensions[u]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownUnit, u)
	}
	return d, nil
}

// Convert converts value from one unit to another within the same dimension.
func Convert(value float64, from, to Unit) (float64, error) {
	if from == to {
		if _, ok := dimensions[from]; !ok {
			return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, from)
		}
		return value, nil
	}
	fromDim, err := DimensionOf(from)
	if err != nil {
		return 0, err
	}
	toDim, err := DimensionOf(to)
	if err != nil {
		return 0, err
	}
	if fromDim != toDim {
		return 0, fmt.Errorf("%w: %s -> %s", ErrIncompatibleUnits, from, to)
	}
	base := value * toBase[from]
	return base / toBase[to], nil
}
