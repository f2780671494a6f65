package kernel

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"shipping/internal/pkg/errs"
	"shipping/internal/pkg/guard"
)

const (
	MaxWeightKg    = 1000.0
	MaxDimensionCm = 400.0

	// DefaultDimensionalDivisor converts cm³ to volumetric kilograms.
	DefaultDimensionalDivisor = 5000.0
)

var ErrParcelIsNotConstructed = errors.New("parcel must be created via NewParcel")

// PackageType is the closed set of package categories.
type PackageType string

const (
	PackageDocument  PackageType = "document"
	PackageParcel    PackageType = "parcel"
	PackageFragile   PackageType = "fragile"
	PackageOversized PackageType = "oversized"
)

// ParsePackageType defaults an empty value to PackageParcel.
func ParsePackageType(s string) (PackageType, error) {
	pt := PackageType(strings.ToLower(strings.TrimSpace(s)))
	if pt == "" {
		return PackageParcel, nil
	}
	if err := pt.Validate(); err != nil {
		return "", err
	}
	return pt, nil
}

func (t PackageType) Validate() error {
	switch t {
	case PackageDocument, PackageParcel, PackageFragile, PackageOversized:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("packageType", fmt.Errorf("%q is not a package type", string(t)))
	}
}

func (t PackageType) String() string { return string(t) }

// Parcel describes the physical package: weight in kilograms, dimensions in centimetres.
type Parcel struct {
	weightKg      float64
	lengthCm      float64
	widthCm       float64
	heightCm      float64
	declaredValue Money
	packageType   PackageType
	guard         guard.ConstructorGuard
}

func NewParcel(weightKg, lengthCm, widthCm, heightCm float64, declaredValue Money, packageType PackageType) (Parcel, error) {
	if err := errors.Join(
		positive("weight", weightKg, MaxWeightKg),
		positive("length", lengthCm, MaxDimensionCm),
		positive("width", widthCm, MaxDimensionCm),
		positive("height", heightCm, MaxDimensionCm),
		declaredValue.Validate(),
		packageType.Validate(),
	); err != nil {
		return Parcel{}, err
	}

	return Parcel{
		weightKg:      weightKg,
		lengthCm:      lengthCm,
		widthCm:       widthCm,
		heightCm:      heightCm,
		declaredValue: declaredValue,
		packageType:   packageType,
		guard:         guard.NewConstructorGuard(),
	}, nil
}

func (p Parcel) WeightKg() float64        { return p.weightKg }
func (p Parcel) LengthCm() float64        { return p.lengthCm }
func (p Parcel) WidthCm() float64         { return p.widthCm }
func (p Parcel) HeightCm() float64        { return p.heightCm }
func (p Parcel) DeclaredValue() Money     { return p.declaredValue }
func (p Parcel) PackageType() PackageType { return p.packageType }
func (p Parcel) VolumeCm3() float64       { return p.lengthCm * p.widthCm * p.heightCm }

func (p Parcel) Validate() error {
	return p.guard.Validate(ErrParcelIsNotConstructed)
}

// VolumetricWeightKg divides the volume by divisor; a non-positive divisor
// falls back to DefaultDimensionalDivisor.
func (p Parcel) VolumetricWeightKg(divisor float64) float64 {
	if divisor <= 0 {
		divisor = DefaultDimensionalDivisor
	}
	return p.VolumeCm3() / divisor
}

// BillableWeightKg is the greater of actual and volumetric weight.
func (p Parcel) BillableWeightKg(divisor float64) float64 {
	return math.Max(p.weightKg, p.VolumetricWeightKg(divisor))
}

func positive(param string, v, maxValue float64) error {
	if math.IsNaN(v) || v <= 0 || v > maxValue {
		return errs.NewValueIsOutOfRangeError(param, v, "0 (exclusive)", maxValue)
	}
	return nil
}
