// Package kernel holds the value objects shared by every shipping aggregate:
// identifiers, money, postal parties, parcels and geographic points.
//
// All values are immutable and must be created through their constructors;
// a zero value fails Validate. Money is kept in shopspring/decimal and rounded
// to two places so prices compare exactly across the rate engine, the
// orchestrator and persistence.
package kernel
