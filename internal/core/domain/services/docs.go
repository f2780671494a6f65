// Package services holds pure domain functions used by the carrier adapters
// and the rate engine: fallback pricing from rate tables, region centroid
// distance estimates and carrier address cleanup. Nothing here performs I/O.
package services
