// Package rate models carrier pricing: the options a quote offers, the
// versioned fallback tables administrators maintain per carrier, and the
// time-boxed quotes customers choose from.
package rate
