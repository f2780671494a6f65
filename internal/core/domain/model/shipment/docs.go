// Package shipment contains the Shipment aggregate and its lifecycle.
//
// A shipment starts as an unpaid draft, takes a carrier and service, is paid
// (status processing) and booked with the carrier, then follows carrier
// tracking until delivered or cancelled. A failed payment leaves it in
// payment_failed, from which payment may be retried. A failed booking never
// touches payment; it raises the support flag instead.
package shipment
