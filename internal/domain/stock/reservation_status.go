package stock

import "github.com/shopspring/decimal"

// ReservationStatus is the cached, derived status of a reservation entry
type ReservationStatus string

const (
	ReservationStatusDraft              ReservationStatus = "Draft"
	ReservationStatusReserved           ReservationStatus = "Reserved"
	ReservationStatusPartiallyDelivered ReservationStatus = "Partially Delivered"
	ReservationStatusDelivered          ReservationStatus = "Delivered"
	ReservationStatusCancelled          ReservationStatus = "Cancelled"
)

// AllReservationStatuses lists every status value
var AllReservationStatuses = []ReservationStatus{
	ReservationStatusDraft,
	ReservationStatusReserved,
	ReservationStatusPartiallyDelivered,
	ReservationStatusDelivered,
	ReservationStatusCancelled,
}

// IsValid checks if the status is a valid ReservationStatus
func (s ReservationStatus) IsValid() bool {
	switch s {
	case ReservationStatusDraft, ReservationStatusReserved, ReservationStatusPartiallyDelivered,
		ReservationStatusDelivered, ReservationStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of ReservationStatus
func (s ReservationStatus) String() string {
	return string(s)
}

// DeriveReservationStatus computes the status from lifecycle state and quantities.
// Rules are evaluated in order and the first match wins:
//
//  1. cancelled document                       -> Cancelled
//  2. reserved == delivered                    -> Delivered
//  3. delivered > 0 and reserved > delivered   -> Partially Delivered
//  4. submitted document                       -> Reserved
//  5. otherwise                                -> Draft
//
// Rule 2 also matches a draft whose reserved and delivered quantities are both zero.
func DeriveReservationStatus(docStatus DocStatus, reservedQty, deliveredQty decimal.Decimal) ReservationStatus {
	switch {
	case docStatus == DocStatusCancelled:
		return ReservationStatusCancelled
	case reservedQty.Equal(deliveredQty):
		return ReservationStatusDelivered
	case deliveredQty.IsPositive() && reservedQty.GreaterThan(deliveredQty):
		return ReservationStatusPartiallyDelivered
	case docStatus == DocStatusSubmitted:
		return ReservationStatusReserved
	default:
		return ReservationStatusDraft
	}
}
