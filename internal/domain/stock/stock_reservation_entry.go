package stock

import (
	"fmt"
	"time"

	"github.com/erp/stockreservation/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PostingTimeLayout is the canonical wire format of PostingTime
const PostingTimeLayout = "15:04:05"

// StockReservationEntry earmarks a quantity of an item at a warehouse
// for one line of one voucher. It is the aggregate root of the reservation ledger.
type StockReservationEntry struct {
	shared.BaseAggregateRoot
	ItemCode        string
	Warehouse       string
	StockUOM        string
	PostingDate     time.Time // calendar date, midnight UTC
	PostingTime     string    // HH:MM:SS wall clock
	VoucherType     VoucherType
	VoucherNo       string
	VoucherDetailNo string
	AvailableQty    decimal.Decimal // stock available when the reservation was made
	VoucherQty      decimal.Decimal // quantity on the voucher line
	ReservedQty     decimal.Decimal
	DeliveredQty    decimal.Decimal
	Company         string
	DocStatus       DocStatus
	Status          ReservationStatus
}

// EntryFields carries the user editable fields of an entry
type EntryFields struct {
	ItemCode        string
	Warehouse       string
	StockUOM        string
	PostingDate     time.Time
	PostingTime     string
	VoucherType     VoucherType
	VoucherNo       string
	VoucherDetailNo string
	AvailableQty    decimal.Decimal
	VoucherQty      decimal.Decimal
	ReservedQty     decimal.Decimal
	Company         string
}

// NewStockReservationEntry creates a draft entry. Field level checks are left
// to ReservationValidator so that every violation is reported the same way.
func NewStockReservationEntry(f EntryFields) *StockReservationEntry {
	e := &StockReservationEntry{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		DocStatus:         DocStatusDraft,
		DeliveredQty:      decimal.Zero,
	}
	e.apply(f)
	e.Status = DeriveReservationStatus(e.DocStatus, e.ReservedQty, e.DeliveredQty)
	return e
}

func (e *StockReservationEntry) apply(f EntryFields) {
	e.ItemCode = f.ItemCode
	e.Warehouse = f.Warehouse
	e.StockUOM = f.StockUOM
	e.PostingDate = PostingDateOf(f.PostingDate)
	e.PostingTime = f.PostingTime
	e.VoucherType = f.VoucherType
	e.VoucherNo = f.VoucherNo
	e.VoucherDetailNo = f.VoucherDetailNo
	e.AvailableQty = f.AvailableQty
	e.VoucherQty = f.VoucherQty
	e.ReservedQty = f.ReservedQty
	e.Company = f.Company
}

// Update replaces the editable fields of a draft entry
func (e *StockReservationEntry) Update(f EntryFields) error {
	if e.DocStatus != DocStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Only draft reservation entries can be modified")
	}
	e.apply(f)
	e.Status = DeriveReservationStatus(e.DocStatus, e.ReservedQty, e.DeliveredQty)
	e.Touch()
	e.IncrementVersion()
	return nil
}

// VoucherLine returns the reference to the voucher line this entry reserves against
func (e *StockReservationEntry) VoucherLine() VoucherLineRef {
	return VoucherLineRef{
		VoucherType:     e.VoucherType,
		VoucherNo:       e.VoucherNo,
		VoucherDetailNo: e.VoucherDetailNo,
	}
}

// PostingTimestamp combines PostingDate and PostingTime into a wall clock
// reading labelled UTC. Compare it with WallClock, not with an instant.
func (e *StockReservationEntry) PostingTimestamp() (time.Time, error) {
	clock, err := ParsePostingTime(e.PostingTime)
	if err != nil {
		return time.Time{}, err
	}
	d := PostingDateOf(e.PostingDate)
	return time.Date(d.Year(), d.Month(), d.Day(), clock.Hour(), clock.Minute(), clock.Second(), clock.Nanosecond(), time.UTC), nil
}

// Submit moves the entry from Draft to Submitted
func (e *StockReservationEntry) Submit() error {
	if err := e.transitionTo(DocStatusSubmitted); err != nil {
		return err
	}
	e.AddDomainEvent(NewStockReservationSubmittedEvent(e))
	return nil
}

// Cancel moves the entry from Submitted to Cancelled
func (e *StockReservationEntry) Cancel() error {
	if err := e.transitionTo(DocStatusCancelled); err != nil {
		return err
	}
	e.AddDomainEvent(NewStockReservationCancelledEvent(e))
	return nil
}

func (e *StockReservationEntry) transitionTo(target DocStatus) error {
	if !e.DocStatus.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot move reservation entry from %s to %s", e.DocStatus, target))
	}
	e.DocStatus = target
	e.Touch()
	e.IncrementVersion()
	return nil
}

// CanDelete reports whether the entry may be removed. Only drafts can.
func (e *StockReservationEntry) CanDelete() bool {
	return e.DocStatus == DocStatusDraft
}

// ResolveStatus sets Status to override when one is given, otherwise to the
// value derived from the current lifecycle state and quantities.
// It returns the resolved status and whether it differs from the previous one.
func (e *StockReservationEntry) ResolveStatus(override *ReservationStatus) (ReservationStatus, bool, error) {
	status := DeriveReservationStatus(e.DocStatus, e.ReservedQty, e.DeliveredQty)
	if override != nil && *override != "" {
		if !override.IsValid() {
			return "", false, shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown reservation status %q", *override))
		}
		status = *override
	}
	changed := status != e.Status
	if changed {
		e.AddDomainEvent(NewStockReservationStatusChangedEvent(e, e.Status, status))
	}
	e.Status = status
	return status, changed, nil
}

// RecordDelivery sets the delivered quantity reported by the fulfillment process
func (e *StockReservationEntry) RecordDelivery(deliveredQty decimal.Decimal) error {
	if e.DocStatus != DocStatusSubmitted {
		return shared.NewDomainError("INVALID_STATE", "Deliveries can only be recorded against submitted reservation entries")
	}
	if deliveredQty.IsNegative() {
		return shared.NewDomainError("INVALID_QUANTITY", "Delivered quantity cannot be negative")
	}
	if deliveredQty.GreaterThan(e.ReservedQty) {
		return shared.NewDomainError("INVALID_QUANTITY",
			fmt.Sprintf("Delivered quantity %s exceeds reserved quantity %s", deliveredQty, e.ReservedQty))
	}
	e.DeliveredQty = deliveredQty
	e.Touch()
	e.IncrementVersion()
	return nil
}

// PendingQty is the reserved quantity not yet delivered
func (e *StockReservationEntry) PendingQty() decimal.Decimal {
	return e.ReservedQty.Sub(e.DeliveredQty)
}

// ParsePostingTime parses HH:MM:SS with optional fractional seconds, or HH:MM
func ParsePostingTime(value string) (time.Time, error) {
	for _, layout := range []string{PostingTimeLayout, "15:04:05.999999999", "15:04"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid posting time %q", value)
}

// PostingDateOf keeps the calendar date t reads in its own location and
// returns it as midnight UTC, so dates survive storage in a date column.
func PostingDateOf(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// WallClock returns the reading of t on a clock in loc, labelled UTC
func WallClock(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	w := t.In(loc)
	return time.Date(w.Year(), w.Month(), w.Day(), w.Hour(), w.Minute(), w.Second(), w.Nanosecond(), time.UTC)
}
