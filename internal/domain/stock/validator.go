package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/stockreservation/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PostingTimeValidator checks the posting date and time of an entry
type PostingTimeValidator interface {
	ValidatePostingTime(ctx context.Context, entry *StockReservationEntry) error
}

// WarehouseValidator checks the warehouse referenced by an entry
type WarehouseValidator interface {
	// ValidateDisabledWarehouse fails when the warehouse is disabled
	ValidateDisabledWarehouse(ctx context.Context, warehouse string) error
	// ValidateWarehouseCompany fails when the warehouse does not belong to company
	ValidateWarehouseCompany(ctx context.Context, warehouse, company string) error
}

// ReservationValidator checks a reservation entry before it is saved or submitted.
// It has no side effects and stops at the first failing rule.
type ReservationValidator struct {
	postingTime PostingTimeValidator
	warehouses  WarehouseValidator
}

// NewReservationValidator creates a ReservationValidator
func NewReservationValidator(postingTime PostingTimeValidator, warehouses WarehouseValidator) *ReservationValidator {
	return &ReservationValidator{
		postingTime: postingTime,
		warehouses:  warehouses,
	}
}

// WithWarehouses returns a copy of the validator that checks warehouses through w
func (v *ReservationValidator) WithWarehouses(w WarehouseValidator) *ReservationValidator {
	return &ReservationValidator{postingTime: v.postingTime, warehouses: w}
}

// Validate runs, in order: posting time, mandatory fields, quantity signs,
// disabled warehouse and warehouse company.
func (v *ReservationValidator) Validate(ctx context.Context, entry *StockReservationEntry) error {
	if err := v.postingTime.ValidatePostingTime(ctx, entry); err != nil {
		return err
	}
	if err := ValidateMandatory(entry); err != nil {
		return err
	}
	if err := ValidateQuantities(entry); err != nil {
		return err
	}
	if err := v.warehouses.ValidateDisabledWarehouse(ctx, entry.Warehouse); err != nil {
		return err
	}
	return v.warehouses.ValidateWarehouseCompany(ctx, entry.Warehouse, entry.Company)
}

// ValidateMandatory reports the first missing field in schema order
func ValidateMandatory(entry *StockReservationEntry) error {
	for _, f := range MandatoryFields {
		if f.Missing(entry) {
			return shared.NewValidationError(shared.ValidationKindMissingField, f.Name, fmt.Sprintf("%s is required", f.Label))
		}
	}
	return nil
}

// ValidateQuantities rejects negative quantities
func ValidateQuantities(entry *StockReservationEntry) error {
	checks := []struct {
		name string
		qty  decimal.Decimal
	}{
		{"available_qty", entry.AvailableQty},
		{"voucher_qty", entry.VoucherQty},
		{"reserved_qty", entry.ReservedQty},
		{"delivered_qty", entry.DeliveredQty},
	}
	for _, c := range checks {
		if c.qty.IsNegative() {
			return shared.NewValidationError(shared.ValidationKindInvalidQuantity, c.name,
				fmt.Sprintf("%s cannot be negative", FieldLabel(c.name)))
		}
	}
	return nil
}

// ClockPostingTimeValidator rejects malformed posting times and, unless
// future postings are allowed, posting timestamps later than now.
// Posting date and time are wall clock readings in loc.
type ClockPostingTimeValidator struct {
	now         func() time.Time
	allowFuture bool
	loc         *time.Location
}

// NewClockPostingTimeValidator creates a ClockPostingTimeValidator reading
// posting times in UTC. A nil now uses time.Now.
func NewClockPostingTimeValidator(now func() time.Time, allowFuture bool) *ClockPostingTimeValidator {
	if now == nil {
		now = time.Now
	}
	return &ClockPostingTimeValidator{now: now, allowFuture: allowFuture, loc: time.UTC}
}

// WithLocation sets the zone posting times are read in
func (v *ClockPostingTimeValidator) WithLocation(loc *time.Location) *ClockPostingTimeValidator {
	if loc != nil {
		v.loc = loc
	}
	return v
}

// ValidatePostingTime implements PostingTimeValidator.
// Empty values are left for the mandatory check.
func (v *ClockPostingTimeValidator) ValidatePostingTime(_ context.Context, entry *StockReservationEntry) error {
	if entry.PostingTime == "" {
		return nil
	}
	if _, err := ParsePostingTime(entry.PostingTime); err != nil {
		return shared.NewValidationError(shared.ValidationKindInvalidPostingTime, "posting_time", "Invalid Posting Time")
	}
	if entry.PostingDate.IsZero() || v.allowFuture {
		return nil
	}
	ts, _ := entry.PostingTimestamp()
	if ts.After(WallClock(v.now(), v.loc)) {
		return shared.NewValidationError(shared.ValidationKindInvalidPostingTime, "posting_time",
			fmt.Sprintf("Posting timestamp %s cannot be in the future", ts.Format("2006-01-02 15:04:05")))
	}
	return nil
}

var _ PostingTimeValidator = (*ClockPostingTimeValidator)(nil)
