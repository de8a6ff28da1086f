package stock

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDeriveReservationStatus(t *testing.T) {
	d := decimal.NewFromInt

	tests := []struct {
		name      string
		docStatus DocStatus
		reserved  decimal.Decimal
		delivered decimal.Decimal
		want      ReservationStatus
	}{
		{"cancelled wins over quantities", DocStatusCancelled, d(10), d(10), ReservationStatusCancelled},
		{"cancelled partially delivered", DocStatusCancelled, d(10), d(4), ReservationStatusCancelled},
		{"submitted fully delivered", DocStatusSubmitted, d(10), d(10), ReservationStatusDelivered},
		{"submitted partially delivered", DocStatusSubmitted, d(10), d(4), ReservationStatusPartiallyDelivered},
		{"submitted nothing delivered", DocStatusSubmitted, d(10), d(0), ReservationStatusReserved},
		{"draft nothing delivered", DocStatusDraft, d(10), d(0), ReservationStatusDraft},
		{"draft with zero reserved resolves to delivered", DocStatusDraft, d(0), d(0), ReservationStatusDelivered},
		{"draft with partial delivery", DocStatusDraft, d(10), d(3), ReservationStatusPartiallyDelivered},
		{"over delivery falls through to lifecycle", DocStatusSubmitted, d(5), d(8), ReservationStatusReserved},
		{"fractional equality", DocStatusSubmitted, decimal.RequireFromString("2.50"), decimal.RequireFromString("2.5"), ReservationStatusDelivered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveReservationStatus(tt.docStatus, tt.reserved, tt.delivered))
		})
	}
}

func TestReservationStatus_IsValid(t *testing.T) {
	for _, s := range AllReservationStatuses {
		assert.True(t, s.IsValid(), s)
	}
	assert.False(t, ReservationStatus("Closed").IsValid())
	assert.False(t, ReservationStatus("").IsValid())
}

func TestDocStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, DocStatusDraft.CanTransitionTo(DocStatusSubmitted))
	assert.False(t, DocStatusDraft.CanTransitionTo(DocStatusCancelled))
	assert.True(t, DocStatusSubmitted.CanTransitionTo(DocStatusCancelled))
	assert.False(t, DocStatusSubmitted.CanTransitionTo(DocStatusDraft))
	assert.False(t, DocStatusCancelled.CanTransitionTo(DocStatusSubmitted))
	assert.False(t, DocStatusCancelled.CanTransitionTo(DocStatusDraft))
	assert.False(t, DocStatus(7).IsValid())
	assert.Equal(t, "DocStatus(7)", DocStatus(7).String())
}

func TestVoucherLineRef_Key(t *testing.T) {
	a := VoucherLineRef{VoucherType: VoucherTypeSalesOrder, VoucherNo: "SO-1", VoucherDetailNo: "SOI-1"}
	b := VoucherLineRef{VoucherType: VoucherTypeSalesOrder, VoucherNo: "SO-1", VoucherDetailNo: "SOI-2"}

	assert.Equal(t, "voucher-line:Sales Order:SO-1:SOI-1", a.Key())
	assert.NotEqual(t, a.Key(), b.Key())
	assert.True(t, a.IsComplete())
	assert.False(t, VoucherLineRef{VoucherType: VoucherTypeSalesOrder}.IsComplete())
}
