package stock

import "strings"

// VoucherType names the kind of business document a reservation is held against
type VoucherType string

const (
	VoucherTypeSalesOrder    VoucherType = "Sales Order"
	VoucherTypeStockTransfer VoucherType = "Stock Transfer"
)

// IsValid checks if the voucher type is supported
func (v VoucherType) IsValid() bool {
	switch v {
	case VoucherTypeSalesOrder, VoucherTypeStockTransfer:
		return true
	}
	return false
}

func (v VoucherType) String() string {
	return string(v)
}

// VoucherLineRef identifies one line of one voucher
type VoucherLineRef struct {
	VoucherType     VoucherType
	VoucherNo       string
	VoucherDetailNo string
}

// Key returns a stable string used to serialize work on the line
func (r VoucherLineRef) Key() string {
	return strings.Join([]string{"voucher-line", string(r.VoucherType), r.VoucherNo, r.VoucherDetailNo}, ":")
}

// IsComplete reports whether all three identifying parts are set
func (r VoucherLineRef) IsComplete() bool {
	return r.VoucherType != "" && r.VoucherNo != "" && r.VoucherDetailNo != ""
}

func (r VoucherLineRef) String() string {
	return string(r.VoucherType) + " " + r.VoucherNo + "/" + r.VoucherDetailNo
}
