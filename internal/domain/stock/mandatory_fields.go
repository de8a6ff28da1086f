package stock

// RequiredField describes one mandatory field of a reservation entry
type RequiredField struct {
	Name    string
	Label   string
	Missing func(e *StockReservationEntry) bool
}

// MandatoryFields is the static schema checked by ReservationValidator, in
// reporting order. Blank strings, zero dates and zero quantities all count as missing.
var MandatoryFields = []RequiredField{
	{Name: "item_code", Label: "Item Code", Missing: func(e *StockReservationEntry) bool { return e.ItemCode == "" }},
	{Name: "warehouse", Label: "Warehouse", Missing: func(e *StockReservationEntry) bool { return e.Warehouse == "" }},
	{Name: "posting_date", Label: "Posting Date", Missing: func(e *StockReservationEntry) bool { return e.PostingDate.IsZero() }},
	{Name: "posting_time", Label: "Posting Time", Missing: func(e *StockReservationEntry) bool { return e.PostingTime == "" }},
	{Name: "voucher_type", Label: "Voucher Type", Missing: func(e *StockReservationEntry) bool { return e.VoucherType == "" }},
	{Name: "voucher_no", Label: "Voucher No", Missing: func(e *StockReservationEntry) bool { return e.VoucherNo == "" }},
	{Name: "voucher_detail_no", Label: "Voucher Detail No", Missing: func(e *StockReservationEntry) bool { return e.VoucherDetailNo == "" }},
	{Name: "available_qty", Label: "Available Qty to Reserve", Missing: func(e *StockReservationEntry) bool { return e.AvailableQty.IsZero() }},
	{Name: "voucher_qty", Label: "Voucher Qty", Missing: func(e *StockReservationEntry) bool { return e.VoucherQty.IsZero() }},
	{Name: "stock_uom", Label: "Stock UOM", Missing: func(e *StockReservationEntry) bool { return e.StockUOM == "" }},
	{Name: "reserved_qty", Label: "Reserved Qty", Missing: func(e *StockReservationEntry) bool { return e.ReservedQty.IsZero() }},
	{Name: "company", Label: "Company", Missing: func(e *StockReservationEntry) bool { return e.Company == "" }},
}

// FieldLabel returns the display label of a mandatory field, or the name itself
func FieldLabel(name string) string {
	for _, f := range MandatoryFields {
		if f.Name == name {
			return f.Label
		}
	}
	return name
}
