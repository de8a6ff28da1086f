package stock

import (
	"time"

	"github.com/erp/stockreservation/internal/domain/shared"
	"github.com/erp/stockreservation/internal/domain/stock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PostingDateLayout is the wire format of posting dates
const PostingDateLayout = "2006-01-02"

// ReservationFieldsRequest carries the editable fields of a reservation entry.
// Presence of mandatory fields is checked by the validator, not by binding tags,
// so that every missing field is reported the same way.
type ReservationFieldsRequest struct {
	ItemCode        string          `json:"item_code" binding:"max=140"`
	Warehouse       string          `json:"warehouse" binding:"max=140"`
	StockUOM        string          `json:"stock_uom" binding:"max=140"`
	PostingDate     string          `json:"posting_date"` // YYYY-MM-DD
	PostingTime     string          `json:"posting_time"` // HH:MM:SS
	VoucherType     string          `json:"voucher_type" binding:"omitempty,oneof='Sales Order' 'Stock Transfer'"`
	VoucherNo       string          `json:"voucher_no" binding:"max=140"`
	VoucherDetailNo string          `json:"voucher_detail_no" binding:"max=140"`
	AvailableQty    decimal.Decimal `json:"available_qty"`
	VoucherQty      decimal.Decimal `json:"voucher_qty"`
	ReservedQty     decimal.Decimal `json:"reserved_qty"`
	Company         string          `json:"company" binding:"max=140"`
}

// CreateReservationRequest represents a request to create a draft reservation entry
type CreateReservationRequest struct {
	ReservationFieldsRequest
}

// UpdateReservationRequest represents a request to amend a draft reservation entry
type UpdateReservationRequest struct {
	ReservationFieldsRequest
}

// toFields converts the request into domain fields. When both posting date and
// time are omitted the entry is stamped with now, read in now's location.
func (r ReservationFieldsRequest) toFields(now time.Time) (stock.EntryFields, error) {
	fields := stock.EntryFields{
		ItemCode:        r.ItemCode,
		Warehouse:       r.Warehouse,
		StockUOM:        r.StockUOM,
		PostingTime:     r.PostingTime,
		VoucherType:     stock.VoucherType(r.VoucherType),
		VoucherNo:       r.VoucherNo,
		VoucherDetailNo: r.VoucherDetailNo,
		AvailableQty:    r.AvailableQty,
		VoucherQty:      r.VoucherQty,
		ReservedQty:     r.ReservedQty,
		Company:         r.Company,
	}

	if r.PostingDate == "" && r.PostingTime == "" {
		fields.PostingDate = now
		fields.PostingTime = now.Format(stock.PostingTimeLayout)
		return fields, nil
	}
	if r.PostingDate != "" {
		date, err := time.ParseInLocation(PostingDateLayout, r.PostingDate, now.Location())
		if err != nil {
			return stock.EntryFields{}, shared.NewValidationError(shared.ValidationKindInvalidPostingTime,
				"posting_date", "Invalid Posting Date "+r.PostingDate)
		}
		fields.PostingDate = date
	}
	return fields, nil
}

// ReservationListFilter represents filter options for listing reservation entries
type ReservationListFilter struct {
	ItemCode        string `form:"item_code"`
	Warehouse       string `form:"warehouse"`
	VoucherType     string `form:"voucher_type"`
	VoucherNo       string `form:"voucher_no"`
	VoucherDetailNo string `form:"voucher_detail_no"`
	Status          string `form:"status"`
	DocStatus       *int   `form:"docstatus" binding:"omitempty,min=0,max=2"`
	Page            int    `form:"page" binding:"omitempty,min=1"`
	PageSize        int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy         string `form:"order_by"`
	OrderDir        string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

func (f ReservationListFilter) toDomain() stock.EntryFilter {
	base := shared.DefaultFilter()
	if f.Page > 0 {
		base.Page = f.Page
	}
	if f.PageSize > 0 {
		base.PageSize = f.PageSize
	}
	if f.OrderBy != "" {
		base.OrderBy = f.OrderBy
	}
	if f.OrderDir != "" {
		base.OrderDir = f.OrderDir
	}
	filter := stock.EntryFilter{
		Filter:          base,
		ItemCode:        f.ItemCode,
		Warehouse:       f.Warehouse,
		VoucherType:     stock.VoucherType(f.VoucherType),
		VoucherNo:       f.VoucherNo,
		VoucherDetailNo: f.VoucherDetailNo,
		Status:          stock.ReservationStatus(f.Status),
	}
	if f.DocStatus != nil {
		ds := stock.DocStatus(*f.DocStatus)
		filter.DocStatus = &ds
	}
	return filter
}

// UpdateStatusRequest overrides the cached status. A nil or empty Status
// recomputes it from the entry's lifecycle state and quantities.
type UpdateStatusRequest struct {
	Status *string `json:"status"`
}

// RecordDeliveryRequest reports the cumulative delivered quantity of an entry
type RecordDeliveryRequest struct {
	DeliveredQty *decimal.Decimal `json:"delivered_qty" binding:"required"`
}

// VoucherLineRequest addresses one voucher line
type VoucherLineRequest struct {
	VoucherType     string `form:"voucher_type" json:"voucher_type" binding:"required,oneof='Sales Order' 'Stock Transfer'"`
	VoucherNo       string `form:"voucher_no" json:"voucher_no" binding:"required"`
	VoucherDetailNo string `form:"voucher_detail_no" json:"voucher_detail_no" binding:"required"`
}

func (r VoucherLineRequest) toRef() (stock.VoucherLineRef, error) {
	ref := stock.VoucherLineRef{
		VoucherType:     stock.VoucherType(r.VoucherType),
		VoucherNo:       r.VoucherNo,
		VoucherDetailNo: r.VoucherDetailNo,
	}
	if !ref.IsComplete() || !ref.VoucherType.IsValid() {
		return stock.VoucherLineRef{}, shared.NewDomainError("INVALID_INPUT",
			"voucher_type, voucher_no and voucher_detail_no must identify a known voucher line")
	}
	return ref, nil
}

// StockReservationEntryResponse represents a reservation entry in API responses
type StockReservationEntryResponse struct {
	ID              uuid.UUID       `json:"id"`
	ItemCode        string          `json:"item_code"`
	Warehouse       string          `json:"warehouse"`
	StockUOM        string          `json:"stock_uom"`
	PostingDate     string          `json:"posting_date"`
	PostingTime     string          `json:"posting_time"`
	VoucherType     string          `json:"voucher_type"`
	VoucherNo       string          `json:"voucher_no"`
	VoucherDetailNo string          `json:"voucher_detail_no"`
	AvailableQty    decimal.Decimal `json:"available_qty"`
	VoucherQty      decimal.Decimal `json:"voucher_qty"`
	ReservedQty     decimal.Decimal `json:"reserved_qty"`
	DeliveredQty    decimal.Decimal `json:"delivered_qty"`
	PendingQty      decimal.Decimal `json:"pending_qty"`
	Company         string          `json:"company"`
	DocStatus       int             `json:"docstatus"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Version         int             `json:"version"`
}

// ToEntryResponse converts a domain entry to its response form
func ToEntryResponse(e *stock.StockReservationEntry) *StockReservationEntryResponse {
	postingDate := ""
	if !e.PostingDate.IsZero() {
		postingDate = e.PostingDate.Format(PostingDateLayout)
	}
	return &StockReservationEntryResponse{
		ID:              e.ID,
		ItemCode:        e.ItemCode,
		Warehouse:       e.Warehouse,
		StockUOM:        e.StockUOM,
		PostingDate:     postingDate,
		PostingTime:     e.PostingTime,
		VoucherType:     string(e.VoucherType),
		VoucherNo:       e.VoucherNo,
		VoucherDetailNo: e.VoucherDetailNo,
		AvailableQty:    e.AvailableQty,
		VoucherQty:      e.VoucherQty,
		ReservedQty:     e.ReservedQty,
		DeliveredQty:    e.DeliveredQty,
		PendingQty:      e.PendingQty(),
		Company:         e.Company,
		DocStatus:       int(e.DocStatus),
		Status:          string(e.Status),
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
		Version:         e.Version,
	}
}

// VoucherLineReservedQtyResponse compares the ledger total of a voucher line
// with the value mirrored on the line itself.
type VoucherLineReservedQtyResponse struct {
	VoucherType      string          `json:"voucher_type"`
	VoucherNo        string          `json:"voucher_no"`
	VoucherDetailNo  string          `json:"voucher_detail_no"`
	ReservedQty      decimal.Decimal `json:"reserved_qty"`       // sum over submitted entries
	StockReservedQty decimal.Decimal `json:"stock_reserved_qty"` // value stored on the line
	InSync           bool            `json:"in_sync"`

	Entries []StockReservationEntryResponse `json:"entries,omitempty"` // every entry on the line, oldest first
}

func newVoucherLineResponse(ref stock.VoucherLineRef, ledger, mirrored decimal.Decimal) *VoucherLineReservedQtyResponse {
	return &VoucherLineReservedQtyResponse{
		VoucherType:      string(ref.VoucherType),
		VoucherNo:        ref.VoucherNo,
		VoucherDetailNo:  ref.VoucherDetailNo,
		ReservedQty:      ledger,
		StockReservedQty: mirrored,
		InSync:           ledger.Equal(mirrored),
	}
}
