package stock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/stockreservation/internal/domain/partner"
	"github.com/erp/stockreservation/internal/domain/shared"
	"github.com/erp/stockreservation/internal/domain/stock"
	"github.com/erp/stockreservation/internal/infrastructure/logger"
	"github.com/erp/stockreservation/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const serviceName = "stock_reservation"

// EntryValidator checks a reservation entry before it is saved or submitted
type EntryValidator interface {
	Validate(ctx context.Context, entry *stock.StockReservationEntry) error
}

// ReservationService maintains the reservation ledger: the lifecycle of
// reservation entries, the reserved total mirrored on each voucher line and
// the cached status of every entry.
type ReservationService struct {
	entryRepo      stock.StockReservationEntryRepository
	lineRepo       stock.VoucherLineRepository
	txScope        TransactionScope
	validator      EntryValidator
	locker         LineLocker
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	touchModified  bool
	now            func() time.Time
	loc            *time.Location
}

// NewReservationService creates a new ReservationService.
// A nil locker falls back to an in-process KeyedMutexLocker.
func NewReservationService(
	entryRepo stock.StockReservationEntryRepository,
	lineRepo stock.VoucherLineRepository,
	txScope TransactionScope,
	validator EntryValidator,
	locker LineLocker,
	logger *zap.Logger,
) *ReservationService {
	if locker == nil {
		locker = NewKeyedMutexLocker()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReservationService{
		entryRepo:     entryRepo,
		lineRepo:      lineRepo,
		txScope:       txScope,
		validator:     validator,
		locker:        locker,
		logger:        logger,
		touchModified: true,
		now:           time.Now,
		loc:           time.UTC,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *ReservationService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetTouchModified controls whether derived writes (status, mirrored line
// quantity) bump the modification timestamp of the written row.
func (s *ReservationService) SetTouchModified(touch bool) {
	s.touchModified = touch
}

// SetClock replaces the clock used to stamp posting times
func (s *ReservationService) SetClock(now func() time.Time) {
	s.now = now
}

// SetLocation sets the zone in which posting dates and times are stamped
func (s *ReservationService) SetLocation(loc *time.Location) {
	if loc != nil {
		s.loc = loc
	}
}

func (s *ReservationService) stamp() time.Time {
	return s.now().In(s.loc)
}

// validatorFor returns a validator whose warehouse lookups go through repos,
// keeping them inside the caller's transaction and off the shared pool.
func (s *ReservationService) validatorFor(repos TransactionalRepositories) EntryValidator {
	v, ok := s.validator.(*stock.ReservationValidator)
	if !ok {
		return s.validator
	}
	warehouses := repos.WarehouseRepo()
	if warehouses == nil {
		return s.validator
	}
	return v.WithWarehouses(partner.NewWarehouseGuard(warehouses))
}

func (s *ReservationService) log(ctx context.Context) *zap.Logger {
	return logger.Ctx(ctx, s.logger)
}

// publishDomainEvents publishes all pending domain events of the entry
func (s *ReservationService) publishDomainEvents(ctx context.Context, entry *stock.StockReservationEntry) {
	if s.eventPublisher == nil || entry == nil {
		return
	}
	events := entry.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	// Publish events (errors are logged by the event bus, not propagated)
	_ = s.eventPublisher.Publish(ctx, events...)
	entry.ClearDomainEvents()
}

func fail(span trace.Span, err error) error {
	telemetry.RecordError(span, err)
	return err
}

// storeError passes domain and persistence errors through and wraps anything
// else from the store as a PersistenceError. A bare ErrNotFound from an entry
// lookup is reported as a missing reservation entry.
func storeError(op string, err error) error {
	var pe *shared.PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewDomainError("NOT_FOUND", "Reservation entry not found")
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	return shared.NewPersistenceError(op, err)
}

// Validate builds an entry from req and runs the validator without persisting anything
func (s *ReservationService) Validate(ctx context.Context, req CreateReservationRequest) error {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "validate")
	defer span.End()

	fields, err := req.toFields(s.stamp())
	if err != nil {
		return fail(span, err)
	}
	if err := s.validator.Validate(ctx, stock.NewStockReservationEntry(fields)); err != nil {
		return fail(span, err)
	}
	return nil
}

// Create validates and stores a new draft entry
func (s *ReservationService) Create(ctx context.Context, req CreateReservationRequest) (*StockReservationEntryResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "create",
		telemetry.SpanAttrVoucherType, req.VoucherType,
		telemetry.SpanAttrVoucherNo, req.VoucherNo,
		telemetry.SpanAttrVoucherDetailNo, req.VoucherDetailNo,
	)
	defer span.End()

	fields, err := req.toFields(s.stamp())
	if err != nil {
		return nil, fail(span, err)
	}
	entry := stock.NewStockReservationEntry(fields)
	if err := s.validator.Validate(ctx, entry); err != nil {
		return nil, fail(span, err)
	}
	if err := s.entryRepo.Save(ctx, entry); err != nil {
		return nil, fail(span, shared.NewPersistenceError("save_entry", err))
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrEntryID, entry.ID.String())
	s.log(ctx).Info("reservation entry created",
		zap.String("entry_id", entry.ID.String()),
		zap.String("voucher_line", entry.VoucherLine().Key()),
		zap.String("reserved_qty", entry.ReservedQty.String()),
	)
	return ToEntryResponse(entry), nil
}

// Get retrieves an entry by ID
func (s *ReservationService) Get(ctx context.Context, id uuid.UUID) (*StockReservationEntryResponse, error) {
	entry, err := s.entryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("find_entry", err)
	}
	return ToEntryResponse(entry), nil
}

// List retrieves entries matching the filter with the total match count
func (s *ReservationService) List(ctx context.Context, filter ReservationListFilter) ([]StockReservationEntryResponse, int64, error) {
	entries, total, err := s.entryRepo.FindAll(ctx, filter.toDomain())
	if err != nil {
		return nil, 0, shared.NewPersistenceError("list_entries", err)
	}
	items := make([]StockReservationEntryResponse, len(entries))
	for i := range entries {
		items[i] = *ToEntryResponse(&entries[i])
	}
	return items, total, nil
}

// UpdateDraft amends a draft entry and re-validates it
func (s *ReservationService) UpdateDraft(ctx context.Context, id uuid.UUID, req UpdateReservationRequest) (*StockReservationEntryResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "update_draft", telemetry.SpanAttrEntryID, id.String())
	defer span.End()

	fields, err := req.toFields(s.stamp())
	if err != nil {
		return nil, fail(span, err)
	}

	var entry *stock.StockReservationEntry
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		e, err := repos.EntryRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return storeError("load_entry", err)
		}
		if err := e.Update(fields); err != nil {
			return err
		}
		if err := s.validatorFor(repos).Validate(ctx, e); err != nil {
			return err
		}
		if err := repos.EntryRepo().Save(ctx, e); err != nil {
			return shared.NewPersistenceError("save_entry", err)
		}
		entry = e
		return nil
	})
	if err != nil {
		return nil, fail(span, storeError("update_draft", err))
	}

	s.log(ctx).Info("reservation entry updated", zap.String("entry_id", id.String()))
	return ToEntryResponse(entry), nil
}

// Delete removes a draft entry
func (s *ReservationService) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "delete", telemetry.SpanAttrEntryID, id.String())
	defer span.End()

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		e, err := repos.EntryRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return storeError("load_entry", err)
		}
		if !e.CanDelete() {
			return shared.NewDomainError("INVALID_STATE", "Only draft reservation entries can be deleted")
		}
		if err := repos.EntryRepo().Delete(ctx, id); err != nil {
			return shared.NewPersistenceError("delete_entry", err)
		}
		return nil
	})
	if err != nil {
		return fail(span, storeError("delete_entry", err))
	}

	s.log(ctx).Info("reservation entry deleted", zap.String("entry_id", id.String()))
	return nil
}

// Submit validates the entry, moves it from Draft to Submitted, re-syncs the
// reserved total of its voucher line and recomputes its status, all in one
// transaction.
func (s *ReservationService) Submit(ctx context.Context, id uuid.UUID) (*StockReservationEntryResponse, error) {
	return s.transition(ctx, id, "submit", func(ctx context.Context, repos TransactionalRepositories, e *stock.StockReservationEntry) error {
		if err := s.validatorFor(repos).Validate(ctx, e); err != nil {
			return err
		}
		return e.Submit()
	})
}

// Cancel moves a submitted entry to Cancelled, releasing its quantity from
// the voucher line total, and recomputes its status.
func (s *ReservationService) Cancel(ctx context.Context, id uuid.UUID) (*StockReservationEntryResponse, error) {
	return s.transition(ctx, id, "cancel", func(_ context.Context, _ TransactionalRepositories, e *stock.StockReservationEntry) error {
		return e.Cancel()
	})
}

func (s *ReservationService) transition(
	ctx context.Context,
	id uuid.UUID,
	op string,
	apply func(ctx context.Context, repos TransactionalRepositories, e *stock.StockReservationEntry) error,
) (*StockReservationEntryResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, op, telemetry.SpanAttrEntryID, id.String())
	defer span.End()

	current, err := s.entryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fail(span, storeError("find_entry", err))
	}
	ref := current.VoucherLine()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrVoucherType, string(ref.VoucherType),
		telemetry.SpanAttrVoucherNo, ref.VoucherNo,
		telemetry.SpanAttrVoucherDetailNo, ref.VoucherDetailNo,
	)

	release, err := s.locker.Acquire(ctx, ref.Key())
	if err != nil {
		return nil, fail(span, fmt.Errorf("acquire lock on %s: %w", ref, err))
	}
	defer release()

	var (
		entry *stock.StockReservationEntry
		total decimal.Decimal
	)
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		e, err := repos.EntryRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return storeError("load_entry", err)
		}
		if e.VoucherLine() != ref {
			return shared.NewDomainError("CONCURRENCY_CONFLICT", "Reservation entry was moved to another voucher line")
		}
		if err := apply(ctx, repos, e); err != nil {
			return err
		}
		if err := repos.EntryRepo().Save(ctx, e); err != nil {
			return shared.NewPersistenceError("save_entry", err)
		}
		if total, err = s.UpdateReservedQtyInVoucher(ctx, repos, e); err != nil {
			return err
		}
		if _, err := s.updateStatus(ctx, repos, e, nil); err != nil {
			return err
		}
		entry = e
		return nil
	})
	if err != nil {
		return nil, fail(span, storeError(op, err))
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrStatus, string(entry.Status),
		telemetry.SpanAttrReservedTotal, total.String(),
	)
	s.log(ctx).Info("reservation entry transitioned",
		zap.String("op", op),
		zap.String("entry_id", id.String()),
		zap.String("voucher_line", ref.Key()),
		zap.String("status", string(entry.Status)),
		zap.String("line_reserved_qty", total.String()),
	)
	s.publishDomainEvents(ctx, entry)
	return ToEntryResponse(entry), nil
}

// UpdateReservedQtyInVoucher recomputes the total reserved quantity of the
// entry's voucher line from the submitted entries of that line and writes it
// to the line. The line row is locked first so the sum cannot go stale before
// the write. repos must belong to an open transaction.
func (s *ReservationService) UpdateReservedQtyInVoucher(ctx context.Context, repos TransactionalRepositories, entry *stock.StockReservationEntry) (decimal.Decimal, error) {
	return s.syncVoucherLine(ctx, repos, entry.VoucherLine())
}

func (s *ReservationService) syncVoucherLine(ctx context.Context, repos TransactionalRepositories, ref stock.VoucherLineRef) (decimal.Decimal, error) {
	if _, err := repos.VoucherLineRepo().LockLine(ctx, ref); err != nil {
		return decimal.Zero, shared.NewPersistenceError("lock_voucher_line", err)
	}
	total, err := repos.EntryRepo().SumReservedQty(ctx, ref, stock.DocStatusSubmitted)
	if err != nil {
		return decimal.Zero, shared.NewPersistenceError("sum_reserved_qty", err)
	}
	if err := repos.VoucherLineRepo().SetStockReservedQty(ctx, ref, total, s.touchModified); err != nil {
		return decimal.Zero, shared.NewPersistenceError("set_stock_reserved_qty", err)
	}
	s.log(ctx).Debug("voucher line reserved qty synced",
		zap.String("voucher_line", ref.Key()),
		zap.String("stock_reserved_qty", total.String()),
	)
	return total, nil
}

// updateStatus resolves the entry status (override or derived) and writes the status column
func (s *ReservationService) updateStatus(ctx context.Context, repos TransactionalRepositories, entry *stock.StockReservationEntry, override *stock.ReservationStatus) (stock.ReservationStatus, error) {
	status, _, err := entry.ResolveStatus(override)
	if err != nil {
		return "", err
	}
	if err := repos.EntryRepo().SetStatus(ctx, entry.ID, status, s.touchModified); err != nil {
		return "", shared.NewPersistenceError("set_status", err)
	}
	return status, nil
}

// UpdateStatus sets the cached status of an entry. Without an override the
// status is recomputed from the entry's current lifecycle state and quantities.
func (s *ReservationService) UpdateStatus(ctx context.Context, id uuid.UUID, req UpdateStatusRequest) (*StockReservationEntryResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "update_status", telemetry.SpanAttrEntryID, id.String())
	defer span.End()

	var override *stock.ReservationStatus
	if req.Status != nil && *req.Status != "" {
		st := stock.ReservationStatus(*req.Status)
		override = &st
	}

	var entry *stock.StockReservationEntry
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		e, err := repos.EntryRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return storeError("load_entry", err)
		}
		if _, err := s.updateStatus(ctx, repos, e, override); err != nil {
			return err
		}
		entry = e
		return nil
	})
	if err != nil {
		return nil, fail(span, storeError("update_status", err))
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrStatus, string(entry.Status))
	s.publishDomainEvents(ctx, entry)
	return ToEntryResponse(entry), nil
}

// RecordDelivery stores the cumulative delivered quantity reported for a
// submitted entry and recomputes its status.
func (s *ReservationService) RecordDelivery(ctx context.Context, id uuid.UUID, req RecordDeliveryRequest) (*StockReservationEntryResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "record_delivery", telemetry.SpanAttrEntryID, id.String())
	defer span.End()

	if req.DeliveredQty == nil {
		return nil, fail(span, shared.NewDomainError("INVALID_INPUT", "delivered_qty is required"))
	}

	var entry *stock.StockReservationEntry
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		e, err := repos.EntryRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return storeError("load_entry", err)
		}
		if err := e.RecordDelivery(*req.DeliveredQty); err != nil {
			return err
		}
		if err := repos.EntryRepo().Save(ctx, e); err != nil {
			return shared.NewPersistenceError("save_entry", err)
		}
		if _, err := s.updateStatus(ctx, repos, e, nil); err != nil {
			return err
		}
		entry = e
		return nil
	})
	if err != nil {
		return nil, fail(span, storeError("record_delivery", err))
	}

	s.log(ctx).Info("reservation delivery recorded",
		zap.String("entry_id", id.String()),
		zap.String("delivered_qty", entry.DeliveredQty.String()),
		zap.String("status", string(entry.Status)),
	)
	s.publishDomainEvents(ctx, entry)
	return ToEntryResponse(entry), nil
}

// GetVoucherLineReservedQty returns the live ledger total of a voucher line
// next to the value currently mirrored on the line, with every entry held
// against the line.
func (s *ReservationService) GetVoucherLineReservedQty(ctx context.Context, req VoucherLineRequest) (*VoucherLineReservedQtyResponse, error) {
	ref, err := req.toRef()
	if err != nil {
		return nil, err
	}
	ledger, err := s.entryRepo.SumReservedQty(ctx, ref, stock.DocStatusSubmitted)
	if err != nil {
		return nil, shared.NewPersistenceError("sum_reserved_qty", err)
	}
	mirrored, err := s.lineRepo.GetStockReservedQty(ctx, ref)
	if err != nil {
		return nil, shared.NewPersistenceError("get_stock_reserved_qty", err)
	}
	entries, err := s.entryRepo.FindByVoucherLine(ctx, ref)
	if err != nil {
		return nil, shared.NewPersistenceError("find_line_entries", err)
	}

	resp := newVoucherLineResponse(ref, ledger, mirrored)
	resp.Entries = make([]StockReservationEntryResponse, len(entries))
	for i := range entries {
		resp.Entries[i] = *ToEntryResponse(&entries[i])
	}
	return resp, nil
}

// RecalculateVoucherLine re-syncs the mirrored reserved quantity of a voucher
// line from the ledger. Repeated calls without intervening changes write the
// same value.
func (s *ReservationService) RecalculateVoucherLine(ctx context.Context, req VoucherLineRequest) (*VoucherLineReservedQtyResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "recalculate_voucher_line",
		telemetry.SpanAttrVoucherType, req.VoucherType,
		telemetry.SpanAttrVoucherNo, req.VoucherNo,
		telemetry.SpanAttrVoucherDetailNo, req.VoucherDetailNo,
	)
	defer span.End()

	ref, err := req.toRef()
	if err != nil {
		return nil, fail(span, err)
	}

	release, err := s.locker.Acquire(ctx, ref.Key())
	if err != nil {
		return nil, fail(span, fmt.Errorf("acquire lock on %s: %w", ref, err))
	}
	defer release()

	var total decimal.Decimal
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		total, err = s.syncVoucherLine(ctx, repos, ref)
		return err
	})
	if err != nil {
		return nil, fail(span, err)
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrReservedTotal, total.String())
	s.log(ctx).Info("voucher line recalculated",
		zap.String("voucher_line", ref.Key()),
		zap.String("stock_reserved_qty", total.String()),
	)
	return newVoucherLineResponse(ref, total, total), nil
}
