package query

import (
	"context"
	"fmt"
	"time"

	"github.com/tair/gym-settlement/internal/settlement/domain"
	"github.com/tair/gym-settlement/pkg/money"
)

// Breakdown scopes
const (
	ScopeCurrent = "current"
	ScopeAll     = "all"
	ScopeRange   = "range"
)

// ShiftBreakdownQuery requests a cash-drawer breakdown. Non-privileged
// actors are always pinned to their own open shift regardless of the
// requested scope.
type ShiftBreakdownQuery struct {
	Scope string
	From  *time.Time
	To    *time.Time
	Actor domain.Actor
}

// MethodTotals is the paid/refunded/net triple for one payment method.
type MethodTotals struct {
	Paid     float64 `json:"paid"`
	Refunded float64 `json:"refunded"`
	Net      float64 `json:"net"`
}

// ShiftBreakdown is the drawer report. Refunds count against the shift in
// which the refund itself was recorded, so Net can go negative when a shift
// refunds earlier shifts' payments.
type ShiftBreakdown struct {
	Cash     MethodTotals `json:"cash"`
	Card     MethodTotals `json:"card"`
	Transfer MethodTotals `json:"transfer"`
	Total    MethodTotals `json:"total"`
}

// ShiftBreakdownHandler handles the shift breakdown query.
type ShiftBreakdownHandler struct {
	uow domain.UnitOfWork
}

func NewShiftBreakdownHandler(uow domain.UnitOfWork) *ShiftBreakdownHandler {
	return &ShiftBreakdownHandler{uow: uow}
}

func (h *ShiftBreakdownHandler) Handle(ctx context.Context, q ShiftBreakdownQuery) (*ShiftBreakdown, error) {
	var breakdown *ShiftBreakdown
	err := h.uow.View(ctx, func(tx domain.Tx) error {
		scope, empty, err := h.resolveScope(tx, q)
		if err != nil {
			return err
		}
		if empty {
			breakdown = &ShiftBreakdown{}
			return nil
		}

		paid, err := tx.Payments().PaidTotalsByMethod(scope)
		if err != nil {
			return fmt.Errorf("paid totals: %w", err)
		}
		refunded, err := tx.Refunds().RefundTotalsByMethod(scope)
		if err != nil {
			return fmt.Errorf("refund totals: %w", err)
		}

		breakdown = assemble(paid, refunded)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return breakdown, nil
}

// resolveScope applies the visibility rules. empty=true means the actor has
// no open shift, so every total is zero.
func (h *ShiftBreakdownHandler) resolveScope(tx domain.Tx, q ShiftBreakdownQuery) (domain.ShiftScope, bool, error) {
	if !q.Actor.Privileged() {
		shift, err := tx.Shifts().OpenShiftForUser(q.Actor.ID)
		if err != nil {
			return domain.ShiftScope{}, false, fmt.Errorf("open shift lookup: %w", err)
		}
		if shift == nil {
			return domain.ShiftScope{}, true, nil
		}
		return domain.ShiftScope{ShiftIDs: []uint{shift.ID}}, false, nil
	}

	switch q.Scope {
	case ScopeCurrent:
		open, err := tx.Shifts().OpenShifts()
		if err != nil {
			return domain.ShiftScope{}, false, fmt.Errorf("open shifts: %w", err)
		}
		if len(open) == 0 {
			return domain.ShiftScope{}, true, nil
		}
		ids := make([]uint, 0, len(open))
		for _, s := range open {
			ids = append(ids, s.ID)
		}
		return domain.ShiftScope{ShiftIDs: ids}, false, nil
	case ScopeRange:
		return domain.ShiftScope{Unscoped: true, From: q.From, To: q.To}, false, nil
	default:
		return domain.ShiftScope{Unscoped: true}, false, nil
	}
}

func assemble(paid, refunded map[string]float64) *ShiftBreakdown {
	totals := func(method string) MethodTotals {
		p := money.Round2(paid[method])
		r := money.Round2(refunded[method])
		return MethodTotals{Paid: p, Refunded: r, Net: money.Round2(p - r)}
	}

	b := &ShiftBreakdown{
		Cash:     totals(domain.MethodCash),
		Card:     totals(domain.MethodCard),
		Transfer: totals(domain.MethodTransfer),
	}

	var totalPaid, totalRefunded float64
	for _, v := range paid {
		totalPaid += v
	}
	for _, v := range refunded {
		totalRefunded += v
	}
	b.Total = MethodTotals{
		Paid:     money.Round2(totalPaid),
		Refunded: money.Round2(totalRefunded),
		Net:      money.Round2(totalPaid - totalRefunded),
	}
	return b
}
