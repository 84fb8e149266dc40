package command

import (
	"context"
	"fmt"
	"time"

	"github.com/tair/gym-settlement/internal/settlement/domain"
)

// OpenShiftCommand opens a cash-register shift for the acting user. A user
// may hold at most one open shift.
type OpenShiftCommand struct {
	Actor domain.Actor
	Notes string
}

type OpenShiftHandler struct {
	uow domain.UnitOfWork
}

func NewOpenShiftHandler(uow domain.UnitOfWork) *OpenShiftHandler {
	return &OpenShiftHandler{uow: uow}
}

func (h *OpenShiftHandler) Handle(ctx context.Context, cmd OpenShiftCommand) (*domain.Shift, error) {
	var shift *domain.Shift
	err := h.uow.Do(ctx, func(tx domain.Tx) error {
		open, err := tx.Shifts().OpenShiftForUser(cmd.Actor.ID)
		if err != nil {
			return fmt.Errorf("open shift lookup: %w", err)
		}
		if open != nil {
			return domain.NewConflictError(domain.CodeShiftAlreadyOpen,
				"a shift is already open for this user",
				"توجد وردية مفتوحة بالفعل لهذا المستخدم")
		}

		shift = &domain.Shift{
			UserID:   cmd.Actor.ID,
			OpenedAt: time.Now(),
			Notes:    cmd.Notes,
		}
		return tx.Shifts().Create(shift)
	})
	if err != nil {
		return nil, err
	}
	return shift, nil
}

// CloseShiftCommand closes the acting user's open shift.
type CloseShiftCommand struct {
	Actor domain.Actor
}

type CloseShiftHandler struct {
	uow domain.UnitOfWork
}

func NewCloseShiftHandler(uow domain.UnitOfWork) *CloseShiftHandler {
	return &CloseShiftHandler{uow: uow}
}

func (h *CloseShiftHandler) Handle(ctx context.Context, cmd CloseShiftCommand) (*domain.Shift, error) {
	var shift *domain.Shift
	err := h.uow.Do(ctx, func(tx domain.Tx) error {
		open, err := tx.Shifts().OpenShiftForUser(cmd.Actor.ID)
		if err != nil {
			return fmt.Errorf("open shift lookup: %w", err)
		}
		if open == nil {
			return domain.NewPolicyError(domain.CodeNoOpenShift,
				"no open shift to close", "لا توجد وردية مفتوحة للإغلاق")
		}

		now := time.Now()
		open.ClosedAt = &now
		if err := tx.Shifts().Update(open); err != nil {
			return fmt.Errorf("close shift: %w", err)
		}
		shift = open
		return nil
	})
	if err != nil {
		return nil, err
	}
	return shift, nil
}
