package command

import (
	"context"
	"fmt"
	"time"

	"github.com/tair/gym-settlement/internal/settlement/domain"
	"github.com/tair/gym-settlement/pkg/logger"
)

// AutoCompleteOverdueCommand is the periodic sweep that marks sessions whose
// end time passed as auto-completed. It is idempotent: re-running it on an
// already processed session is a no-op because only booked sessions match.
type AutoCompleteOverdueCommand struct {
	// Grace delays auto-completion after the scheduled end.
	Grace time.Duration
	Limit int
	Actor domain.Actor
}

type AutoCompleteOverdueHandler struct {
	uow      domain.UnitOfWork
	complete *CompleteAppointmentHandler
}

func NewAutoCompleteOverdueHandler(uow domain.UnitOfWork, complete *CompleteAppointmentHandler) *AutoCompleteOverdueHandler {
	return &AutoCompleteOverdueHandler{uow: uow, complete: complete}
}

// Handle settles each overdue session in its own transaction so one bad row
// cannot block the rest of the sweep.
func (h *AutoCompleteOverdueHandler) Handle(ctx context.Context, cmd AutoCompleteOverdueCommand) (int, error) {
	if cmd.Limit <= 0 {
		cmd.Limit = 100
	}
	cutoff := time.Now().Add(-cmd.Grace)

	var overdue []domain.Appointment
	err := h.uow.View(ctx, func(tx domain.Tx) error {
		var err error
		overdue, err = tx.Appointments().FindOverdue(cutoff, cmd.Limit)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("find overdue appointments: %w", err)
	}

	processed := 0
	for _, appt := range overdue {
		result, err := h.complete.Handle(ctx, CompleteAppointmentCommand{
			AppointmentID: appt.ID,
			Actor:         cmd.Actor,
		})
		if err != nil {
			logger.Warn(ctx).
				Err(err).
				Uint("appointment_id", appt.ID).
				Msg("Auto-completion skipped appointment")
			continue
		}
		if !result.AlreadyCompleted {
			processed++
			err = h.uow.Do(ctx, func(tx domain.Tx) error {
				latest, err := tx.Appointments().FindByID(appt.ID)
				if err != nil || latest == nil {
					return err
				}
				latest.Status = domain.AppointmentAutoCompleted
				return tx.Appointments().Update(latest)
			})
			if err != nil {
				logger.Warn(ctx).
					Err(err).
					Uint("appointment_id", appt.ID).
					Msg("Could not mark appointment auto_completed")
			}
		}
	}

	logger.Info(ctx).
		Int("processed", processed).
		Int("candidates", len(overdue)).
		Msg("Overdue appointment sweep finished")
	return processed, nil
}
