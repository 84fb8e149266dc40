//go:build wireinject
// +build wireinject

package settlement

import (
	"github.com/google/wire"
	"gorm.io/gorm"

	"github.com/tair/gym-settlement/internal/settlement/handler"
	"github.com/tair/gym-settlement/internal/settlement/usecase/command"
)

// InitializeHandler initializes the settlement handler with all dependencies.
// events may be nil when no broker is configured.
func InitializeHandler(db *gorm.DB, events command.EventPublisher) (*handler.SettlementHandler, error) {
	wire.Build(
		AllHandlersSet,
		handler.NewSettlementHandler,
	)
	return nil, nil
}

// InitializeOverdueSweeper initializes the periodic auto-completion command.
func InitializeOverdueSweeper(db *gorm.DB, events command.EventPublisher) (*command.AutoCompleteOverdueHandler, error) {
	wire.Build(
		UnitOfWorkSet,
		ProvideRecordPaymentHandler,
		ProvideCompleteAppointmentHandler,
		ProvideAutoCompleteOverdueHandler,
	)
	return nil, nil
}
