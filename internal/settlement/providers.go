package settlement

import (
	"github.com/google/wire"
	"gorm.io/gorm"

	"github.com/tair/gym-settlement/internal/settlement/domain"
	"github.com/tair/gym-settlement/internal/settlement/repository"
	"github.com/tair/gym-settlement/internal/settlement/usecase/command"
	"github.com/tair/gym-settlement/internal/settlement/usecase/query"
)

// ProvideUnitOfWork provides the gorm unit of work wrapped with tracing
func ProvideUnitOfWork(db *gorm.DB) (domain.UnitOfWork, error) {
	uow := repository.NewGormUnitOfWork(db)
	if err := uow.AutoMigrate(); err != nil {
		return nil, err
	}
	return repository.NewTracedUnitOfWork(uow), nil
}

// Command Handlers Providers
func ProvideRecordPaymentHandler(uow domain.UnitOfWork, events command.EventPublisher) *command.RecordPaymentHandler {
	return command.NewRecordPaymentHandler(uow, events)
}

func ProvideCompleteAppointmentHandler(uow domain.UnitOfWork, recorder *command.RecordPaymentHandler, events command.EventPublisher) *command.CompleteAppointmentHandler {
	return command.NewCompleteAppointmentHandler(uow, recorder, events)
}

func ProvideRefundPaymentHandler(uow domain.UnitOfWork, events command.EventPublisher) *command.RefundPaymentHandler {
	return command.NewRefundPaymentHandler(uow, events)
}

func ProvideCancelSubscriptionHandler(uow domain.UnitOfWork, events command.EventPublisher) *command.CancelSubscriptionHandler {
	return command.NewCancelSubscriptionHandler(uow, events)
}

func ProvideAdjustCreditHandler(uow domain.UnitOfWork) *command.AdjustCreditHandler {
	return command.NewAdjustCreditHandler(uow)
}

func ProvideUpdateAppointmentPriceHandler(uow domain.UnitOfWork) *command.UpdateAppointmentPriceHandler {
	return command.NewUpdateAppointmentPriceHandler(uow)
}

func ProvideOpenShiftHandler(uow domain.UnitOfWork) *command.OpenShiftHandler {
	return command.NewOpenShiftHandler(uow)
}

func ProvideCloseShiftHandler(uow domain.UnitOfWork) *command.CloseShiftHandler {
	return command.NewCloseShiftHandler(uow)
}

func ProvideSettleEarningsHandler(uow domain.UnitOfWork) *command.SettleEarningsHandler {
	return command.NewSettleEarningsHandler(uow)
}

func ProvideAutoCompleteOverdueHandler(uow domain.UnitOfWork, complete *command.CompleteAppointmentHandler) *command.AutoCompleteOverdueHandler {
	return command.NewAutoCompleteOverdueHandler(uow, complete)
}

// Query Handlers Providers
func ProvideGetPaymentHandler(uow domain.UnitOfWork) *query.GetPaymentHandler {
	return query.NewGetPaymentHandler(uow)
}

func ProvideListPaymentsHandler(uow domain.UnitOfWork) *query.ListPaymentsHandler {
	return query.NewListPaymentsHandler(uow)
}

func ProvideRefundPreviewHandler(uow domain.UnitOfWork) *query.RefundPreviewHandler {
	return query.NewRefundPreviewHandler(uow)
}

func ProvideGetCreditBalanceHandler(uow domain.UnitOfWork) *query.GetCreditBalanceHandler {
	return query.NewGetCreditBalanceHandler(uow)
}

func ProvideShiftBreakdownHandler(uow domain.UnitOfWork) *query.ShiftBreakdownHandler {
	return query.NewShiftBreakdownHandler(uow)
}

// Wire sets
var UnitOfWorkSet = wire.NewSet(
	ProvideUnitOfWork,
)

var CommandHandlerSet = wire.NewSet(
	ProvideRecordPaymentHandler,
	ProvideCompleteAppointmentHandler,
	ProvideRefundPaymentHandler,
	ProvideCancelSubscriptionHandler,
	ProvideAdjustCreditHandler,
	ProvideUpdateAppointmentPriceHandler,
	ProvideOpenShiftHandler,
	ProvideCloseShiftHandler,
	ProvideSettleEarningsHandler,
)

var QueryHandlerSet = wire.NewSet(
	ProvideGetPaymentHandler,
	ProvideListPaymentsHandler,
	ProvideRefundPreviewHandler,
	ProvideGetCreditBalanceHandler,
	ProvideShiftBreakdownHandler,
)

var AllHandlersSet = wire.NewSet(
	UnitOfWorkSet,
	CommandHandlerSet,
	QueryHandlerSet,
)
