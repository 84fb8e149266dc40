package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/gym-settlement/internal/settlement/domain"
)

var tracer = otel.Tracer("settlement-repository")

// TracedUnitOfWork wraps a unit of work so every settlement transaction shows
// up as a span with its outcome recorded.
type TracedUnitOfWork struct {
	inner domain.UnitOfWork
}

func NewTracedUnitOfWork(inner domain.UnitOfWork) *TracedUnitOfWork {
	return &TracedUnitOfWork{inner: inner}
}

func (u *TracedUnitOfWork) Do(ctx context.Context, fn func(tx domain.Tx) error) error {
	ctx, span := tracer.Start(ctx, "uow.Do",
		trace.WithAttributes(attribute.Bool("db.transactional", true)),
	)
	defer span.End()

	err := u.inner.Do(ctx, fn)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "committed")
	return nil
}

func (u *TracedUnitOfWork) View(ctx context.Context, fn func(tx domain.Tx) error) error {
	ctx, span := tracer.Start(ctx, "uow.View")
	defer span.End()

	err := u.inner.View(ctx, fn)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}
