package assignment

import (
	"context"
	"strconv"

	"github.com/Zhima-Mochi/minishop-catalog/internal/application"
	domain "github.com/Zhima-Mochi/minishop-catalog/internal/domain/assignment"
	domoutbox "github.com/Zhima-Mochi/minishop-catalog/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-catalog/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	workerService          = "assignment-worker"
	useCaseReconcileCharge = "assignment.worker.charge_failed"
)

// ChargeReconciliationWorker surfaces assignments whose charge did not go
// through so they can be settled by hand.
type ChargeReconciliationWorker struct {
	inst     *application.Instrumentation
	failures observability.Counter // assignment_charge_failures_total{status}
	recorded observability.Counter // assignments_recorded_total
}

func NewChargeReconciliationWorker(tel observability.Observability) *ChargeReconciliationWorker {
	_, _, metrics := observability.Resolve(tel)
	return &ChargeReconciliationWorker{
		inst:     application.NewInstrumentation(workerService, tel),
		failures: metrics.Counter(observability.MChargeFailures),
		recorded: metrics.Counter(observability.MAssignmentsRecorded),
	}
}

// Start subscribes the worker, wrapping its handler in mw.
func (w *ChargeReconciliationWorker) Start(sub domoutbox.Subscriber, mw ...domoutbox.Middleware) {
	if sub == nil {
		return
	}
	sub.Subscribe(domain.RecordedEvent{}.EventName(), domoutbox.Chain(w.HandleRecorded, mw...))
	sub.Subscribe(domain.ChargeFailedEvent{}.EventName(), domoutbox.Chain(w.HandleChargeFailed, mw...))
}

// HandleRecorded counts ledger appends so failures can be read as a share
// of all assignments.
func (w *ChargeReconciliationWorker) HandleRecorded(_ context.Context, e domoutbox.Event) error {
	switch e.(type) {
	case domain.RecordedEvent, *domain.RecordedEvent:
		w.recorded.Add(1)
	}
	return nil
}

func (w *ChargeReconciliationWorker) HandleChargeFailed(ctx context.Context, e domoutbox.Event) (err error) {
	evt, ok := e.(domain.ChargeFailedEvent)
	if !ok {
		if p, isPtr := e.(*domain.ChargeFailedEvent); isPtr && p != nil {
			evt, ok = *p, true
		}
	}

	_, run := w.inst.Begin(ctx, useCaseReconcileCharge, "ReconcileCharge",
		attribute.String("event", e.EventName()),
	)
	defer func() { run.End(err) }()

	if !ok {
		run.Mark("IGNORED")
		return nil
	}

	run.Span().SetAttributes(
		attribute.String("assignment.id", evt.AssignmentID),
		attribute.String("assignment.account_id", evt.AccountID),
		attribute.Int("charge.upstream_status", evt.Status),
	)
	w.failures.Add(1, observability.L("status", strconv.Itoa(evt.Status)))

	run.Logger().Warn("charge_reconciliation_required",
		observability.F("assignment_id", evt.AssignmentID),
		observability.F("account_id", evt.AccountID),
		observability.F("product_id", evt.ProductID),
		observability.F("amount", evt.Amount),
		observability.F("upstream_status", evt.Status),
		observability.F("reason", evt.Reason),
		observability.F("occurred_at", evt.OccurredAt),
	)
	return nil
}
