// Package assignment coordinates handing a product to an external account:
// verify the account, record the assignment, then optionally charge for it.
package assignment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-catalog/internal/application"
	domaccount "github.com/Zhima-Mochi/minishop-catalog/internal/domain/account"
	domain "github.com/Zhima-Mochi/minishop-catalog/internal/domain/assignment"
	domoutbox "github.com/Zhima-Mochi/minishop-catalog/internal/domain/outbox"
	domproduct "github.com/Zhima-Mochi/minishop-catalog/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-catalog/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	catalogService    = "catalog-service"
	useCaseAssign     = "assignment.assign"
	useCaseList       = "assignment.list"
	publishPeer       = "outbox"
	publishTimeout    = 300 * time.Millisecond
	stateStart        = "Start"
	stateProduct      = "ProductResolved"
	stateAccount      = "AccountVerified"
	stateRecorded     = "AssignmentRecorded"
	stateChargeOK     = "ChargeApplied"
	stateChargeFailed = "ChargeFailed"
	stateChargeSkip   = "ChargeSkipped"
	stateDone         = "Done"
)

// ChargeStatus describes what happened to the optional charge step.
type ChargeStatus string

const (
	ChargeApplied ChargeStatus = "applied"
	ChargeFailed  ChargeStatus = "failed"
	ChargeSkipped ChargeStatus = "skipped"
)

type AssignProductInput struct {
	ProductID string
	AccountID string
}

// AssignProductResult always carries the recorded assignment. When the
// charge ran and failed, ChargeErr is set and the assignment still stands.
type AssignProductResult struct {
	Assignment   *domain.Assignment
	Charge       *domaccount.Credit
	ChargeErr    error
	ChargeStatus ChargeStatus
}

// AssignProductUseCase runs the assignment protocol:
// product → account → ledger → optional charge. Failures before the ledger
// append leave no trace; a failed charge never removes the assignment.
type AssignProductUseCase struct {
	products       ProductLookup
	directory      AccountDirectory
	ledger         domain.Ledger
	publisher      domoutbox.Publisher
	chargeOnAssign bool

	inst         *application.Instrumentation
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

var _ application.UseCase[AssignProductInput, *AssignProductResult] = (*AssignProductUseCase)(nil)

func NewAssignProductUseCase(
	products ProductLookup,
	directory AccountDirectory,
	ledger domain.Ledger,
	publisher domoutbox.Publisher,
	chargeOnAssign bool,
	tel observability.Observability,
) *AssignProductUseCase {
	_, _, metrics := observability.Resolve(tel)
	return &AssignProductUseCase{
		products:       products,
		directory:      directory,
		ledger:         ledger,
		publisher:      publisher,
		chargeOnAssign: chargeOnAssign,
		inst:           application.NewInstrumentation(catalogService, tel),
		extCounter:     metrics.Counter(observability.MExternalRequests),
		extHistogram:   metrics.Histogram(observability.MExternalRequestDuration),
	}
}

func (uc *AssignProductUseCase) Execute(ctx context.Context, cmd AssignProductInput) (_ *AssignProductResult, err error) {
	ctx, run := uc.inst.Begin(ctx, useCaseAssign, "AssignProduct",
		attribute.String("assignment.product_id", cmd.ProductID),
		attribute.String("assignment.account_id", cmd.AccountID),
		attribute.Bool("assignment.charge_on_assign", uc.chargeOnAssign),
	)
	span := run.Span()
	trail := []string{stateStart}
	advance := func(state string, attrs ...attribute.KeyValue) {
		trail = append(trail, state)
		span.AddEvent(state, trace.WithAttributes(attrs...))
	}
	defer func() {
		run.Field(observability.F("states", trail))
		run.End(err)
	}()

	if cmd.AccountID == "" {
		run.Fail("ACCOUNT_ID_REQUIRED")
		return nil, ErrAccountIDRequired
	}

	product, err := uc.products.Get(ctx, cmd.ProductID)
	if err != nil {
		if errors.Is(err, domproduct.ErrNotFound) {
			run.Fail("PRODUCT_NOT_FOUND")
			return nil, ErrProductNotFound
		}
		run.Fail("PRODUCT_LOOKUP_FAILED")
		return nil, fmt.Errorf("assignment: resolve product: %w", err)
	}
	advance(stateProduct, attribute.Float64("product.price", product.Price))

	if _, err := uc.directory.Get(ctx, cmd.AccountID); err != nil {
		if errors.Is(err, domaccount.ErrNotFound) {
			run.Fail("ACCOUNT_NOT_FOUND")
			return nil, ErrAccountNotFound
		}
		run.Fail("ACCOUNT_LOOKUP_FAILED")
		return nil, &DependencyError{Status: domaccount.StatusOf(err), Err: err}
	}
	advance(stateAccount)

	recorded, err := uc.ledger.Append(ctx, cmd.AccountID, product.ID)
	if err != nil {
		run.Fail("LEDGER_APPEND_FAILED")
		return nil, fmt.Errorf("%w: %w", ErrLedger, err)
	}
	advance(stateRecorded, attribute.String("assignment.id", recorded.ID))
	run.Field(observability.F("assignment_id", recorded.ID))
	uc.publish(ctx, run, domain.NewRecordedEvent(recorded))

	result := &AssignProductResult{Assignment: recorded, ChargeStatus: ChargeSkipped}

	if !uc.chargeOnAssign {
		advance(stateChargeSkip)
		advance(stateDone)
		return result, nil
	}

	amount := -product.Price
	credit, chargeErr := uc.directory.ApplyCredit(ctx, cmd.AccountID, amount)
	if chargeErr != nil {
		status := domaccount.StatusOf(chargeErr)
		result.ChargeErr = chargeErr
		result.ChargeStatus = ChargeFailed
		span.RecordError(chargeErr)
		advance(stateChargeFailed, attribute.Int("charge.upstream_status", status))
		run.Mark("CHARGE_FAILED")
		run.Field(
			observability.F("charge_error", chargeErr.Error()),
			observability.F("charge_status", status),
		)
		uc.publish(ctx, run, domain.NewChargeFailedEvent(recorded, amount, status, ErrorMessage(chargeErr)))
	} else {
		result.Charge = credit
		result.ChargeStatus = ChargeApplied
		advance(stateChargeOK, attribute.Float64("charge.amount", amount))
	}
	advance(stateDone)
	return result, nil
}

// publish hands e to the bus without letting a slow or failed enqueue affect
// the caller's outcome.
func (uc *AssignProductUseCase) publish(ctx context.Context, run *application.Run, e domoutbox.Event) {
	if uc.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	start := time.Now()
	outcome := "success"
	if err := uc.publisher.Publish(pubCtx, e); err != nil {
		outcome = "error"
		if pubCtx.Err() != nil {
			outcome = "canceled"
		}
		run.Span().RecordError(err)
		run.Logger().Warn("event_publish_failed",
			observability.F("event", e.EventName()),
			observability.F("error", err.Error()),
		)
	}

	uc.extCounter.Add(1,
		observability.L("peer", publishPeer),
		observability.L("endpoint", e.EventName()),
		observability.L("outcome", outcome),
	)
	uc.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", publishPeer),
		observability.L("endpoint", e.EventName()),
	)
}

// ListAssignmentsUseCase returns an account's assignment history.
type ListAssignmentsUseCase struct {
	ledger domain.Ledger
	inst   *application.Instrumentation
}

var _ application.UseCase[string, []domain.Assignment] = (*ListAssignmentsUseCase)(nil)

func NewListAssignmentsUseCase(ledger domain.Ledger, tel observability.Observability) *ListAssignmentsUseCase {
	return &ListAssignmentsUseCase{ledger: ledger, inst: application.NewInstrumentation(catalogService, tel)}
}

func (uc *ListAssignmentsUseCase) Execute(ctx context.Context, accountID string) (_ []domain.Assignment, err error) {
	ctx, run := uc.inst.Begin(ctx, useCaseList, "ListAssignments",
		attribute.String("assignment.account_id", accountID),
	)
	defer func() { run.End(err) }()

	if accountID == "" {
		run.Fail("ACCOUNT_ID_REQUIRED")
		return nil, ErrAccountQueryNeeded
	}

	items, err := uc.ledger.ListByAccount(ctx, accountID)
	if err != nil {
		run.Fail("LEDGER_READ_FAILED")
		return nil, fmt.Errorf("%w: %w", ErrLedger, err)
	}
	if items == nil {
		items = []domain.Assignment{}
	}
	run.Field(observability.F("count", len(items)))
	return items, nil
}
