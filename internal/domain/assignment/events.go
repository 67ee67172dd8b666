package assignment

import "time"

// RecordedEvent is emitted after an assignment is appended to the ledger.
type RecordedEvent struct {
	AssignmentID string
	AccountID    string
	ProductID    string
	OccurredAt   time.Time
}

func (RecordedEvent) EventName() string { return "assignment.recorded" }

func NewRecordedEvent(a *Assignment) RecordedEvent {
	return RecordedEvent{
		AssignmentID: a.ID,
		AccountID:    a.AccountID,
		ProductID:    a.ProductID,
		OccurredAt:   time.Now().UTC(),
	}
}

// ChargeFailedEvent is emitted when an assignment stands but its charge was
// not applied. Status is the upstream HTTP status, 0 when unknown.
type ChargeFailedEvent struct {
	AssignmentID string
	AccountID    string
	ProductID    string
	Amount       float64
	Status       int
	Reason       string
	OccurredAt   time.Time
}

func (ChargeFailedEvent) EventName() string { return "assignment.charge_failed" }

func NewChargeFailedEvent(a *Assignment, amount float64, status int, reason string) ChargeFailedEvent {
	return ChargeFailedEvent{
		AssignmentID: a.ID,
		AccountID:    a.AccountID,
		ProductID:    a.ProductID,
		Amount:       amount,
		Status:       status,
		Reason:       reason,
		OccurredAt:   time.Now().UTC(),
	}
}

// EventID keys the event to the assignment it reports on.
func (e RecordedEvent) EventID() string { return "recorded:" + e.AssignmentID }

func (e ChargeFailedEvent) EventID() string { return "charge_failed:" + e.AssignmentID }
