package checkout

import "time"

// Step names, in submission order.
const (
	StepValidate          = "validate"
	StepGatewayCharge     = "gateway_charge"
	StepCreateOrder       = "create_order"
	StepAttachItems       = "attach_items"
	StepMarkPaid          = "mark_paid"
	StepMarkConfirmed     = "mark_confirmed"
	StepRecordTransaction = "record_transaction"
	StepPersistReceipt    = "persist_receipt"
	StepClearCart         = "clear_cart"
)

// Step and submission outcomes.
const (
	OutcomeOK         = "ok"
	OutcomeFailed     = "failed"
	OutcomeSoftFailed = "soft_failed"
	OutcomeReplayed   = "replayed"
)

// Observer receives submission and reconciliation events, typically to
// export metrics.
type Observer interface {
	ObserveStep(step, outcome string, elapsed time.Duration)
	ObserveSubmission(outcome string)
	ObserveReconciliation(removed int, failOpen bool)
}

type nopObserver struct{}

func (nopObserver) ObserveStep(string, string, time.Duration) {}
func (nopObserver) ObserveSubmission(string) {}
func (nopObserver) ObserveReconciliation(int, bool) {}
