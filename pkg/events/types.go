package events

const (
	GenerationCompleted = "GENERATION_COMPLETED"
	GenerationFailed    = "GENERATION_FAILED"
	GenerationCancelled = "GENERATION_CANCELLED"
	CreditsRefunded     = "CREDITS_REFUNDED"
	PaymentSettled      = "PAYMENT_SETTLED"
)
