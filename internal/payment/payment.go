package payment

import "context"

// Charger is the outbound payment port. Charges are off-session: the
// cardholder is not present and stored credentials are used.
type Charger interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}

// ChargeRequest describes one cascade charge attempt.
type ChargeRequest struct {
	CustomerRef    string
	MethodRef      string
	AmountCents    int
	Currency       string
	IdempotencyKey string
	// Metadata tags the charge with lead/provider identifiers for
	// traceability in the payment gateway.
	Metadata map[string]string
}

// ChargeResult stores gateway call metadata for audit and persistence.
type ChargeResult struct {
	TransactionID string
	StatusCode    int
}
