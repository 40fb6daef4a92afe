package policies

// Telemetry receives business counters from the storefront core.
type Telemetry interface {
	SubmissionObserved(outcome string)
	PaymentSessionStarted()
	PaymentSessionExpired()
	CheckoutCompleted(method string)
}

// NopTelemetry discards everything.
type NopTelemetry struct{}

func (NopTelemetry) SubmissionObserved(string) {}
func (NopTelemetry) PaymentSessionStarted()    {}
func (NopTelemetry) PaymentSessionExpired()    {}
func (NopTelemetry) CheckoutCompleted(string)  {}
