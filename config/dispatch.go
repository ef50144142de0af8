package config

import "time"

// DispatchConfig contains notification gateway configuration.
//
// Push and SMS are separate providers with separate endpoints. Delivery is
// bounded by Timeout; a gateway that stalls past the bound is reported as a
// failed dispatch, never as a hung request.
type DispatchConfig struct {
	// PushURL is the push provider webhook endpoint.
	PushURL string `env:"DISPATCH_PUSH_URL" envDefault:""`

	// PushAuthToken authenticates requests to the push provider.
	PushAuthToken string `env:"DISPATCH_PUSH_AUTH_TOKEN" envDefault:""`

	// SMSURL is the SMS provider endpoint.
	SMSURL string `env:"DISPATCH_SMS_URL" envDefault:""`

	// SMSAuthToken authenticates requests to the SMS provider.
	SMSAuthToken string `env:"DISPATCH_SMS_AUTH_TOKEN" envDefault:""`

	// SMSSender is the sender id presented to SMS recipients.
	SMSSender string `env:"DISPATCH_SMS_SENDER" envDefault:"Booking"`

	// Timeout bounds a single gateway delivery attempt.
	Timeout time.Duration `env:"DISPATCH_TIMEOUT" envDefault:"5s"`

	// RetryLimit is the number of additional delivery attempts per gateway call.
	RetryLimit int `env:"DISPATCH_RETRY_LIMIT" envDefault:"1"`
}

// Sanitize applies guardrails to dispatch configuration values.
func (d *DispatchConfig) Sanitize() {
	if d.Timeout <= 0 {
		d.Timeout = 5 * time.Second
	}
	if d.RetryLimit < 0 {
		d.RetryLimit = 0
	}
}
