package network

import "errors"

var (
	// ErrConnectionFailed indicates the client could not reach the gateway.
	ErrConnectionFailed = errors.New("network: connection failed")

	// ErrSubmitRejected indicates the gateway rejected a transaction.
	ErrSubmitRejected = errors.New("network: submit rejected")

	// ErrInvalidResponse indicates a malformed or unexpected response.
	ErrInvalidResponse = errors.New("network: invalid response")

	// ErrNoEndpoint indicates no gateway URL could be determined.
	ErrNoEndpoint = errors.New("network: no endpoint")

	// ErrDNSLookupFailed indicates an SRV lookup failed.
	ErrDNSLookupFailed = errors.New("network: DNS lookup failed")

	// ErrDNSSECValidationFailed indicates the upstream resolver did not
	// authenticate the answer.
	ErrDNSSECValidationFailed = errors.New("network: DNSSEC validation failed")
)
