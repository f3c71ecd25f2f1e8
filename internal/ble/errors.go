package ble

import "errors"

// Session errors. Returned errors wrap one of these with context; match
// them with errors.Is.
var (
	ErrAdapterUnavailable            = errors.New("bluetooth adapter unavailable")
	ErrConnectFailed                 = errors.New("connect failed")
	ErrServiceDiscoveryFailed        = errors.New("service discovery failed")
	ErrCharacteristicDiscoveryFailed = errors.New("characteristic discovery failed")
	ErrSubscriptionFailed            = errors.New("subscription failed")
	ErrNotReady                      = errors.New("not ready to send command")
	ErrEncodingFailed                = errors.New("command encoding failed")
	ErrWriteFailed                   = errors.New("write failed")
	ErrUnexpectedDisconnect          = errors.New("unexpected disconnect")

	// ErrSessionBusy rejects a connect or scan while a connection attempt
	// or an established connection occupies the session.
	ErrSessionBusy = errors.New("session busy")
	// ErrClosed is returned once the controller has stopped.
	ErrClosed = errors.New("controller closed")
)
