// Package repository defines the sentinel errors shared by the data
// access layer and the billing engine. Handlers compare against these
// values with errors.Is to choose an HTTP status; the wrapped message
// carries the identifier and state that caused the rejection so callers
// can explain the failure without re-querying.
package repository

import "errors"

// ErrTableBusy is returned when an operation required a free table but
// found it occupied, reserved or under maintenance — including the
// administrative attempt to force a table free while it still has an
// active session.
var ErrTableBusy = errors.New("table busy")

// ErrTableNotFound is returned when a table ID does not exist or the
// table is soft-deactivated.
var ErrTableNotFound = errors.New("table not found")

// ErrSessionNotActive is returned when finalize, cancel, transfer or a
// consumption add targets a session that already reached a terminal
// state.
var ErrSessionNotActive = errors.New("session not active")

// ErrSessionNotFound is returned when a session ID does not exist.
var ErrSessionNotFound = errors.New("session not found")

// ErrRatePlanNotFound is returned when a table references a missing or
// inactive rate plan.
var ErrRatePlanNotFound = errors.New("rate plan not found")

// ErrProductNotFound is returned when a consumption or sale line
// references a missing or inactive product.
var ErrProductNotFound = errors.New("product not found")

// ErrInsufficientStock is returned by a stock deduction when the
// product is not a service and its stock does not cover the quantity.
var ErrInsufficientStock = errors.New("insufficient stock")

// ErrInvalidAmount is returned when a payment or counted amount is not
// strictly positive.
var ErrInvalidAmount = errors.New("invalid amount")

// ErrReferenceRequired is returned when the payment method demands an
// external reference and none was supplied.
var ErrReferenceRequired = errors.New("payment reference required")

// ErrPaymentNotFound is returned when a payment ID does not exist.
var ErrPaymentNotFound = errors.New("payment not found")

// ErrPaymentAlreadyCancelled is returned on a repeated payment cancel.
var ErrPaymentAlreadyCancelled = errors.New("payment already cancelled")

// ErrMethodNotFound is returned when a payment method ID does not
// exist or is inactive.
var ErrMethodNotFound = errors.New("payment method not found")

// ErrShiftAlreadyOpen is returned when opening a cash shift while one
// is already open.
var ErrShiftAlreadyOpen = errors.New("cash shift already open")

// ErrShiftClosed is returned when closing a shift that was already
// closed.
var ErrShiftClosed = errors.New("cash shift already closed")

// ErrShiftNotFound is returned when a shift ID does not exist.
var ErrShiftNotFound = errors.New("cash shift not found")

// ErrSaleNotFound is returned when a direct sale ID does not exist.
var ErrSaleNotFound = errors.New("direct sale not found")
