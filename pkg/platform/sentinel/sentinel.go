package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and the token ledger return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: entity already exists under that key
// - ErrInvalidState: entity in wrong state for requested operation
// - ErrNonTransferable: soulbound token ownership change attempted
// - ErrUnavailable: backing resource temporarily unavailable
//
// For validation errors (bad input, out-of-range values), use
// pkg/domain-errors directly.
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrInvalidState    = errors.New("invalid state")
	ErrNonTransferable = errors.New("non-transferable")
	ErrUnavailable     = errors.New("unavailable")
)
