package sync

import "errors"

// Gateway-facing sentinel errors. Wrap with fmt.Errorf("%w: ...", ...) so
// callers can classify with errors.Is.
var (
	// ErrTallyDisabled means the integration is switched off in settings
	ErrTallyDisabled = errors.New("tally integration is disabled")

	// ErrTallyUnavailable means the gateway could not be reached or did not
	// answer in time. Never a statement about whether a master exists.
	ErrTallyUnavailable = errors.New("tally gateway unavailable")

	// ErrTallyRejected means the gateway answered and refused the payload
	ErrTallyRejected = errors.New("tally rejected the payload")

	// ErrMasterExists means the target master is already present in Tally
	ErrMasterExists = errors.New("master already exists in tally")

	// ErrParentMissing means the parent group does not exist in Tally and
	// was not auto-created
	ErrParentMissing = errors.New("parent group missing in tally")

	// ErrCannotDetermineParent means no mapping and no safe default exists
	// for a master's parent. The resolver reports this instead of guessing.
	ErrCannotDetermineParent = errors.New("cannot determine parent group")

	// ErrUnsupportedMasterType means the creation router has no creator for
	// the requested master type
	ErrUnsupportedMasterType = errors.New("unsupported master type")

	// ErrVoucherNotSubmitted means a voucher push was attempted for a
	// document that is not submitted
	ErrVoucherNotSubmitted = errors.New("document is not submitted")
)
