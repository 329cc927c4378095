package xtal

import "errors"

// Errors used throughout. The first group is fatal configuration
// errors: they are reported before any search attempt is made. The
// second group covers ordinary search exhaustion, which callers may
// recover from by retrying with a larger volume factor or bigger
// attempt budgets. The last group marks internal invariant violations.
var (
	ErrGroupNotFound  = errors.New("symmetry group not found")
	ErrIncompatible   = errors.New("composition incompatible with Wyckoff positions")
	ErrBadTolerance   = errors.New("malformed tolerance specification")
	ErrUnknownSpecies = errors.New("unknown atomic species")
	ErrNoOrientations = errors.New("no valid molecular orientations")

	ErrMaxAttempts = errors.New("maximum generation attempts reached")

	ErrLatticeFailed  = errors.New("could not generate lattice")
	ErrVolumeMismatch = errors.New("lattice volume deviates from requested value")
)
