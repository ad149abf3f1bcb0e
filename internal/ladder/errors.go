package ladder

import "errors"

// ErrBaselineUnavailable is returned when the oracle fails during baseline
// derivation. Without a baseline there is no impact reference, so the whole
// run for that pair is abandoned rather than guessed.
var ErrBaselineUnavailable = errors.New("baseline quote unavailable")
