package earnings

import (
	"fmt"

	"github.com/meridianfi/treasury-sweeper/internal/types"
)

// Validation is the outcome of the data-quality gate that must pass before
// an event log is trusted for accounting.
type Validation struct {
	Valid  bool
	Errors []string
}

// ValidateEvents flags duplicate IDs, non-positive amounts, APYs outside
// [0, 100] and missing timestamps. A failed validation is fatal to the
// computation that requested it, not to the caller's process: the caller
// decides between last-known-good figures and surfacing an error.
func ValidateEvents(events []types.EarningsEvent) Validation {
	var errs []string
	seenIDs := make(map[string]struct{}, len(events))

	for i := range events {
		event := &events[i]

		if _, ok := seenIDs[event.ID]; ok {
			errs = append(errs, fmt.Sprintf("duplicate event ID: %s", event.ID))
		}
		seenIDs[event.ID] = struct{}{}

		if event.Amount.IsNil() {
			errs = append(errs, fmt.Sprintf("missing amount for event %s", event.ID))
		} else if !event.Amount.IsPositive() {
			errs = append(errs, fmt.Sprintf("invalid amount for event %s: %s", event.ID, event.Amount))
		}

		if event.APY < 0 || event.APY > 100 {
			errs = append(errs, fmt.Sprintf("invalid APY for event %s: %v", event.ID, event.APY))
		}

		if event.Timestamp.IsZero() {
			errs = append(errs, fmt.Sprintf("invalid timestamp for event %s", event.ID))
		}
	}

	return Validation{
		Valid:  len(errs) == 0,
		Errors: errs,
	}
}
