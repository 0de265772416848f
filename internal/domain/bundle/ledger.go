package bundle

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
)

// LedgerKey is the checkout metadata key holding the bundle quantity ledger.
const LedgerKey = "bundle_quantities"

// Ledger maps bundle name to the cumulative bundle quantity added to a checkout.
type Ledger map[string]int

// ParseLedger decodes the stored ledger. Absent or unreadable values yield an empty
// ledger; ok is false only when a value was present but could not be decoded.
func ParseLedger(raw string, present bool) (ledger Ledger, ok bool) {
	if !present || raw == "" {
		return Ledger{}, true
	}
	var parsed map[string]int
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil || parsed == nil {
		return Ledger{}, false
	}
	return Ledger(parsed), true
}

// Add increments the entry for name and returns the new total. The entry is left
// unchanged when the total would overflow.
func (l Ledger) Add(name string, quantity int) (int, error) {
	current := l[name]
	if quantity > 0 && current > math.MaxInt-quantity {
		err := NewValidationError(fmt.Sprintf("bundle quantity total for %s is too large", name))
		err.Cause = fmt.Errorf("ledger entry %d plus %d overflows", current, quantity)
		return current, err
	}
	l[name] = current + quantity
	return l[name], nil
}

// Encode serialises the ledger with keys sorted.
func (l Ledger) Encode() (string, error) {
	data, err := json.Marshal(map[string]int(l))
	if err != nil {
		return "", fmt.Errorf("encode ledger: %w", err)
	}
	return string(data), nil
}

// LedgerLocker serialises ledger updates on one checkout. Unlock must be called once the
// ledger has been written; it is safe to call after the lock has expired.
type LedgerLocker interface {
	Lock(ctx context.Context, checkoutID string) (unlock func(context.Context) error, err error)
}
