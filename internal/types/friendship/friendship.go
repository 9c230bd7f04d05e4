package friendship

import "time"

type PairState string

const (
	// StateNone is the absence of a stored pair row.
	StateNone     PairState = "none"
	StatePending  PairState = "pending"
	StateAccepted PairState = "accepted"
)

// Pair is the relationship record for one unordered user pair. Exactly one
// row exists per pair; UserA is always the lexicographically smaller id.
// While State is pending, RequesterID identifies which side asked.
type Pair struct {
	UserA       string    `json:"user_a" db:"user_a"`
	UserB       string    `json:"user_b" db:"user_b"`
	State       PairState `json:"state" db:"state"`
	RequesterID string    `json:"requester_id" db:"requester_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// OrderPair returns the two ids in storage order.
func OrderPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// PairKey is the lock/storage key for an unordered pair.
func PairKey(a, b string) string {
	a, b = OrderPair(a, b)
	return a + "_" + b
}

// Other returns the counterpart of userID within the pair.
func (p *Pair) Other(userID string) string {
	if p.UserA == userID {
		return p.UserB
	}
	return p.UserA
}
