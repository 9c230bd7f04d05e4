package friendship

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPairKeyIsOrderIndependent(t *testing.T) {
	assert.Equal(t, PairKey("alice", "bob"), PairKey("bob", "alice"))
	assert.Equal(t, "alice_bob", PairKey("bob", "alice"))
}

func TestOther(t *testing.T) {
	p := &Pair{UserA: "alice", UserB: "bob"}
	assert.Equal(t, "bob", p.Other("alice"))
	assert.Equal(t, "alice", p.Other("bob"))
}
