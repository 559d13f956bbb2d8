package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
//                              PeerID 测试
// ============================================================================

func TestPeerID_Null(t *testing.T) {
	assert.True(t, NullPeerID.IsNull())
	assert.False(t, PeerID(1).IsNull())
	assert.Equal(t, -1, NullPeerID.Index())
}

func TestPeerID_IndexRoundTrip(t *testing.T) {
	for i := 0; i < 10; i++ {
		id := PeerIDFromIndex(i)
		assert.False(t, id.IsNull())
		assert.Equal(t, i, id.Index())
	}
	assert.Equal(t, PeerID(1), PeerIDFromIndex(0))
}

func TestParsePeerID(t *testing.T) {
	id, err := ParsePeerID("42")
	require.NoError(t, err)
	assert.Equal(t, PeerID(42), id)
	assert.Equal(t, "42", id.String())

	_, err = ParsePeerID("0")
	assert.ErrorIs(t, err, ErrInvalidPeerID)

	_, err = ParsePeerID("-1")
	assert.ErrorIs(t, err, ErrInvalidPeerID)

	_, err = ParsePeerID("abc")
	assert.ErrorIs(t, err, ErrInvalidPeerID)
}
