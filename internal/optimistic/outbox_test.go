package optimistic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageThenConfirmReplacesTempID(t *testing.T) {
	o := NewOutbox()

	require.NoError(t, o.Stage("tmp-1", "hello"))
	assert.True(t, o.Pending("tmp-1"))

	require.NoError(t, o.Confirm("tmp-1", "srv-9", map[string]any{"id": 9, "text": "hello"}))

	assert.False(t, o.Pending("tmp-1"))
	snap := o.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, StateConfirmed, snap[0].State)
	assert.Equal(t, "srv-9", snap[0].ServerID)
	assert.Empty(t, snap[0].TempID)
}

func TestStageThenFailRemovesEntry(t *testing.T) {
	o := NewOutbox()

	require.NoError(t, o.Stage("tmp-1", "hello"))
	require.NoError(t, o.Fail("tmp-1"))

	assert.False(t, o.Pending("tmp-1"))
	assert.Empty(t, o.Snapshot())
}

func TestDuplicateTempIDRejected(t *testing.T) {
	o := NewOutbox()

	require.NoError(t, o.Stage("tmp-1", "a"))
	assert.ErrorIs(t, o.Stage("tmp-1", "b"), ErrDuplicateTempID)
}

func TestSingleTerminalTransition(t *testing.T) {
	o := NewOutbox()

	require.NoError(t, o.Stage("tmp-1", "hello"))
	require.NoError(t, o.Confirm("tmp-1", "srv-9", "hello"))

	assert.ErrorIs(t, o.Confirm("tmp-1", "srv-10", "again"), ErrUnknownSend)
	assert.ErrorIs(t, o.Fail("tmp-1"), ErrUnknownSend)

	snap := o.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "srv-9", snap[0].ServerID)
}

func TestConfirmUnknownSend(t *testing.T) {
	o := NewOutbox()
	assert.ErrorIs(t, o.Confirm("tmp-x", "srv-1", nil), ErrUnknownSend)
	assert.ErrorIs(t, o.Fail("tmp-x"), ErrUnknownSend)
}

func TestSnapshotPreservesStagingOrder(t *testing.T) {
	o := NewOutbox()

	require.NoError(t, o.Stage("tmp-1", "first"))
	require.NoError(t, o.Stage("tmp-2", "second"))
	require.NoError(t, o.Stage("tmp-3", "third"))

	// confirming the middle entry keeps its slot
	require.NoError(t, o.Confirm("tmp-2", "srv-2", "second"))
	require.NoError(t, o.Fail("tmp-1"))

	snap := o.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "srv-2", snap[0].ServerID)
	assert.Equal(t, "tmp-3", snap[1].TempID)
}
