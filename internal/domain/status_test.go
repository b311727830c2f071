package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferHappyPath(t *testing.T) {
	now := time.Date(2024, 6, 14, 10, 0, 0, 0, time.UTC)
	tr := &Transfer{ID: 1, Status: TransferDraft}

	require.NoError(t, tr.Transition(TransferApproved, now))
	assert.Nil(t, tr.ReceivedAt)

	require.NoError(t, tr.Transition(TransferInTransit, now))
	assert.Nil(t, tr.ReceivedAt)

	receivedAt := now.Add(4 * time.Hour)
	require.NoError(t, tr.Transition(TransferReceived, receivedAt))
	assert.Equal(t, TransferReceived, tr.Status)
	require.NotNil(t, tr.ReceivedAt)
	assert.Equal(t, receivedAt, *tr.ReceivedAt)
}

func TestTransferCancellable(t *testing.T) {
	for _, from := range []TransferStatus{TransferDraft, TransferApproved, TransferInTransit} {
		tr := &Transfer{Status: from}
		require.NoError(t, tr.Transition(TransferCancelled, time.Now()), "from %s", from)
		assert.Nil(t, tr.ReceivedAt)
	}
}

func TestTransferIllegalTransitions(t *testing.T) {
	cases := []struct {
		from, to TransferStatus
	}{
		{TransferDraft, TransferInTransit},
		{TransferDraft, TransferReceived},
		{TransferApproved, TransferReceived},
		{TransferReceived, TransferCancelled},
		{TransferReceived, TransferDraft},
		{TransferCancelled, TransferApproved},
	}
	for _, tc := range cases {
		tr := &Transfer{Status: tc.from}
		err := tr.Transition(tc.to, time.Now())
		assert.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s", tc.from, tc.to)
		assert.Equal(t, tc.from, tr.Status, "status must not change on a rejected transition")
	}
}

func TestTransferTerminalStates(t *testing.T) {
	assert.True(t, TransferReceived.IsTerminal())
	assert.True(t, TransferCancelled.IsTerminal())
	assert.False(t, TransferDraft.IsTerminal())
	assert.False(t, TransferInTransit.IsTerminal())
}
