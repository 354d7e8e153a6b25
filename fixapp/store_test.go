package fixapp

import (
	"path/filepath"
	"testing"

	"github.com/quickfixgo/quickfix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryanlerler/fixflow/seqnum"
)

func TestFactorySeedsFromDurableCounter(t *testing.T) {
	t.Parallel()

	seq, err := seqnum.Open(filepath.Join(t.TempDir(), "sequence.txt"))
	require.NoError(t, err)
	require.NoError(t, seq.Set(41))

	f := NewStoreFactory(seq)
	s, err := f.Create(quickfix.SessionID{SenderCompID: "S", TargetCompID: "T"})
	require.NoError(t, err)

	assert.Equal(t, 42, s.NextSenderMsgSeqNum(), "engine resumes one past the last used number")
	assert.Equal(t, 1, s.NextTargetMsgSeqNum())
}

func TestFactoryRealignsCreatedStore(t *testing.T) {
	t.Parallel()

	seq, err := seqnum.Open(filepath.Join(t.TempDir(), "sequence.txt"))
	require.NoError(t, err)

	f := NewStoreFactory(seq)
	sid := quickfix.SessionID{SenderCompID: "S", TargetCompID: "T"}
	s, err := f.Create(sid)
	require.NoError(t, err)

	require.NoError(t, f.SetNextSenderSeqNum(sid, 57))
	assert.Equal(t, 57, s.NextSenderMsgSeqNum())

	err = f.SetNextSenderSeqNum(quickfix.SessionID{SenderCompID: "X"}, 57)
	assert.Error(t, err, "unknown session has no store to realign")
}

func TestEngineStoreSequencing(t *testing.T) {
	t.Parallel()

	s := newEngineStore(1)

	require.NoError(t, s.IncrNextSenderMsgSeqNum())
	require.NoError(t, s.SaveMessageAndIncrNextSenderMsgSeqNum(2, []byte("8=FIX.4.2")))
	assert.Equal(t, 3, s.NextSenderMsgSeqNum())

	msgs, err := s.GetMessages(1, 5)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, []byte("8=FIX.4.2"), msgs[0])

	require.NoError(t, s.Reset())
	assert.Equal(t, 1, s.NextSenderMsgSeqNum())
	msgs, err = s.GetMessages(1, 5)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
