package fixapp

import (
	"fmt"
	"sync"
	"time"

	"github.com/quickfixgo/quickfix"

	"github.com/ryanlerler/fixflow/seqnum"
)

// StoreFactory creates engine message stores whose sender sequence is
// seeded from the durable counter, and keeps a handle to each created
// store so gap recovery can realign the engine's next sender number;
// the engine itself does not expose a setter.
type StoreFactory struct {
	seq *seqnum.Store

	mu     sync.Mutex
	stores map[quickfix.SessionID]*engineStore
}

func NewStoreFactory(seq *seqnum.Store) *StoreFactory {
	return &StoreFactory{
		seq:    seq,
		stores: make(map[quickfix.SessionID]*engineStore),
	}
}

// Create returns the message store for a session. The sender side
// resumes one past the last durably used number.
func (f *StoreFactory) Create(sessionID quickfix.SessionID) (quickfix.MessageStore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := newEngineStore(f.seq.Current() + 1)
	f.stores[sessionID] = s
	return s, nil
}

// SetNextSenderSeqNum realigns the engine store for a session.
func (f *StoreFactory) SetNextSenderSeqNum(sessionID quickfix.SessionID, n int) error {
	f.mu.Lock()
	s, ok := f.stores[sessionID]
	f.mu.Unlock()
	if !ok {
		return fmt.Errorf("no message store for session %s", sessionID.String())
	}
	return s.SetNextSenderMsgSeqNum(n)
}

// engineStore is an in-memory quickfix.MessageStore. Durability of the
// outbound counter lives in seqnum.Store; the engine store only needs to
// be consistent within a run.
type engineStore struct {
	mu sync.Mutex

	senderSeqNum int
	targetSeqNum int
	creationTime time.Time
	messages     map[int][]byte
}

func newEngineStore(nextSender int) *engineStore {
	return &engineStore{
		senderSeqNum: nextSender,
		targetSeqNum: 1,
		creationTime: time.Now(),
		messages:     make(map[int][]byte),
	}
}

func (s *engineStore) NextSenderMsgSeqNum() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.senderSeqNum
}

func (s *engineStore) NextTargetMsgSeqNum() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.targetSeqNum
}

func (s *engineStore) IncrNextSenderMsgSeqNum() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.senderSeqNum++
	return nil
}

func (s *engineStore) IncrNextTargetMsgSeqNum() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targetSeqNum++
	return nil
}

func (s *engineStore) SetNextSenderMsgSeqNum(next int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.senderSeqNum = next
	return nil
}

func (s *engineStore) SetNextTargetMsgSeqNum(next int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targetSeqNum = next
	return nil
}

func (s *engineStore) CreationTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creationTime
}

func (s *engineStore) SetCreationTime(creationTime time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creationTime = creationTime
}

func (s *engineStore) SaveMessage(seqNum int, msg []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[seqNum] = msg
	return nil
}

func (s *engineStore) SaveMessageAndIncrNextSenderMsgSeqNum(seqNum int, msg []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[seqNum] = msg
	s.senderSeqNum++
	return nil
}

func (s *engineStore) IterateMessages(beginSeqNum, endSeqNum int, cb func([]byte) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := beginSeqNum; i <= endSeqNum; i++ {
		if m, ok := s.messages[i]; ok {
			if err := cb(m); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *engineStore) GetMessages(beginSeqNum, endSeqNum int) ([][]byte, error) {
	var out [][]byte
	err := s.IterateMessages(beginSeqNum, endSeqNum, func(m []byte) error {
		out = append(out, m)
		return nil
	})
	return out, err
}

func (s *engineStore) Refresh() error { return nil }

func (s *engineStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.senderSeqNum = 1
	s.targetSeqNum = 1
	s.creationTime = time.Now()
	s.messages = make(map[int][]byte)
	return nil
}

func (s *engineStore) Close() error { return nil }
