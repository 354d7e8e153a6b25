package session

import (
	"regexp"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/ryanlerler/fixflow/seqnum"
)

// RejectPolicy interprets session-level rejects. Implementations decide
// whether a reject warrants sequence realignment.
type RejectPolicy interface {
	OnAdminReject(refSeqNum int, text string)
}

// Counterparties that reject a too-low sequence number name the value
// they expected in the free-text reason. Parsing it is best-effort and
// format-dependent; swap this policy for a structured field if the
// session layer ever exposes one.
var seqTooLowPattern = regexp.MustCompile(`MsgSeqNum too low.*expecting\s+(\d+)`)

// SeqTooLowPolicy realigns the sequence store when an admin reject says
// the counterparty expected a higher number. Unparseable rejects are
// logged and ignored: a missed resync beats killing the session on
// ambiguous input.
type SeqTooLowPolicy struct {
	store  *seqnum.Store
	sender interface{ SetNextSenderSeqNum(int) error }
	log    zerolog.Logger
}

func NewSeqTooLowPolicy(store *seqnum.Store, sender interface{ SetNextSenderSeqNum(int) error }, log zerolog.Logger) *SeqTooLowPolicy {
	return &SeqTooLowPolicy{store: store, sender: sender, log: log}
}

// OnAdminReject parses the reject text and, on a match, sets the store
// to expected-1 and consumes one number so the last-used value and the
// next-to-send value stay consistent with the increment-on-send
// convention. The transport then resumes at exactly the expected number.
func (p *SeqTooLowPolicy) OnAdminReject(refSeqNum int, text string) {
	m := seqTooLowPattern.FindStringSubmatch(text)
	if m == nil {
		p.log.Warn().
			Int("ref_seq_num", refSeqNum).
			Str("text", text).
			Msg("admin reject did not match gap pattern, ignoring")
		return
	}

	expected, err := strconv.Atoi(m[1])
	if err != nil || expected < 1 {
		p.log.Warn().
			Int("ref_seq_num", refSeqNum).
			Str("text", text).
			Msg("admin reject named an unusable expected sequence, ignoring")
		return
	}

	if err := p.store.Set(expected - 1); err != nil {
		p.log.Error().Err(err).Int("expected", expected).Msg("gap recovery could not persist sequence")
		return
	}
	next, err := p.store.Next()
	if err != nil {
		p.log.Error().Err(err).Int("expected", expected).Msg("gap recovery could not consume sequence")
		return
	}
	if err := p.sender.SetNextSenderSeqNum(next); err != nil {
		p.log.Error().Err(err).Int("next", next).Msg("gap recovery could not realign transport")
		return
	}
	p.log.Info().
		Int("ref_seq_num", refSeqNum).
		Int("resume_at", next).
		Msg("sequence realigned after gap reject")
}
