package resolver

import (
	"sync"

	"github.com/pkg/errors"

	"nss-netns/hosts"
)

var (
	// ErrEndOfEntries is returned by Next once a session is exhausted.
	ErrEndOfEntries = errors.New("no more entries")
	// ErrUnknownSession is returned for a token that was never issued or
	// has been ended.
	ErrUnknownSession = errors.New("unknown enumeration session")
)

// Token is an opaque handle on one enumeration session.
type Token uint64

type session struct {
	mu      sync.Mutex
	entries []hosts.Host
	pos     int
}

// Sessions hands out independent enumeration cursors. Each session owns a
// snapshot of the hosts visible when it began, so concurrent sessions never
// see each other's position.
type Sessions struct {
	r *Resolver

	mu   sync.Mutex
	next Token
	m    map[Token]*session
}

func NewSessions(r *Resolver) *Sessions {
	return &Sessions{r: r, m: make(map[Token]*session)}
}

// Begin snapshots the hosts visible from the calling thread.
func (s *Sessions) Begin() (Token, error) {
	entries, err := s.r.All()
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	tok := s.next
	s.m[tok] = &session{entries: entries}
	return tok, nil
}

// Next hands the current entry to emit. The cursor advances only if emit
// returns nil, so a caller that failed to store an entry gets it again.
func (s *Sessions) Next(tok Token, emit func(hosts.Host) error) error {
	sess := s.get(tok)
	if sess == nil {
		return ErrUnknownSession
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.pos >= len(sess.entries) {
		return ErrEndOfEntries
	}
	if err := emit(sess.entries[sess.pos]); err != nil {
		return err
	}
	sess.pos++
	return nil
}

// End releases the session. Ending an unknown token is a no-op.
func (s *Sessions) End(tok Token) {
	s.mu.Lock()
	delete(s.m, tok)
	s.mu.Unlock()
}

// Open is the number of live sessions.
func (s *Sessions) Open() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}

func (s *Sessions) get(tok Token) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[tok]
}
