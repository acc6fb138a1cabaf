package chat

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"calore-bot/internal/utils"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("chat session not found")

type storeEntry struct {
	// session is only touched while holding the session's turn lock.
	session *Session
	// snapshot is the state after the last completed turn, served to readers.
	snapshot     *Session
	lastAccessed time.Time
}

// Store keeps sessions in memory and evicts the least recently used one once
// maxSize is reached. Turns on the same session run one at a time.
type Store struct {
	lock     sync.Mutex
	sessions map[uuid.UUID]*storeEntry
	maxSize  int

	turns        *utils.MutexMap[uuid.UUID]
	orchestrator *Orchestrator
}

func NewStore(orchestrator *Orchestrator, maxSize int) *Store {
	if maxSize <= 0 {
		maxSize = 1
	}
	// Evicted sessions may still be finishing a turn, so the number of turn
	// locks is not bounded by maxSize.
	return &Store{
		sessions:     make(map[uuid.UUID]*storeEntry, maxSize),
		maxSize:      maxSize,
		turns:        utils.NewMutexMap[uuid.UUID](0),
		orchestrator: orchestrator,
	}
}

func (s *Store) Create() *Session {
	session := NewSession()

	s.lock.Lock()
	defer s.lock.Unlock()

	if len(s.sessions) >= s.maxSize {
		s.evictOldest()
	}
	s.sessions[session.ID] = &storeEntry{
		session:      session,
		snapshot:     session.clone(),
		lastAccessed: time.Now(),
	}

	return session.clone()
}

func (s *Store) evictOldest() {
	oldestID := uuid.Nil
	var oldestTime time.Time
	for id, entry := range s.sessions {
		if oldestID == uuid.Nil || entry.lastAccessed.Before(oldestTime) {
			oldestID = id
			oldestTime = entry.lastAccessed
		}
	}
	if oldestID != uuid.Nil {
		delete(s.sessions, oldestID)
		slog.Info("evicted chat session", "session_id", oldestID)
	}
}

// Get returns a copy of the session as of its last completed turn.
func (s *Store) Get(id uuid.UUID) (*Session, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	entry, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	entry.lastAccessed = time.Now()
	return entry.snapshot.clone(), nil
}

func (s *Store) Delete(id uuid.UUID) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

func (s *Store) Len() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.sessions)
}

// Send runs one turn on the session. A second Send on the same session waits
// for the first to finish.
func (s *Store) Send(ctx context.Context, id uuid.UUID, text string) (Reply, error) {
	if _, err := s.Get(id); err != nil {
		return Reply{}, err
	}

	var (
		reply Reply
		err   error
	)
	lockErr := s.turns.WithLock(id, func() {
		entry, ok := s.entry(id)
		if !ok {
			err = ErrSessionNotFound
			return
		}

		reply = s.orchestrator.Respond(ctx, entry.session, text)

		s.lock.Lock()
		entry.snapshot = entry.session.clone()
		entry.lastAccessed = time.Now()
		s.lock.Unlock()
	})
	if lockErr != nil {
		return Reply{}, lockErr
	}
	return reply, err
}

func (s *Store) entry(id uuid.UUID) (*storeEntry, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	entry, ok := s.sessions[id]
	return entry, ok
}
