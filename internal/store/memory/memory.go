// Package memory implementa los stores en memoria.
// Útil para desarrollo sin base de datos y para tests de services.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/wearsync/internal/store"
)

// Store implementa PendingAuthStore, UserLinkStore y SummaryStore sobre maps.
// Cada método toma el lock completo; el volumen esperado (dev/tests) no
// justifica nada más fino.
type Store struct {
	mu sync.Mutex

	pendingByToken map[string]store.PendingAuth
	pendingByUser  map[uuid.UUID]string // user → request token vivo

	links map[uuid.UUID]store.GarminLink

	sleeps  map[sleepKey]store.SleepSummary
	dailies map[sleepKey]store.DailySummary
}

type sleepKey struct {
	userID    uuid.UUID
	summaryID string
}

// New crea un Store vacío.
func New() *Store {
	return &Store{
		pendingByToken: make(map[string]store.PendingAuth),
		pendingByUser:  make(map[uuid.UUID]string),
		links:          make(map[uuid.UUID]store.GarminLink),
		sleeps:         make(map[sleepKey]store.SleepSummary),
		dailies:        make(map[sleepKey]store.DailySummary),
	}
}

// ─── PendingAuthStore ───

func (s *Store) Save(_ context.Context, p store.PendingAuth) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.pendingByUser[p.UserID]; ok {
		delete(s.pendingByToken, old)
	}
	s.pendingByToken[p.RequestToken] = p
	s.pendingByUser[p.UserID] = p.RequestToken
	return nil
}

func (s *Store) FindByToken(_ context.Context, token string) (store.PendingAuth, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pendingByToken[token]
	if !ok || !p.ExpiresAt.After(time.Now()) {
		return store.PendingAuth{}, false, nil
	}
	return p, true, nil
}

func (s *Store) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok, ok := s.pendingByUser[userID]; ok {
		delete(s.pendingByToken, tok)
		delete(s.pendingByUser, userID)
	}
	return nil
}

// ─── UserLinkStore ───

// AddUser registra un usuario local sin vínculo. Sólo para seeds/tests.
func (s *Store) AddUser(userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.links[userID]; !ok {
		s.links[userID] = store.GarminLink{}
	}
}

func (s *Store) SaveLink(_ context.Context, userID uuid.UUID, garminUserID, accessToken, tokenSecret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.links[userID]; !ok {
		return store.ErrNotFound
	}
	s.links[userID] = store.GarminLink{
		Connected:    true,
		GarminUserID: garminUserID,
		AccessToken:  accessToken,
		TokenSecret:  tokenSecret,
	}
	return nil
}

func (s *Store) Disconnect(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.links[userID]; !ok {
		return store.ErrNotFound
	}
	s.links[userID] = store.GarminLink{}
	return nil
}

func (s *Store) DeregisterByGarminID(_ context.Context, garminUserID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, l := range s.links {
		if l.Connected && l.GarminUserID == garminUserID {
			s.links[id] = store.GarminLink{}
			n++
		}
	}
	return n, nil
}

func (s *Store) Status(_ context.Context, userID uuid.UUID) (store.GarminLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.links[userID]
	if !ok {
		return store.GarminLink{}, store.ErrNotFound
	}
	return l, nil
}

func (s *Store) FindUserByGarminID(_ context.Context, garminUserID string) (uuid.UUID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, l := range s.links {
		if l.Connected && l.GarminUserID == garminUserID {
			return id, true, nil
		}
	}
	return uuid.Nil, false, nil
}

// ─── SummaryStore ───

func (s *Store) UpsertSleep(_ context.Context, sum store.SleepSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum.UpdatedAt = time.Now()
	s.sleeps[sleepKey{sum.UserID, sum.SummaryID}] = sum
	return nil
}

func (s *Store) UpsertDaily(_ context.Context, sum store.DailySummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum.UpdatedAt = time.Now()
	s.dailies[sleepKey{sum.UserID, sum.SummaryID}] = sum
	return nil
}

// SleepCount retorna la cantidad de sleep summaries guardados. Sólo tests.
func (s *Store) SleepCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sleeps)
}

// GetSleep retorna un sleep summary guardado. Sólo tests.
func (s *Store) GetSleep(userID uuid.UUID, summaryID string) (store.SleepSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.sleeps[sleepKey{userID, summaryID}]
	return v, ok
}

// GetDaily retorna un daily summary guardado. Sólo tests.
func (s *Store) GetDaily(userID uuid.UUID, summaryID string) (store.DailySummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.dailies[sleepKey{userID, summaryID}]
	return v, ok
}
