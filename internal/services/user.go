package services

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/vegcafe/cafe-voice-backend/internal/models"
	"github.com/vegcafe/cafe-voice-backend/internal/storage"
)

// UserService resolves users and their active sessions. Turns for the same
// phone number are serialized through per-phone locks so concurrent requests
// cannot race session creation or the cart read-modify-write.
type UserService struct {
	store storage.Store

	mu         sync.Mutex
	phoneLocks map[string]*sync.Mutex
}

// NewUserService creates the user/session resolver
func NewUserService(store storage.Store) *UserService {
	return &UserService{
		store:      store,
		phoneLocks: make(map[string]*sync.Mutex),
	}
}

// LockPhone acquires the per-phone lock and returns the release func.
// Callers hold it for the whole turn.
func (s *UserService) LockPhone(phone string) func() {
	s.mu.Lock()
	lock, exists := s.phoneLocks[phone]
	if !exists {
		lock = &sync.Mutex{}
		s.phoneLocks[phone] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// GetOrCreateUser returns the user for the phone number, creating one on
// first contact. The stored name is never overwritten: first name wins.
func (s *UserService) GetOrCreateUser(phone, name string) (*models.User, bool, error) {
	user, err := s.store.GetUserByPhone(phone)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, false, fmt.Errorf("%w: looking up user %s: %v", ErrPersistence, phone, err)
	}

	user, err = s.store.CreateUser(&models.User{PhoneNumber: phone, Name: name})
	if err != nil {
		// A concurrent first contact may have won the insert; read again.
		if existing, getErr := s.store.GetUserByPhone(phone); getErr == nil {
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("%w: creating user %s: %v", ErrPersistence, phone, err)
	}

	log.Printf("👤 New user registered: %s (%s)", name, phone)
	return user, true, nil
}

// GetActiveSession finds the most recently active session for the phone
// number, creating a fresh one when none exists. The one-active-session
// invariant is protected by the per-phone lock and by the partial unique
// index on (phone_number) WHERE is_active.
func (s *UserService) GetActiveSession(phone string) (*models.ChatSession, error) {
	session, err := s.store.GetActiveSession(phone)
	if err == nil {
		return session, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: looking up session for %s: %v", ErrPersistence, phone, err)
	}

	session, err = s.store.CreateSession(phone)
	if err != nil {
		// The unique index rejects a duplicate active session; reuse the winner.
		if existing, getErr := s.store.GetActiveSession(phone); getErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("%w: creating session for %s: %v", ErrPersistence, phone, err)
	}
	return session, nil
}

// FlushSession deactivates the active session so the next turn starts with a
// clean conversation. Triggered when an order is marked served, and by the
// idle-session janitor.
func (s *UserService) FlushSession(phone string) error {
	if err := s.store.DeactivateSessions(phone); err != nil {
		return fmt.Errorf("%w: flushing session for %s: %v", ErrPersistence, phone, err)
	}
	log.Printf("🧹 Session flushed for %s", phone)
	return nil
}
