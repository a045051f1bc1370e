package state

import (
	"sync"
	"time"

	"github.com/vladimiradmaev/food-lens/internal/domain"
)

// User states
const (
	None              = "none"
	WaitingForPhoto   = "waiting_for_photo"
	WaitingForProfile = "waiting_for_profile"
)

// ProfileTTL bounds how long a chat's profile is remembered
const ProfileTTL = 24 * time.Hour

// StateManager keeps per-chat conversation state and the profile used for
// daily needs. Nothing here outlives the TTL.
type StateManager interface {
	SetUserState(userID int64, state string)
	GetUserState(userID int64) string
	SetProfile(userID int64, profile domain.UserProfile)
	GetProfile(userID int64) (domain.UserProfile, bool)
	ClearProfile(userID int64)
}

type profileEntry struct {
	profile   domain.UserProfile
	expiresAt time.Time
}

// Manager is the in-memory StateManager
type Manager struct {
	userStates map[int64]string
	profiles   map[int64]profileEntry
	now        func() time.Time
	mu         sync.RWMutex
}

// NewManager creates a new state manager
func NewManager() *Manager {
	return &Manager{
		userStates: make(map[int64]string),
		profiles:   make(map[int64]profileEntry),
		now:        time.Now,
	}
}

// SetUserState sets the state for a user
func (m *Manager) SetUserState(userID int64, state string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state == None {
		delete(m.userStates, userID)
		return
	}
	m.userStates[userID] = state
}

// GetUserState gets the state for a user
func (m *Manager) GetUserState(userID int64) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, exists := m.userStates[userID]
	if !exists {
		return None
	}
	return state
}

// SetProfile stores a copy of profile for the user
func (m *Manager) SetProfile(userID int64, profile domain.UserProfile) {
	cp := make(domain.UserProfile, len(profile))
	for k, v := range profile {
		cp[k] = v
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[userID] = profileEntry{profile: cp, expiresAt: m.now().Add(ProfileTTL)}
}

// GetProfile returns the stored profile unless it has expired
func (m *Manager) GetProfile(userID int64) (domain.UserProfile, bool) {
	m.mu.RLock()
	entry, exists := m.profiles[userID]
	m.mu.RUnlock()
	if !exists {
		return nil, false
	}
	if m.now().After(entry.expiresAt) {
		m.ClearProfile(userID)
		return nil, false
	}

	cp := make(domain.UserProfile, len(entry.profile))
	for k, v := range entry.profile {
		cp[k] = v
	}
	return cp, true
}

// ClearProfile forgets the user's profile
func (m *Manager) ClearProfile(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.profiles, userID)
}
