package service

import (
	"camera-ingest/entities"
	"fmt"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"sync"
	"time"
)

// Session holds one browsing session's camera selection and pipeline flags.
type Session struct {
	ID uuid.UUID

	mu        sync.Mutex
	cameras   []entities.Camera
	selected  *entities.Camera
	lastJobId *uuid.UUID
	uploaded  bool
}

func NewSession() *Session {
	return &Session{ID: uuid.New()}
}

// SessionView is a point-in-time copy of a Session.
type SessionView struct {
	ID        uuid.UUID         `json:"id"`
	Cameras   []entities.Camera `json:"cameras"`
	Selected  *entities.Camera  `json:"selected"`
	LastJobId *uuid.UUID        `json:"last_job_id"`
	Uploaded  bool              `json:"uploaded"`
}

func (s *Session) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := SessionView{
		ID:        s.ID,
		Cameras:   append([]entities.Camera(nil), s.cameras...),
		LastJobId: s.lastJobId,
		Uploaded:  s.uploaded,
	}
	if s.selected != nil {
		cam := *s.selected
		view.Selected = &cam
	}
	return view
}

// SetCameras replaces the search results and clears the selection.
func (s *Session) SetCameras(cameras []entities.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cameras = append([]entities.Camera(nil), cameras...)
	s.selected = nil
}

func (s *Session) Select(index int) (entities.Camera, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.cameras) {
		return entities.Camera{}, fmt.Errorf("invalid selection %d, %d cameras available", index, len(s.cameras))
	}
	cam := s.cameras[index]
	s.selected = &cam
	return cam, nil
}

func (s *Session) Selected() (*entities.Camera, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return nil, ErrNoCameraSelected
	}
	cam := *s.selected
	return &cam, nil
}

func (s *Session) MarkJob(jobId uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastJobId = &jobId
	s.uploaded = false
}

func (s *Session) MarkUploaded() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploaded = true
}

// SessionStore keeps sessions in memory; idle sessions expire after ttl.
type SessionStore struct {
	cache *cache.Cache
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SessionStore{cache: cache.New(ttl, ttl*2)}
}

func (s *SessionStore) Create() *Session {
	session := NewSession()
	s.cache.SetDefault(session.ID.String(), session)
	return session
}

// Get returns the session and extends its lifetime.
func (s *SessionStore) Get(id string) (*Session, bool) {
	cached, found := s.cache.Get(id)
	if !found {
		return nil, false
	}
	session, ok := cached.(*Session)
	if !ok {
		return nil, false
	}
	s.cache.SetDefault(id, session)
	return session, true
}

func (s *SessionStore) Count() int {
	return s.cache.ItemCount()
}
