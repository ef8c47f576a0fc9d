package server

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/shouni/couplai/pkg/domain"
	"github.com/shouni/couplai/pkg/gallery"
	"github.com/shouni/couplai/pkg/orchestrator"
)

// Status は生成セッションの状態です。
type Status string

const (
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

var errSessionNotFound = errors.New("generation not found")

// Session は1回の生成ウィザードの状態をメモリ上に保持します。
// 生成中は Observer として途中結果を受け取ります。
type Session struct {
	ID          string
	Style       domain.StyleCategory
	Source      domain.SourceImage
	SubjectName string

	mu       sync.RWMutex
	status   Status
	profile  string
	gallery  *gallery.Gallery
	progress orchestrator.Progress
	failed   int
	err      string
}

func newSession(style domain.StyleCategory, src domain.SourceImage, name string) *Session {
	return &Session{
		ID:          uuid.NewString(),
		Style:       style,
		Source:      src,
		SubjectName: name,
		status:      StatusRunning,
		gallery:     gallery.New(),
		progress:    orchestrator.Progress{Total: 1 + len(style.GalleryPrompts)},
	}
}

func (s *Session) OnProfile(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = uri
}

func (s *Session) OnGalleryImage(promptIndex int, uri string) {
	s.mu.RLock()
	g := s.gallery
	s.mu.RUnlock()
	g.AddSlot(promptIndex, uri)
}

func (s *Session) OnProgress(p orchestrator.Progress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = p
}

func (s *Session) finish(res *orchestrator.Result, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if res != nil {
		s.profile = res.Profile
		s.gallery = res.Gallery
		s.failed = res.Failed
	}
	if err != nil {
		s.status = StatusFailed
		s.err = err.Error()
		return
	}
	s.status = StatusDone
}

// Gallery は現在のギャラリーを返します。
func (s *Session) Gallery() *gallery.Gallery {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gallery
}

func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Session) Profile() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// SessionView は GET /api/generations/:id の応答です。
type SessionView struct {
	ID          string                `json:"id"`
	StyleID     string                `json:"style_id"`
	StyleName   string                `json:"style_name"`
	SubjectName string                `json:"name"`
	Status      Status                `json:"status"`
	Progress    orchestrator.Progress `json:"progress"`
	Profile     string                `json:"profile,omitempty"`
	Gallery     []gallery.SlotView    `json:"gallery"`
	Failed      int                   `json:"failed"`
	Error       string                `json:"error,omitempty"`
}

func (s *Session) view() SessionView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SessionView{
		ID:          s.ID,
		StyleID:     s.Style.ID,
		StyleName:   s.Style.Label(),
		SubjectName: s.SubjectName,
		Status:      s.status,
		Progress:    s.progress,
		Profile:     s.profile,
		Gallery:     s.gallery.Snapshot(),
		Failed:      s.failed,
		Error:       s.err,
	}
}

// Store はプロセス内だけで生きるセッションの置き場所です。
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

func (st *Store) Put(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.ID] = s
}

func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, errSessionNotFound
	}
	return s, nil
}
