package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shouni/couplai/pkg/domain"
)

// mockGenerator はプロンプトごとの結果を返す ImageGenerator のモックなのだ。
type mockGenerator struct {
	mu       sync.Mutex
	fail     map[string]bool
	block    chan struct{}
	started  chan string
	prompts  []string
	inFlight int
	maxIn    int
	delay    time.Duration
	version  int
}

func (m *mockGenerator) GenerateImage(ctx context.Context, req domain.GenerationRequest) domain.GenerationResult {
	m.mu.Lock()
	m.prompts = append(m.prompts, req.Prompt)
	m.inFlight++
	if m.inFlight > m.maxIn {
		m.maxIn = m.inFlight
	}
	m.version++
	v := m.version
	m.mu.Unlock()

	if m.started != nil {
		m.started <- req.Prompt
	}
	if m.block != nil {
		<-m.block
	}
	if m.delay > 0 {
		time.Sleep(m.delay)
	}

	m.mu.Lock()
	m.inFlight--
	m.mu.Unlock()

	if m.fail[req.Prompt] {
		return domain.Failure(errors.New("generation failed: " + req.Prompt))
	}
	return domain.Success("data:image/png;base64," + req.Prompt + "-" + string(rune('0'+v%10)))
}

func (m *mockGenerator) calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// sleepRecorder は待機時間を記録するだけで実際には待たないのだ。
type sleepRecorder struct {
	mu    sync.Mutex
	calls []time.Duration
	err   error
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, d)
	return s.err
}
