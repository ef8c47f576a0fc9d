package orchestrator

import "sync"

// Progress は生成全体の進捗です。Percent は 0〜100 の範囲です。
type Progress struct {
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
	Percent   float64 `json:"percent"`
}

// Observer は生成途中の結果を受け取ります。
// 呼び出しは直列化されるため、実装側で排他制御する必要はありません。
type Observer interface {
	OnProfile(imageURI string)
	OnGalleryImage(promptIndex int, imageURI string)
	OnProgress(p Progress)
}

// ObserverFuncs は必要なコールバックだけを指定できる Observer 実装です。
type ObserverFuncs struct {
	Profile      func(imageURI string)
	GalleryImage func(promptIndex int, imageURI string)
	Progress     func(p Progress)
}

func (f ObserverFuncs) OnProfile(imageURI string) {
	if f.Profile != nil {
		f.Profile(imageURI)
	}
}

func (f ObserverFuncs) OnGalleryImage(promptIndex int, imageURI string) {
	if f.GalleryImage != nil {
		f.GalleryImage(promptIndex, imageURI)
	}
}

func (f ObserverFuncs) OnProgress(p Progress) {
	if f.Progress != nil {
		f.Progress(p)
	}
}

// tracker は完了数を数え、Observer への通知を直列化します。
// ロック内で通知するため、進捗は単調非減少で届きます。
type tracker struct {
	mu        sync.Mutex
	obs       Observer
	completed int
	total     int
}

func newTracker(total int, obs Observer) *tracker {
	if obs == nil {
		obs = ObserverFuncs{}
	}
	return &tracker{obs: obs, total: total}
}

func (t *tracker) profile(uri string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.obs.OnProfile(uri)
}

func (t *tracker) galleryImage(promptIndex int, uri string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.obs.OnGalleryImage(promptIndex, uri)
}

// step は1リクエストの完了（成功・失敗を問わない）を記録します。
func (t *tracker) step() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.completed++
	p := Progress{
		Completed: t.completed,
		Total:     t.total,
		Percent:   float64(t.completed) / float64(t.total) * 100,
	}
	t.obs.OnProgress(p)
	return p
}

func (t *tracker) snapshot() (completed, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.completed, t.total
}
