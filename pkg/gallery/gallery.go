package gallery

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrSlotOutOfRange は存在しないスロット番号が指定されたことを表します。
var ErrSlotOutOfRange = errors.New("gallery slot out of range")

// Direction は履歴ナビゲーションの方向です。
type Direction int

const (
	Prev Direction = -1
	Next Direction = 1
)

// ParseDirection は "prev" / "next" を Direction に変換します。
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "prev":
		return Prev, nil
	case "next":
		return Next, nil
	}
	return 0, fmt.Errorf("unknown direction: %q", s)
}

func (d Direction) String() string {
	if d == Prev {
		return "prev"
	}
	return "next"
}

// slot はギャラリーの1枠分の履歴です。
// history は追記のみで、長さは常に1以上です。
type slot struct {
	promptIndex int
	history     []string
	active      int
}

// SlotView はスロットの読み取り専用スナップショットです。
type SlotView struct {
	PromptIndex int      `json:"promptIndex"`
	History     []string `json:"history"`
	Active      int      `json:"active"`
}

// ActiveImage は現在アクティブな版の画像参照を返します。
func (v SlotView) ActiveImage() string {
	return v.History[v.Active]
}

// Gallery はスロットごとの生成履歴とアクティブな版を管理します。
// オーケストレーターが書き込み、HTTP ハンドラが同時に読むため排他制御を行います。
type Gallery struct {
	mu    sync.RWMutex
	slots []*slot
}

// New は空のギャラリーを作成します。
func New() *Gallery {
	return &Gallery{}
}

// FromHistories は既存の履歴とアクティブ位置からギャラリーを復元します。
// 空の履歴や範囲外のインデックスはエラーになります。
func FromHistories(histories [][]string, active []int) (*Gallery, error) {
	if len(active) != len(histories) {
		return nil, fmt.Errorf("histories (%d) and active indices (%d) differ in length", len(histories), len(active))
	}
	g := New()
	for i, h := range histories {
		if len(h) == 0 {
			return nil, fmt.Errorf("slot %d has empty history", i)
		}
		if active[i] < 0 || active[i] >= len(h) {
			return nil, fmt.Errorf("slot %d: active index %d out of range [0,%d)", i, active[i], len(h))
		}
		g.slots = append(g.slots, &slot{
			promptIndex: i,
			history:     append([]string(nil), h...),
			active:      active[i],
		})
	}
	return g, nil
}

// AddSlot は初回生成の結果を新しいスロットとして追加し、そのスロット番号を返します。
// スロットはプロンプト番号順に並ぶため、バッチ内で完了順が前後しても順序は保たれます。
func (g *Gallery) AddSlot(promptIndex int, imageRef string) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := &slot{promptIndex: promptIndex, history: []string{imageRef}}
	pos := sort.Search(len(g.slots), func(i int) bool {
		return g.slots[i].promptIndex > promptIndex
	})
	g.slots = append(g.slots, nil)
	copy(g.slots[pos+1:], g.slots[pos:])
	g.slots[pos] = s
	return pos
}

// AddVersion は再生成の結果を履歴に追記し、アクティブ位置を最新に移動します。
func (g *Gallery) AddVersion(slotIndex int, imageRef string) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, err := g.slotLocked(slotIndex)
	if err != nil {
		return 0, err
	}
	s.history = append(s.history, imageRef)
	s.active = len(s.history) - 1
	return s.active, nil
}

// Navigate はアクティブ位置を前後に移動します。端では反対側に巻き戻ります。
func (g *Gallery) Navigate(slotIndex int, dir Direction) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, err := g.slotLocked(slotIndex)
	if err != nil {
		return 0, err
	}
	n := len(s.history)
	s.active = (s.active + int(dir) + n) % n
	return s.active, nil
}

// SetActive はアクティブ位置を直接指定します。
func (g *Gallery) SetActive(slotIndex, version int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, err := g.slotLocked(slotIndex)
	if err != nil {
		return err
	}
	if version < 0 || version >= len(s.history) {
		return fmt.Errorf("slot %d: version %d out of range [0,%d)", slotIndex, version, len(s.history))
	}
	s.active = version
	return nil
}

// Len はスロット数を返します。
func (g *Gallery) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.slots)
}

// Slot は指定スロットのスナップショットを返します。
func (g *Gallery) Slot(slotIndex int) (SlotView, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	s, err := g.slotLocked(slotIndex)
	if err != nil {
		return SlotView{}, err
	}
	return s.view(), nil
}

// Snapshot は全スロットのスナップショットを返します。
func (g *Gallery) Snapshot() []SlotView {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]SlotView, len(g.slots))
	for i, s := range g.slots {
		out[i] = s.view()
	}
	return out
}

// Histories はスロットごとの履歴のコピーを返します。
func (g *Gallery) Histories() [][]string {
	views := g.Snapshot()
	out := make([][]string, len(views))
	for i, v := range views {
		out[i] = v.History
	}
	return out
}

// ActiveIndices はスロットごとのアクティブ位置を返します。
func (g *Gallery) ActiveIndices() []int {
	views := g.Snapshot()
	out := make([]int, len(views))
	for i, v := range views {
		out[i] = v.Active
	}
	return out
}

// ActiveImages はスロット順にアクティブな版の画像参照を返します。
func (g *Gallery) ActiveImages() []string {
	views := g.Snapshot()
	out := make([]string, len(views))
	for i, v := range views {
		out[i] = v.ActiveImage()
	}
	return out
}

func (g *Gallery) slotLocked(slotIndex int) (*slot, error) {
	if slotIndex < 0 || slotIndex >= len(g.slots) {
		return nil, fmt.Errorf("%w: %d (slots: %d)", ErrSlotOutOfRange, slotIndex, len(g.slots))
	}
	return g.slots[slotIndex], nil
}

func (s *slot) view() SlotView {
	return SlotView{
		PromptIndex: s.promptIndex,
		History:     append([]string(nil), s.history...),
		Active:      s.active,
	}
}
