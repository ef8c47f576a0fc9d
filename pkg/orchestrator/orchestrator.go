package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shouni/couplai/pkg/domain"
	"github.com/shouni/couplai/pkg/gallery"
	"github.com/shouni/couplai/pkg/generator"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

const (
	// DefaultBatchSize はギャラリー生成で同時に投げるリクエスト数です。
	DefaultBatchSize = 2
	// DefaultBatchDelay は外部APIへの負荷を抑えるためのバッチ間の待ち時間です。
	DefaultBatchDelay = 2000 * time.Millisecond
)

// ErrRegenerationInProgress は別の再生成が実行中であることを表します。
// 要求はキューに積まれず、そのまま拒否されます。
var ErrRegenerationInProgress = errors.New("regeneration already in progress")

// Options は Orchestrator の動作設定です。
type Options struct {
	BatchSize  int
	BatchDelay time.Duration
	// Sleep はバッチ間の待機に使う関数です。テストで差し替えます。
	Sleep  func(ctx context.Context, d time.Duration) error
	Logger *slog.Logger
}

// Result は GenerateAll の最終結果です。
// Gallery には成功したプロンプトの分だけスロットが入ります。
type Result struct {
	Profile   string
	Gallery   *gallery.Gallery
	Completed int
	Total     int
	Batches   int
	Failed    int
}

// Orchestrator はプロフィール画像とギャラリー画像の生成順序を制御します。
type Orchestrator struct {
	gen    generator.ImageGenerator
	opts   Options
	logger *slog.Logger
	regen  *semaphore.Weighted
}

// New は ImageGenerator を注入して Orchestrator を作成します。
func New(gen generator.ImageGenerator, opts Options) (*Orchestrator, error) {
	if gen == nil {
		return nil, errors.New("generator is required")
	}
	if opts.BatchSize < 1 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.BatchDelay <= 0 {
		opts.BatchDelay = DefaultBatchDelay
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		gen:    gen,
		opts:   opts,
		logger: logger,
		regen:  semaphore.NewWeighted(1),
	}, nil
}

// GenerateAll はプロフィール画像を1枚生成した後、ギャラリー用プロンプトを
// BatchSize 件ずつ並行に処理します。バッチ内の失敗は兄弟リクエストを中断せず、
// 失敗したスロットは結果から除外されます。
// プロフィール生成の失敗は致命的ではなく、ギャラリー生成はそのまま続行します。
func (o *Orchestrator) GenerateAll(ctx context.Context, src domain.SourceImage, style domain.StyleCategory, obs Observer) (*Result, error) {
	if err := validateInput(src, style); err != nil {
		return nil, err
	}

	prompts := style.GalleryPrompts
	tr := newTracker(1+len(prompts), obs)
	res := &Result{Gallery: gallery.New(), Total: tr.total}
	label := style.Label()

	o.logger.InfoContext(ctx, "生成を開始します", "style", label, "gallery_prompts", len(prompts), "batch_size", o.opts.BatchSize)

	// 1. プロフィール画像
	profile := o.gen.GenerateImage(ctx, newRequest(src, style.ProfilePrompt, label))
	if profile.Succeeded() {
		res.Profile = profile.ImageURI
		tr.profile(profile.ImageURI)
	} else {
		res.Failed++
		o.logger.WarnContext(ctx, "プロフィール画像の生成に失敗しました。ギャラリー生成は続行します", "error", profile.Err)
	}
	tr.step()

	// 2. ギャラリー画像
	var failed atomic.Int32
	for start := 0; start < len(prompts); start += o.opts.BatchSize {
		end := min(start+o.opts.BatchSize, len(prompts))

		var eg errgroup.Group
		for i := start; i < end; i++ {
			eg.Go(func() error {
				r := o.gen.GenerateImage(ctx, newRequest(src, prompts[i], label))
				if r.Succeeded() {
					res.Gallery.AddSlot(i, r.ImageURI)
					tr.galleryImage(i, r.ImageURI)
				} else {
					failed.Add(1)
					o.logger.WarnContext(ctx, "ギャラリー画像の生成に失敗しました", "prompt_index", i, "error", r.Err)
				}
				tr.step()
				// 失敗は値として扱うため、errgroup にエラーは返さない
				return nil
			})
		}
		_ = eg.Wait()
		res.Batches++

		if end < len(prompts) {
			if err := o.opts.Sleep(ctx, o.opts.BatchDelay); err != nil {
				res.Failed += int(failed.Load())
				res.Completed, _ = tr.snapshot()
				return res, fmt.Errorf("generation interrupted after batch %d: %w", res.Batches, err)
			}
		}
	}

	res.Failed += int(failed.Load())
	res.Completed, _ = tr.snapshot()
	o.logger.InfoContext(ctx, "生成が完了しました", "style", label, "images", res.Gallery.Len(), "failed", res.Failed)
	return res, nil
}

// Regenerate は指定スロットを1枚だけ作り直します。
// 同時に実行できる再生成はプロセス全体で1つだけで、実行中の場合は ErrRegenerationInProgress を返します。
// 成功時は履歴に追記してアクティブ位置を最新に移し、失敗時はギャラリーを変更せずに失敗値を返します。
func (o *Orchestrator) Regenerate(ctx context.Context, g *gallery.Gallery, slot int, src domain.SourceImage, style domain.StyleCategory) (domain.GenerationResult, error) {
	if !o.regen.TryAcquire(1) {
		return domain.GenerationResult{}, ErrRegenerationInProgress
	}
	defer o.regen.Release(1)

	if g == nil {
		return domain.GenerationResult{}, fmt.Errorf("%w: gallery is nil", domain.ErrInvalidInput)
	}
	view, err := g.Slot(slot)
	if err != nil {
		return domain.GenerationResult{}, err
	}
	if view.PromptIndex < 0 || view.PromptIndex >= len(style.GalleryPrompts) {
		return domain.GenerationResult{}, fmt.Errorf("%w: no gallery prompt for slot %d", domain.ErrInvalidInput, slot)
	}
	if err := src.Validate(); err != nil {
		return domain.GenerationResult{}, err
	}

	res := o.gen.GenerateImage(ctx, newRequest(src, style.GalleryPrompts[view.PromptIndex], style.Label()))
	if !res.Succeeded() {
		o.logger.WarnContext(ctx, "再生成に失敗しました。元の画像を維持します", "slot", slot, "error", res.Err)
		return res, nil
	}

	active, err := g.AddVersion(slot, res.ImageURI)
	if err != nil {
		return domain.GenerationResult{}, err
	}
	o.logger.InfoContext(ctx, "再生成が完了しました", "slot", slot, "active", active)
	return res, nil
}

func validateInput(src domain.SourceImage, style domain.StyleCategory) error {
	if err := src.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(style.ProfilePrompt) == "" {
		return fmt.Errorf("%w: style %q has no profile prompt", domain.ErrInvalidInput, style.ID)
	}
	if len(style.GalleryPrompts) == 0 {
		return fmt.Errorf("%w: style %q has no gallery prompts", domain.ErrInvalidInput, style.ID)
	}
	return nil
}

func newRequest(src domain.SourceImage, prompt, label string) domain.GenerationRequest {
	return domain.GenerationRequest{
		Image:      src.Data,
		MimeType:   src.MimeType,
		Prompt:     prompt,
		StyleLabel: label,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
