package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/shouni/couplai/pkg/archive"
	"github.com/shouni/couplai/pkg/domain"
	"github.com/shouni/couplai/pkg/gallery"
	"github.com/shouni/couplai/pkg/orchestrator"
)

const maxUploadBytes = 25 << 20

// Generator は生成フローを実行します。orchestrator.Orchestrator がこれを満たします。
type Generator interface {
	GenerateAll(ctx context.Context, src domain.SourceImage, style domain.StyleCategory, obs orchestrator.Observer) (*orchestrator.Result, error)
	Regenerate(ctx context.Context, g *gallery.Gallery, slot int, src domain.SourceImage, style domain.StyleCategory) (domain.GenerationResult, error)
}

// Styles はスタイルカタログの参照用インターフェースです。
type Styles interface {
	Find(id string) (domain.StyleCategory, bool)
	All() []domain.StyleCategory
}

// ArchiveBuilder は ZIP の中身を組み立てます。
type ArchiveBuilder interface {
	Build(ctx context.Context, in archive.Input) (*archive.Bundle, error)
}

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func respondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}

// Handler は生成ウィザードの HTTP ハンドラです。
type Handler struct {
	gen     Generator
	styles  Styles
	builder ArchiveBuilder
	store   *Store
	logger  *slog.Logger
	baseCtx context.Context
	shuffle func([]domain.StyleCategory)
}

// Options は Handler の依存関係です。
type Options struct {
	Generator Generator
	Styles    Styles
	Builder   ArchiveBuilder
	Store     *Store
	Logger    *slog.Logger
	// BaseContext はバックグラウンド生成の親コンテキストです。サーバー停止時にキャンセルされます。
	BaseContext context.Context
	Shuffle     func([]domain.StyleCategory)
}

func NewHandler(opts Options) (*Handler, error) {
	if opts.Generator == nil || opts.Styles == nil || opts.Builder == nil {
		return nil, errors.New("generator, styles and builder are required")
	}
	h := &Handler{
		gen:     opts.Generator,
		styles:  opts.Styles,
		builder: opts.Builder,
		store:   opts.Store,
		logger:  opts.Logger,
		baseCtx: opts.BaseContext,
		shuffle: opts.Shuffle,
	}
	if h.store == nil {
		h.store = NewStore()
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.baseCtx == nil {
		h.baseCtx = context.Background()
	}
	return h, nil
}

// GET /healthz
func (h *Handler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// GET /api/styles?shuffle=true
func (h *Handler) ListStyles(c *gin.Context) {
	styles := h.styles.All()
	if shuffle, _ := strconv.ParseBool(c.Query("shuffle")); shuffle && h.shuffle != nil {
		h.shuffle(styles)
	}
	c.JSON(http.StatusOK, gin.H{"styles": styles})
}

// POST /api/generations
// multipart: image, style_id, name
func (h *Handler) CreateGeneration(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	fh, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "missing_image", errors.New("missing image"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_image", err)
		return
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_image", errors.New("failed to read image"))
		return
	}

	src, err := domain.NewSourceImage(fh.Filename, fh.Header.Get("Content-Type"), data)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_image", err)
		return
	}

	styleID := strings.TrimSpace(c.PostForm("style_id"))
	style, ok := h.styles.Find(styleID)
	if !ok {
		respondError(c, http.StatusBadRequest, "unknown_style", fmt.Errorf("unknown style: %q", styleID))
		return
	}

	sess := newSession(style, src, strings.TrimSpace(c.PostForm("name")))
	h.store.Put(sess)
	go h.run(sess)

	c.JSON(http.StatusAccepted, gin.H{"id": sess.ID})
}

// run はフロー全体を期限なしで実行します。打ち切りはサーバー停止時の baseCtx のキャンセルだけです。
func (h *Handler) run(sess *Session) {
	res, err := h.gen.GenerateAll(h.baseCtx, sess.Source, sess.Style, sess)
	if err != nil {
		h.logger.Error("生成に失敗しました", "id", sess.ID, "error", err)
	}
	sess.finish(res, err)
}

// GET /api/generations/:id
func (h *Handler) GetGeneration(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.view())
}

// POST /api/generations/:id/slots/:slot/regenerate
func (h *Handler) RegenerateSlot(c *gin.Context) {
	sess, slot, ok := h.sessionSlot(c)
	if !ok {
		return
	}
	if sess.Status() != StatusDone {
		respondError(c, http.StatusConflict, "not_ready", errors.New("generation is still running"))
		return
	}

	ctx := c.Request.Context()
	g := sess.Gallery()
	res, err := h.gen.Regenerate(ctx, g, slot, sess.Source, sess.Style)
	switch {
	case errors.Is(err, orchestrator.ErrRegenerationInProgress):
		respondError(c, http.StatusConflict, "busy", err)
		return
	case errors.Is(err, gallery.ErrSlotOutOfRange):
		respondError(c, http.StatusNotFound, "slot_not_found", err)
		return
	case err != nil:
		respondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if !res.Succeeded() {
		respondError(c, http.StatusBadGateway, "generation_failed", res.Err)
		return
	}

	view, err := g.Slot(slot)
	if err != nil {
		respondError(c, http.StatusNotFound, "slot_not_found", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// POST /api/generations/:id/slots/:slot/navigate?direction=prev|next
func (h *Handler) NavigateSlot(c *gin.Context) {
	sess, slot, ok := h.sessionSlot(c)
	if !ok {
		return
	}
	dir, err := gallery.ParseDirection(c.Query("direction"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_direction", err)
		return
	}

	g := sess.Gallery()
	if _, err := g.Navigate(slot, dir); err != nil {
		respondError(c, http.StatusNotFound, "slot_not_found", err)
		return
	}
	view, err := g.Slot(slot)
	if err != nil {
		respondError(c, http.StatusNotFound, "slot_not_found", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GET /api/generations/:id/archive
func (h *Handler) DownloadArchive(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	if sess.Status() == StatusRunning {
		respondError(c, http.StatusConflict, "not_ready", errors.New("generation is still running"))
		return
	}

	in := archive.InputFromGallery(sess.Gallery(), sess.Profile(), sess.Source, sess.Style.Label(), sess.SubjectName)
	bundle, err := h.builder.Build(c.Request.Context(), in)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, domain.ErrInvalidInput) {
			status = http.StatusUnprocessableEntity
		}
		h.logger.Warn("アーカイブの作成に失敗しました", "id", sess.ID, "error", err)
		respondError(c, status, "archive_failed", err)
		return
	}
	data, err := bundle.Bytes()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "archive_failed", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, bundle.ZipName))
	c.Data(http.StatusOK, "application/zip", data)
}

func (h *Handler) session(c *gin.Context) (*Session, bool) {
	sess, err := h.store.Get(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusNotFound, "not_found", err)
		return nil, false
	}
	return sess, true
}

func (h *Handler) sessionSlot(c *gin.Context) (*Session, int, bool) {
	sess, ok := h.session(c)
	if !ok {
		return nil, 0, false
	}
	slot, err := strconv.Atoi(c.Param("slot"))
	if err != nil || slot < 0 {
		respondError(c, http.StatusBadRequest, "invalid_slot", fmt.Errorf("invalid slot: %q", c.Param("slot")))
		return nil, 0, false
	}
	return sess, slot, true
}
