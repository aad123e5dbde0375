package posts

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/postboard/internal/auth"
	"github.com/yourusername/postboard/internal/logging"
)

// IndexPath は自分の投稿一覧のパスです。
const IndexPath = "/Posts/Index"

// Handler は投稿まわりの HTTP ハンドラーです。
type Handler struct {
	store  Store
	binder *auth.SessionBinder
	routes auth.Routes
	logger *slog.Logger
}

// NewHandler は Handler を作成します。
func NewHandler(store Store, binder *auth.SessionBinder, routes auth.Routes, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{store: store, binder: binder, routes: routes, logger: logger}
}

// RegisterRoutes はホームと投稿のルートを登録します。
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET(h.routes.Root, h.Home)
	r.GET(h.routes.Home, h.Home)
	r.GET(IndexPath, h.Index)
	r.POST("/Posts/Create", h.Create)
	r.GET("/Posts/GetPost/:id", h.GetPost)
	r.POST("/Posts/Edit/:id", h.Edit)
	r.POST("/Posts/Delete/:id", h.Delete)
}

type postRequest struct {
	Title       string `form:"title" json:"title" binding:"required,max=200"`
	Description string `form:"description" json:"description" binding:"required"`
	IsActive    bool   `form:"isActive" json:"isActive"`
}

// Home は公開中の投稿一覧を返します。ログイン中はユーザー名も含めます。
func (h *Handler) Home(c *gin.Context) {
	posts, err := h.store.ListActive(c.Request.Context())
	if err != nil {
		h.internalError(c, "list active posts failed", err)
		return
	}

	username, _ := h.binder.Bind(c).Username()
	c.JSON(http.StatusOK, gin.H{
		"username": username,
		"posts":    posts,
	})
}

// Index はログイン中ユーザーの投稿一覧を返します。
func (h *Handler) Index(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	posts, err := h.store.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.internalError(c, "list user posts failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// Create は投稿を作成して一覧へリダイレクトします。
func (h *Handler) Create(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req postRequest
	if err := c.ShouldBind(&req); err != nil {
		invalidInput(c)
		return
	}

	post := &Post{
		Title:       req.Title,
		Description: req.Description,
		IsActive:    req.IsActive,
		UserID:      userID,
	}
	if err := h.store.Create(c.Request.Context(), post); err != nil {
		h.internalError(c, "create post failed", err)
		return
	}

	h.logger.InfoContext(c.Request.Context(), "post created", "post_id", post.ID, "user_id", userID)
	c.Redirect(http.StatusSeeOther, IndexPath)
}

// GetPost は投稿 1 件を JSON で返します。
func (h *Handler) GetPost(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}

	post, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		h.storeError(c, "get post failed", err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// Edit は自分の投稿を更新します。
func (h *Handler) Edit(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := postID(c)
	if !ok {
		return
	}

	var req postRequest
	if err := c.ShouldBind(&req); err != nil {
		invalidInput(c)
		return
	}

	post := &Post{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		IsActive:    req.IsActive,
		UserID:      userID,
	}
	if err := h.store.Update(c.Request.Context(), post); err != nil {
		h.storeError(c, "update post failed", err)
		return
	}
	c.Redirect(http.StatusSeeOther, IndexPath)
}

// Delete は自分の投稿を削除します。
func (h *Handler) Delete(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	id, ok := postID(c)
	if !ok {
		return
	}

	if err := h.store.Delete(c.Request.Context(), id, userID); err != nil {
		h.storeError(c, "delete post failed", err)
		return
	}
	c.Redirect(http.StatusSeeOther, IndexPath)
}

// currentUser はセッションのユーザー ID を返します。
// 未ログインの場合はログイン画面へリダイレクト済みで false を返します。
func (h *Handler) currentUser(c *gin.Context) (int64, bool) {
	raw, ok := h.binder.Bind(c).CurrentUserID()
	if !ok {
		c.Redirect(http.StatusFound, h.routes.Login)
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.internalError(c, "session user id is not numeric", err)
		return 0, false
	}
	return id, true
}

func postID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "POST_NOT_FOUND",
			"message": "投稿が見つかりません",
		})
		return 0, false
	}
	return id, true
}

func invalidInput(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{
		"code":    "INVALID_INPUT",
		"message": "タイトルと本文を入力してください（タイトルは200文字以内）",
	})
}

func (h *Handler) storeError(c *gin.Context, msg string, err error) {
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "POST_NOT_FOUND",
			"message": "投稿が見つかりません",
		})
		return
	}
	h.internalError(c, msg, err)
}

func (h *Handler) internalError(c *gin.Context, msg string, err error) {
	logging.LogError(h.logger, msg, err, "path", c.Request.URL.Path)
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":    "INTERNAL_ERROR",
		"message": auth.MsgInternal,
	})
}
