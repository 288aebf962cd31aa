package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/LJTian/NewsHub/internal/collector"
	"github.com/LJTian/NewsHub/internal/ingest"
	"github.com/LJTian/NewsHub/internal/storage"
	"github.com/gin-gonic/gin"
)

// Collector 后台采集入口，由 scheduler.Scheduler 实现
type Collector interface {
	Trigger() bool
	Running() bool
	LastReport() *ingest.Report
}

type Server struct {
	store      *storage.Store
	collector  Collector
	categories []string
}

// NewServer collector 可以为 nil，此时库为空也不会触发采集
func NewServer(store *storage.Store, col Collector, categories []string) *Server {
	if len(categories) == 0 {
		categories = collector.DefaultCategories()
	}
	return &Server{store: store, collector: col, categories: categories}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/articles", s.optionalUser(), s.listArticles)
		v1.GET("/articles/:id", s.getArticle)
		v1.GET("/categories", s.listCategories)
		v1.POST("/users", s.register)

		v1.GET("/saved", s.requireUser(), s.listSaved)
		v1.POST("/saved/:id", s.requireUser(), s.toggleSaved)

		v1.GET("/collect", s.collectStatus)
		v1.POST("/collect", s.requireUser(), s.triggerCollect)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    data,
	})
}

func fail(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"code":    code,
		"message": message,
	})
}

func internalError(c *gin.Context, what string, err error) {
	log.Printf("warn: %s: %v", what, err)
	fail(c, http.StatusInternalServerError, "internal_error", "internal server error")
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func (s *Server) listArticles(c *gin.Context) {
	ctx := c.Request.Context()

	q := storage.ArticleQuery{
		Search: strings.TrimSpace(c.Query("q")),
		Page:   queryInt(c, "page", 1),
	}
	if v := c.Query("category"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			fail(c, http.StatusBadRequest, "bad_request", "invalid category")
			return
		}
		q.CategoryID = uint(id)
	}

	s.collectIfEmpty(ctx)

	page, err := s.store.ListArticles(ctx, q)
	if err != nil {
		internalError(c, "list articles", err)
		return
	}

	sanitizeArticles(page.Items)
	data := gin.H{
		"items": page.Items,
		"total": page.Total,
		"page":  page.Page,
		"pages": page.Pages,
	}
	if u := currentUser(c); u != nil {
		ids, err := s.store.SavedArticleIDs(ctx, u.ID)
		if err != nil {
			internalError(c, "saved ids", err)
			return
		}
		data["savedIds"] = ids
	}
	respond(c, http.StatusOK, data)
}

// collectIfEmpty 库里还没有文章时在后台发起一轮采集，请求本身不等待
func (s *Server) collectIfEmpty(ctx context.Context) {
	if s.collector == nil {
		return
	}
	n, err := s.store.CountArticles(ctx)
	if err != nil {
		log.Printf("warn: count articles: %v", err)
		return
	}
	if n == 0 && s.collector.Trigger() {
		log.Println("no articles yet, started background collect")
	}
}

func (s *Server) getArticle(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, "bad_request", "invalid article id")
		return
	}
	a, err := s.store.GetArticle(c.Request.Context(), uint(id))
	if errors.Is(err, storage.ErrNotFound) {
		fail(c, http.StatusNotFound, "not_found", "article not found")
		return
	}
	if err != nil {
		internalError(c, "get article", err)
		return
	}
	sanitizeArticle(a)
	respond(c, http.StatusOK, a)
}

func (s *Server) listCategories(c *gin.Context) {
	ctx := c.Request.Context()
	if err := s.store.EnsureCategories(ctx, s.categories); err != nil {
		internalError(c, "ensure categories", err)
		return
	}
	list, err := s.store.ListCategories(ctx, s.categories)
	if err != nil {
		internalError(c, "list categories", err)
		return
	}
	respond(c, http.StatusOK, list)
}

type registerRequest struct {
	Username string `json:"username" binding:"required,max=150"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	Email    string `json:"email" binding:"omitempty,email"`
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	u, err := s.store.CreateUser(c.Request.Context(), strings.TrimSpace(req.Username), req.Password, req.Email)
	if errors.Is(err, storage.ErrUserExists) {
		fail(c, http.StatusConflict, "user_exists", "username already taken")
		return
	}
	if errors.Is(err, storage.ErrPasswordTooLong) {
		fail(c, http.StatusBadRequest, "bad_request", "password must be at most 72 bytes")
		return
	}
	if err != nil {
		internalError(c, "create user", err)
		return
	}
	respond(c, http.StatusCreated, u)
}

func (s *Server) listSaved(c *gin.Context) {
	u := currentUser(c)
	page, err := s.store.ListSaved(c.Request.Context(), u.ID, queryInt(c, "page", 1))
	if err != nil {
		internalError(c, "list saved", err)
		return
	}
	for i := range page.Items {
		sanitizeArticle(page.Items[i].Article)
	}
	respond(c, http.StatusOK, page)
}

func (s *Server) toggleSaved(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, "bad_request", "invalid article id")
		return
	}
	saved, err := s.store.ToggleSave(c.Request.Context(), currentUser(c), uint(id))
	if errors.Is(err, storage.ErrNotFound) {
		fail(c, http.StatusNotFound, "not_found", "article not found")
		return
	}
	if err != nil {
		internalError(c, "toggle saved", err)
		return
	}
	respond(c, http.StatusOK, gin.H{"saved": saved})
}

func (s *Server) collectStatus(c *gin.Context) {
	if s.collector == nil {
		respond(c, http.StatusOK, gin.H{"running": false})
		return
	}
	respond(c, http.StatusOK, gin.H{
		"running": s.collector.Running(),
		"last":    s.collector.LastReport(),
	})
}

func (s *Server) triggerCollect(c *gin.Context) {
	if s.collector == nil {
		fail(c, http.StatusServiceUnavailable, "unavailable", "collector not configured")
		return
	}
	if !s.collector.Trigger() {
		fail(c, http.StatusConflict, "already_running", "a collect job is already running")
		return
	}
	respond(c, http.StatusAccepted, gin.H{"started": true})
}
