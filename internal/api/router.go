package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/LJTian/HeadlineCheck/internal/audio"
	"github.com/LJTian/HeadlineCheck/internal/config"
	"github.com/LJTian/HeadlineCheck/internal/nlp"
	"github.com/LJTian/HeadlineCheck/internal/storage"
	"github.com/LJTian/HeadlineCheck/internal/verifier"
	"github.com/gin-gonic/gin"
)

// 单次核查的上限，超时后各来源按失败处理
const verifyTimeout = 90 * time.Second

type HeadlineVerifier interface {
	Verify(ctx context.Context, headline string) *verifier.Result
	Keywords(headline string) []string
}

// SourceStore 订阅源与核查站点的管理接口，由 storage.Store 实现
type SourceStore interface {
	ListFeedSources() ([]storage.FeedSource, error)
	UpsertFeedSource(rawURL, name string, enabled bool) (*storage.FeedSource, error)
	RemoveFeedSource(rawURL string) error
	ListFactCheckSites() ([]storage.FactCheckSite, error)
	AddFactCheckSite(domain string) (*storage.FactCheckSite, error)
	RemoveFactCheckSite(domain string) error
}

type AudioAnalyzer interface {
	Analyze(path string) (audio.Analysis, error)
}

type Server struct {
	verifier HeadlineVerifier
	sources  SourceStore
	detector AudioAnalyzer

	uploadDir      string
	maxUploadBytes int64
}

func NewServer(v HeadlineVerifier, sources SourceStore, detector AudioAnalyzer, cfg *config.Config) *Server {
	return &Server{
		verifier:       v,
		sources:        sources,
		detector:       detector,
		uploadDir:      cfg.UploadDir,
		maxUploadBytes: cfg.MaxUploadMB << 20,
	}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)
	// 兼容旧前端的表单提交地址
	r.POST("/verify", s.verify)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/verify", s.verify)
		v1.POST("/similarity", s.similarity)
		v1.GET("/keywords", s.keywords)

		v1.GET("/sources/feeds", s.listFeeds)
		v1.POST("/sources/feeds", s.upsertFeed)
		v1.DELETE("/sources/feeds", s.removeFeed)
		v1.GET("/sources/factcheck", s.listFactCheckSites)
		v1.POST("/sources/factcheck", s.addFactCheckSite)
		v1.DELETE("/sources/factcheck", s.removeFactCheckSite)

		v1.POST("/audio/analyze", s.analyzeAudio)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type verifyRequest struct {
	Headline string `json:"headline" form:"headline"`
}

func (s *Server) verify(c *gin.Context) {
	var req verifyRequest
	// JSON 或表单均可；解析失败按空标题处理
	_ = c.ShouldBind(&req)

	headline := strings.TrimSpace(req.Headline)
	if headline == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  "Please provide a news headline to verify",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), verifyTimeout)
	defer cancel()
	result := s.verifier.Verify(ctx, headline)

	c.JSON(http.StatusOK, gin.H{
		"status":              "success",
		"headline":            headline,
		"verification_result": result,
	})
}

type similarityRequest struct {
	Text1 string `json:"text1"`
	Text2 string `json:"text2"`
}

func (s *Server) similarity(c *gin.Context) {
	var req similarityRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text1) == "" || strings.TrimSpace(req.Text2) == "" {
		badRequest(c, "text1 and text2 are required")
		return
	}
	ok(c, nlp.WeightedSimilarity(req.Text1, req.Text2))
}

func (s *Server) keywords(c *gin.Context) {
	text := strings.TrimSpace(c.Query("text"))
	if text == "" {
		badRequest(c, "text is required")
		return
	}
	kw := s.verifier.Keywords(text)
	if kw == nil {
		kw = []string{}
	}
	ok(c, gin.H{
		"keywords":     kw,
		"search_terms": nlp.SearchTerms(text, kw, 3),
		"entities":     nlp.ExtractEntities(text),
	})
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    data,
	})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"code":    "bad_request",
		"message": msg,
	})
}

func internalError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":    "internal_error",
		"message": "internal server error",
	})
}
