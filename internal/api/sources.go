package api

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/LJTian/HeadlineCheck/internal/nlp"
	"github.com/LJTian/HeadlineCheck/internal/storage"
	"github.com/gin-gonic/gin"
)

type feedRequest struct {
	URL     string `json:"url"`
	Name    string `json:"name"`
	Enabled *bool  `json:"enabled"`
}

func (s *Server) listFeeds(c *gin.Context) {
	list, err := s.sources.ListFeedSources()
	if err != nil {
		log.Printf("api: list feeds error: %v", err)
		internalError(c)
		return
	}
	if list == nil {
		list = []storage.FeedSource{}
	}
	ok(c, list)
}

func (s *Server) upsertFeed(c *gin.Context) {
	var req feedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	u := strings.TrimSpace(req.URL)
	if !nlp.IsURLSafe(u) {
		badRequest(c, "url must be an http(s) address")
		return
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	src, err := s.sources.UpsertFeedSource(u, req.Name, enabled)
	if err != nil {
		s.sourceError(c, "upsert feed", err)
		return
	}
	ok(c, src)
}

func (s *Server) removeFeed(c *gin.Context) {
	u := strings.TrimSpace(c.Query("url"))
	if u == "" {
		badRequest(c, "url is required")
		return
	}
	if err := s.sources.RemoveFeedSource(u); err != nil {
		s.sourceError(c, "remove feed", err)
		return
	}
	ok(c, gin.H{"url": u})
}

type factCheckRequest struct {
	Domain string `json:"domain"`
}

func (s *Server) listFactCheckSites(c *gin.Context) {
	list, err := s.sources.ListFactCheckSites()
	if err != nil {
		log.Printf("api: list fact-check sites error: %v", err)
		internalError(c)
		return
	}
	if list == nil {
		list = []storage.FactCheckSite{}
	}
	ok(c, list)
}

func (s *Server) addFactCheckSite(c *gin.Context) {
	var req factCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if storage.NormalizeSite(req.Domain) == "" {
		badRequest(c, "domain is invalid (host with optional section path)")
		return
	}
	site, err := s.sources.AddFactCheckSite(req.Domain)
	if err != nil {
		s.sourceError(c, "add fact-check site", err)
		return
	}
	ok(c, site)
}

func (s *Server) removeFactCheckSite(c *gin.Context) {
	d := strings.TrimSpace(c.Query("domain"))
	if d == "" {
		badRequest(c, "domain is required")
		return
	}
	if err := s.sources.RemoveFactCheckSite(d); err != nil {
		s.sourceError(c, "remove fact-check site", err)
		return
	}
	ok(c, gin.H{"domain": storage.NormalizeSite(d)})
}

func (s *Server) sourceError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, storage.ErrInvalidSource):
		badRequest(c, "invalid source")
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "not_found",
			"message": "source not found",
		})
	default:
		log.Printf("api: %s error: %v", op, err)
		internalError(c)
	}
}
