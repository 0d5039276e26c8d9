// Package server exposes the crawler and labeler over HTTP.
package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/MShoaei/HeadlineMiner/bots"
	"github.com/MShoaei/HeadlineMiner/sentiment"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const lookback = 7 * 24 * time.Hour

// Headline is one entry of an analyze-sentiment response.
type Headline struct {
	Headline  string          `json:"headline"`
	Posted    time.Time       `json:"posted"`
	Text      string          `json:"text"`
	Link      string          `json:"link"`
	Sentiment sentiment.Label `json:"sentiment,omitempty"`
}

type Server struct {
	extractor  bots.Extractor
	labeler    sentiment.Labeler
	maxDefault int
	origin     string
	now        func() time.Time
	log        logrus.FieldLogger
}

// New returns a server; labeler may be nil, in which case headlines are
// returned without sentiment.
func New(extractor bots.Extractor, labeler sentiment.Labeler, maxDefault int, log logrus.FieldLogger, opts ...Option) *Server {
	s := &Server{
		extractor:  extractor,
		labeler:    labeler,
		maxDefault: maxDefault,
		now:        time.Now,
		log:        log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type Option func(*Server)

// WithAllowedOrigin lets browsers on origin call the API. Empty disables CORS
// headers.
func WithAllowedOrigin(origin string) Option {
	return func(s *Server) { s.origin = origin }
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), s.cors())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/analyze-sentiment", s.analyzeSentiment)
	r.OPTIONS("/analyze-sentiment", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func (s *Server) cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.origin != "" {
			c.Header("Access-Control-Allow-Origin", s.origin)
			c.Header("Access-Control-Allow-Headers", "X-Requested-With,content-type")
			c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		}
		c.Next()
	}
}

func (s *Server) analyzeSentiment(c *gin.Context) {
	searchKey := c.Query("searchKey")
	if searchKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Search key is required"})
		return
	}

	limit := s.maxDefault
	if raw := c.Query("maxArticlesPerSearch"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "maxArticlesPerSearch must be a positive integer"})
			return
		}
		limit = n
	}

	req, err := bots.NewCrawlRequest([]string{searchKey}, s.now().Add(-lookback), limit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	headlines, err := s.collect(c.Request.Context(), req)
	if err != nil {
		s.log.WithError(err).WithField("term", searchKey).Error("analyze sentiment")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": headlines})
}

func (s *Server) collect(ctx context.Context, req bots.CrawlRequest) ([]Headline, error) {
	result, err := s.extractor.Crawl(ctx, req)
	if err != nil {
		return nil, err
	}

	tr := result[req.Terms[0]]
	if tr == nil {
		return []Headline{}, nil
	}
	if tr.Err != nil && len(tr.Articles) == 0 {
		return nil, tr.Err
	}

	headlines := make([]Headline, 0, len(tr.Articles))
	for _, a := range tr.Articles {
		h := Headline{
			Headline: a.Headline,
			Posted:   a.PostedAt,
			Text:     a.Body,
			Link:     a.Link,
		}
		if s.labeler != nil {
			label, err := s.labeler.Label(ctx, a.Body)
			if err != nil {
				return nil, err
			}
			h.Sentiment = label
		}
		headlines = append(headlines, h)
	}
	return headlines, nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
		}).Info("request")
	}
}
