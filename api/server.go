// Package api serves the public, read-only view of a case behind an access code.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"appeal-bot/model"
	"appeal-bot/utils"
	"appeal-bot/utils/accesscode"
	"appeal-bot/utils/database"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Store is the read side of the case store.
type Store interface {
	FindCaseByID(ctx context.Context, id string) (*model.Case, error)
	MessagesOfCase(ctx context.Context, caseID string) ([]model.MessageMirror, error)
}

// Verifier resolves an access code to the case it grants.
type Verifier interface {
	Verify(ctx context.Context, code string) (accesscode.Details, error)
}

// CaseView is the response body of a successful lookup.
type CaseView struct {
	model.Case
	Messages []model.MessageMirror `json:"messages"`
}

type Server struct {
	store    Store
	verifier Verifier
	limiter  *RateLimiter
	http     *http.Server
	now      func() time.Time
	log      *logrus.Entry
}

func NewServer(addr string, store Store, verifier Verifier) *Server {
	s := &Server{
		store:    store,
		verifier: verifier,
		limiter:  NewRateLimiter(5),
		now:      time.Now,
		log:      utils.Component("api"),
	}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router builds the gin engine. Codes are base64 and may contain '/', hence the wildcard.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/appeals/*code", RateLimitMiddleware(s.limiter), s.getCase)
	r.NoRoute(func(c *gin.Context) {
		s.notFound(c, "Not found")
	})
	return r
}

// Start blocks until the server stops. A clean shutdown returns nil.
func (s *Server) Start() error {
	s.log.WithField("addr", s.http.Addr).Info("HTTP server listening")
	s.limiter.Cleanup()
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.http.Shutdown(ctx)
}

func (s *Server) getCase(c *gin.Context) {
	code := strings.TrimPrefix(c.Param("code"), "/")
	if code == "" {
		s.notFound(c, "Case does not exist or access code is invalid")
		return
	}
	ctx := c.Request.Context()

	details, err := s.verifier.Verify(ctx, code)
	if err != nil {
		if !errors.Is(err, accesscode.ErrInvalidCode) {
			s.log.WithError(err).Error("Failed to verify access code")
			s.internalError(c)
			return
		}
		s.notFound(c, "Case does not exist or access code is invalid")
		return
	}

	cs, err := s.store.FindCaseByID(ctx, details.CaseID)
	if errors.Is(err, database.ErrNotFound) {
		s.notFound(c, "Case does not exist or access code is invalid")
		return
	}
	if err != nil {
		s.log.WithError(err).WithField("case_id", details.CaseID).Error("Failed to load case")
		s.internalError(c)
		return
	}

	messages, err := s.store.MessagesOfCase(ctx, cs.ID)
	if err != nil {
		s.log.WithError(err).WithField("case_id", cs.ID).Error("Failed to load case messages")
		s.internalError(c)
		return
	}
	if messages == nil {
		messages = []model.MessageMirror{}
	}
	c.JSON(http.StatusOK, CaseView{Case: *cs, Messages: messages})
}

func (s *Server) notFound(c *gin.Context, message string) {
	s.errorResponse(c, http.StatusNotFound, message)
}

func (s *Server) internalError(c *gin.Context) {
	s.errorResponse(c, http.StatusInternalServerError, "Internal server error")
}

func (s *Server) errorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"status":    status,
		"path":      c.Request.URL.Path,
		"message":   message,
		"timestamp": s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"route":    c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
		}).Debug("HTTP request")
	}
}
