// Package server exposes the media gateway over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tessellate-ai/mediagate/pkg/logging"
	"github.com/tessellate-ai/mediagate/pkg/mediastore"
)

// Server is the HTTP facade over the gateway.
type Server struct {
	config  *Config
	gateway *mediastore.Gateway
	logger  logging.Interface
	http    *http.Server
}

// NewServer builds the server and its routes.
func NewServer(config *Config, gateway *mediastore.Gateway, logger logging.Interface) *Server {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config:  config,
		gateway: gateway,
		logger:  logger,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.requestID())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1/media")
	{
		v1.GET("/resolve", s.handleResolve)
		v1.GET("/thumbnail", s.handleThumbnail)
		v1.DELETE("/thumbnail", s.handleClearThumbnails)
		v1.GET("/presign", s.handlePresign)
		v1.POST("/refresh", s.handleRefresh)
	}

	s.http = &http.Server{
		Addr:              config.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start begins serving in the background.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.config.Addr()).Info("Starting media gateway server")
	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithError(err).Error("HTTP server terminated")
		}
	}()
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping media gateway server")
	return s.http.Shutdown(ctx)
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func (s *Server) handleResolve(c *gin.Context) {
	res, err := s.gateway.Resolve(c.Query("url"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"bucketId":         res.Bucket.ID,
		"objectPath":       res.ObjectPath,
		"matchedPatternId": res.MatchedPatternID,
	})
}

func (s *Server) handleThumbnail(c *gin.Context) {
	req := mediastore.GatewayThumbnailRequest{
		URL:   c.Query("url"),
		Force: c.Query("force") == "true",
		Size: mediastore.SizeRequest{
			Mode:        c.Query("mode"),
			Width:       queryFloat(c, "width"),
			Height:      queryFloat(c, "height"),
			LongestSide: queryFloat(c, "longestSide"),
		},
	}

	res, err := s.gateway.GetThumbnail(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}

	if c.Query("redirect") == "true" {
		c.Redirect(http.StatusFound, res.URL)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"url":              res.URL,
		"etag":             res.ETag,
		"isNewlyGenerated": res.IsNewlyGenerated,
		"shouldRedirect":   res.ShouldRedirect,
		"bucketId":         res.BucketID,
	})
}

func (s *Server) handleClearThumbnails(c *gin.Context) {
	if err := s.gateway.ClearThumbnailCache(c.Request.Context(), c.Query("url")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handlePresign(c *gin.Context) {
	ttl := time.Duration(math.Round(queryFloat(c, "ttl"))) * time.Second

	res, err := s.gateway.GetPresignedURL(c.Request.Context(), c.Query("url"), ttl)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"url":        res.URL,
		"method":     res.Method,
		"headers":    res.Headers,
		"expiresIn":  int64(res.ExpiresIn.Seconds()),
		"objectPath": res.ObjectPath,
	})
}

type refreshRequest struct {
	URL string `json:"url" binding:"required"`
}

func (s *Server) handleRefresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	res, err := s.gateway.RefreshSignedURL(c.Request.Context(), req.URL)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"refreshed": res.Refreshed, "url": res.URL})
}

// writeError maps domain errors onto HTTP statuses: caller mistakes are 4xx,
// configuration problems 500, storage trouble 502.
func (s *Server) writeError(c *gin.Context, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, mediastore.ErrMissingURLParam),
		errors.Is(err, mediastore.ErrInvalidURL),
		errors.Is(err, mediastore.ErrInvalidSize):
		status = http.StatusBadRequest
	case errors.Is(err, mediastore.ErrBucketNotRegistered),
		errors.Is(err, mediastore.ErrSourceNotFound):
		status = http.StatusNotFound
	case errors.Is(err, mediastore.ErrConfiguration):
		status = http.StatusInternalServerError
	}

	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).Error("Request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func queryFloat(c *gin.Context, name string) float64 {
	raw := c.Query(name)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return v
}
