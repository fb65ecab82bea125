// Package api exposes the segmenter over HTTP and WebSocket.
package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"panel-segmenter/internal/segment"
	"panel-segmenter/internal/version"
)

// Request is the body of a segmentation call.
type Request struct {
	Image  string `json:"image" binding:"required"` // Base64 image, optionally a data URL
	Preset string `json:"preset"`                   // Empty selects the server default
}

// Server holds one pipeline per preset.
type Server struct {
	pipelines map[string]*segment.Pipeline
	fallback  string
	logger    *log.Logger
	upgrader  websocket.Upgrader
}

// NewServer builds a pipeline for every preset. base is used for its own
// preset and as the default; other presets inherit its reading direction
// and JPEG quality.
func NewServer(ex segment.Extractor, base segment.Params, logger *log.Logger) (*Server, error) {
	s := &Server{
		pipelines: make(map[string]*segment.Pipeline),
		fallback:  base.Name,
		logger:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}

	for _, name := range segment.PresetNames() {
		params := base
		if name != base.Name {
			p, err := segment.Preset(name)
			if err != nil {
				return nil, err
			}
			params = p.WithDirection(base.Direction).WithJPEGQuality(base.JPEGQuality)
		}
		pl, err := segment.New(ex, params, segment.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("preset %s: %w", name, err)
		}
		s.pipelines[name] = pl
	}
	if _, ok := s.pipelines[s.fallback]; !ok {
		return nil, fmt.Errorf("%w %q", segment.ErrUnknownPreset, s.fallback)
	}
	return s, nil
}

// Router returns the gin engine serving the API.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if s.logger != nil {
		r.Use(gin.LoggerWithWriter(s.logger.Writer()))
	}

	r.GET("/healthz", s.health)
	r.POST("/api/segment", s.segment)
	r.GET("/ws/segment", s.segmentStream)
	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": version.Version,
		"preset":  s.pipelines[s.fallback].Params().Name,
	})
}

func (s *Server) pipeline(preset string) (*segment.Pipeline, error) {
	if preset == "" {
		preset = s.fallback
	}
	p, ok := s.pipelines[preset]
	if !ok {
		return nil, fmt.Errorf("%w %q (have %v)", segment.ErrUnknownPreset, preset, segment.PresetNames())
	}
	return p, nil
}

func (s *Server) segment(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	p, err := s.pipeline(req.Preset)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, p.SegmentBase64(req.Image))
}

// segmentStream answers each text message with a Result until the client
// disconnects.
func (s *Server) segmentStream(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logf("websocket read: %v", err)
			}
			return
		}

		if err := conn.WriteJSON(s.handleMessage(msg)); err != nil {
			s.logf("websocket write: %v", err)
			return
		}
	}
}

func (s *Server) handleMessage(msg []byte) *segment.Result {
	var req Request
	if err := json.Unmarshal(msg, &req); err != nil {
		return segment.ErrorResult(fmt.Errorf("invalid request: %w", err))
	}
	p, err := s.pipeline(req.Preset)
	if err != nil {
		return segment.ErrorResult(err)
	}
	return p.SegmentBase64(req.Image)
}

func (s *Server) logf(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Printf("api: "+format, args...)
	}
}
