package main

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"matchlens/pkg/config"
	"matchlens/pkg/log"
	"matchlens/pkg/vision"
)

// batchSlots are the multipart field names the match endpoint looks for.
// Absent slots are simply skipped.
var batchSlots = []string{
	vision.SlotStats,
	vision.SlotRatings,
	vision.SlotHeatmapOffensive,
	vision.SlotHeatmapDefensive,
}

type server struct {
	cfg      *config.Config
	analyzer *vision.Analyzer
	batch    *vision.BatchAnalyzer
}

func setupRoutes(r *gin.Engine, s *server) {
	r.Use(requestLogger())
	r.POST("/analyze", s.analyzeHandler)
	r.POST("/analyze/match", s.analyzeMatchHandler)
	r.GET("/healthz", s.healthHandler)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// requestLogger tags each request with a trace id (generated when the client
// sends none), echoes it back and logs the outcome.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		entry, traceID := log.WithTraceID(c.GetHeader("X-Trace-Id"))
		c.Header("X-Trace-Id", traceID)
		start := time.Now()
		c.Next()
		entry.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Info("request handled")
	}
}

// analyzeHandler takes one screenshot under the "image" field and returns the
// parsed record.
func (s *server) analyzeHandler(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image missing"})
		return
	}
	img, err := s.readUpload(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rec, err := s.analyzer.Analyze(c.Request.Context(), img)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// analyzeMatchHandler takes up to four named screenshot slots and returns the
// merged match record. Slots that fail are reported by name alongside the
// aggregate built from the rest.
func (s *server) analyzeMatchHandler(c *gin.Context) {
	images := map[string][]byte{}
	for _, slot := range batchSlots {
		file, err := c.FormFile(slot)
		if err != nil {
			continue
		}
		img, err := s.readUpload(file)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": slot + ": " + err.Error()})
			return
		}
		images[slot] = img
	}
	if len(images) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no screenshot slots provided"})
		return
	}
	result, err := s.batch.AnalyzeBatch(c.Request.Context(), images)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "batch analysis failed"})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"engine": s.analyzer.Ready(),
	})
}

// readUpload validates size and extension then slurps the file.
func (s *server) readUpload(file *multipart.FileHeader) ([]byte, error) {
	if file.Size > s.cfg.MaxUploadBytes {
		return nil, errFileTooLarge
	}
	name := strings.ToLower(file.Filename)
	if !strings.HasSuffix(name, ".png") && !strings.HasSuffix(name, ".jpg") && !strings.HasSuffix(name, ".jpeg") {
		return nil, errUnsupportedType
	}
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes))
}

var (
	errFileTooLarge    = &uploadError{"file too large"}
	errUnsupportedType = &uploadError{"unsupported file type, expected png or jpeg"}
)

type uploadError struct{ msg string }

func (e *uploadError) Error() string { return e.msg }
