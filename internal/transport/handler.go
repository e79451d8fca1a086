package transport

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go-ultrasound-inspector/internal/config"
	apperrors "go-ultrasound-inspector/internal/errors"
	"go-ultrasound-inspector/internal/logger"
	"go-ultrasound-inspector/internal/service"
	"go-ultrasound-inspector/pkg/models"
	"go-ultrasound-inspector/pkg/validation"
)

//go:embed templates/*.html
var templateFS embed.FS

const uploadField = "file"

// MetricsSource exposes pipeline counters for the metrics route
type MetricsSource interface {
	GetMetrics() map[string]interface{}
}

// NewHandler builds the gin router with HTML and JSON analyze routes
func NewHandler(svc service.AnalysisService, metrics MetricsSource, cfg *config.Config) http.Handler {
	r := gin.New()
	r.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.html")))

	// Add middleware
	r.Use(
		gin.Recovery(),
		requestID(),
		requestLogger(),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/", index)
	r.GET("/health", healthCheck)
	r.GET("/metrics", metricsHandler(metrics))
	r.POST("/analyze", analyzeImage(svc, cfg, renderHTML))
	r.POST("/api/v1/analyze", analyzeImage(svc, cfg, renderJSON))

	return r
}

type renderFunc func(c *gin.Context, analysis *models.Analysis)

func renderHTML(c *gin.Context, analysis *models.Analysis) {
	c.HTML(http.StatusOK, "results.html", gin.H{
		"analysis":        analysis.Result,
		"filename":        analysis.Image.Filename,
		"model":           analysis.Model,
		"processing_time": analysis.ProcessingTimeSec,
		"request_id":      analysis.RequestID,
	})
}

func renderJSON(c *gin.Context, analysis *models.Analysis) {
	c.JSON(http.StatusOK, models.NewAnalysisResponse(analysis))
}

func index(c *gin.Context) {
	c.HTML(http.StatusOK, "steps.html", nil)
}

func analyzeImage(svc service.AnalysisService, cfg *config.Config, render renderFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()
		reqID := getRequestID(c)

		logger.WithFields(logrus.Fields{
			"request_id": reqID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"ip":         c.ClientIP(),
		}).Info("Processing image analysis request")

		upload, closeUpload, reason, appErr := readUpload(c)
		if appErr != nil {
			err := svc.Reject(ctx, reqID, upload.Filename, reason, appErr)
			respondError(c, appErr.StatusCode, appErr.Message, err)
			return
		}
		defer closeUpload()

		analysis, err := svc.Analyze(ctx, service.AnalyzeRequest{RequestID: reqID, Upload: upload})
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), apperrors.GetMessage(err, "Analysis unavailable"), err)
			return
		}

		logger.WithFields(logrus.Fields{
			"request_id":         reqID,
			"filename":           analysis.Image.Filename,
			"provider":           analysis.Provider,
			"model":              analysis.Model,
			"processing_time_ms": int64(analysis.ProcessingTimeSec * 1000),
		}).Info("Image analysis completed successfully")

		render(c, analysis)
	}
}

// readUpload pulls the file part out of the multipart form. On failure it returns the
// rejection reason and the error to show; Filename is still set when it was known.
func readUpload(c *gin.Context) (validation.Upload, func(), string, *apperrors.AppError) {
	noop := func() {}

	header, err := c.FormFile(uploadField)
	if err != nil {
		switch {
		case isTooLarge(err):
			return validation.Upload{}, noop, service.ReasonTooLarge, apperrors.NewTooLargeError(service.MessageTooLarge, err)
		case errors.Is(err, http.ErrMissingFile) && hasEmptyFilePart(c):
			return validation.Upload{}, noop, service.ReasonNoSelection, apperrors.NewValidationError(service.MessageNoSelection, err)
		default:
			return validation.Upload{}, noop, service.ReasonNoFile, apperrors.NewValidationError(service.MessageNoFile, err)
		}
	}

	if strings.TrimSpace(header.Filename) == "" {
		return validation.Upload{}, noop, service.ReasonNoSelection, apperrors.NewValidationError(service.MessageNoSelection, nil)
	}

	file, err := header.Open()
	if err != nil {
		return validation.Upload{Filename: header.Filename}, noop, string(validation.KindUnreadable),
			apperrors.NewValidationError(service.MessageInvalidFile, err)
	}

	return validation.Upload{Filename: header.Filename, Content: file}, func() { _ = file.Close() }, "", nil
}

// hasEmptyFilePart reports whether the form carried an empty file field without a filename,
// which is what browsers send when no file was chosen. A plain text field named
// "file" with content is not a file part and counts as no upload.
func hasEmptyFilePart(c *gin.Context) bool {
	form := c.Request.MultipartForm
	if form == nil {
		return false
	}
	values, ok := form.Value[uploadField]
	if !ok {
		return false
	}
	for _, v := range values {
		if v != "" {
			return false
		}
	}
	return true
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func metricsHandler(metrics MetricsSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil {
			c.JSON(http.StatusOK, gin.H{})
			return
		}
		c.JSON(http.StatusOK, metrics.GetMetrics())
	}
}
