package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/KaramelBytes/dataloom-cli/internal/analysis"
	"github.com/KaramelBytes/dataloom-cli/internal/charts"
	"github.com/KaramelBytes/dataloom-cli/internal/cleaner"
	"github.com/KaramelBytes/dataloom-cli/internal/dashboard"
	"github.com/KaramelBytes/dataloom-cli/internal/parser"
)

// DatasetRequest is the body shared by every function route.
type DatasetRequest struct {
	CSVData  string `json:"csvData"`
	FileName string `json:"fileName"`
}

type dashboardResponse struct {
	Success         bool                     `json:"success"`
	ID              string                   `json:"id"`
	Dashboard       dashboard.Payload        `json:"dashboard"`
	ColumnAnalysis  []analysis.ColumnProfile `json:"columnAnalysis"`
	ChartCategories map[charts.Category]int  `json:"chartCategories"`
	Fallback        bool                     `json:"fallback"`
}

type cleanResponse struct {
	Success        bool                 `json:"success"`
	CleanedContent string               `json:"cleanedContent"`
	Stats          cleaner.DatasetStats `json:"stats"`
}

type analyzeResponse struct {
	Success        bool                     `json:"success"`
	ColumnAnalysis []analysis.ColumnProfile `json:"columnAnalysis"`
	Charts         []charts.Chart           `json:"charts"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// bind decodes the body and rejects an empty csvData. It writes the error
// response itself and reports whether the handler should continue.
func (s *Server) bind(c *gin.Context) (DatasetRequest, bool) {
	var req DatasetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.logger.Warn("failed to bind request", zap.String("request_id", c.GetString("request_id")), zap.Error(err))
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			fail(c, http.StatusRequestEntityTooLarge, "Request body too large")
			return req, false
		}
		fail(c, http.StatusBadRequest, "Invalid request body")
		return req, false
	}
	if strings.TrimSpace(req.CSVData) == "" {
		fail(c, http.StatusBadRequest, "No CSV data provided")
		return req, false
	}
	return req, true
}

func (s *Server) dashboardInsights(c *gin.Context) {
	req, ok := s.bind(c)
	if !ok {
		return
	}
	fileName := req.FileName
	if fileName == "" {
		fileName = "dataset.csv"
	}
	res, err := s.builder.Build(c.Request.Context(), req.CSVData, fileName)
	if err != nil {
		if errors.Is(err, dashboard.ErrNoData) {
			fail(c, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.logger.Error("dashboard build failed", zap.String("request_id", c.GetString("request_id")), zap.Error(err))
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, dashboardResponse{
		Success:         true,
		ID:              res.ID,
		Dashboard:       res.Payload,
		ColumnAnalysis:  res.ColumnAnalysis,
		ChartCategories: res.ChartCategories,
		Fallback:        res.Fallback,
	})
}

func (s *Server) cleanDataset(c *gin.Context) {
	req, ok := s.bind(c)
	if !ok {
		return
	}
	res := cleaner.Clean(req.CSVData)
	c.JSON(http.StatusOK, cleanResponse{Success: true, CleanedContent: res.CleanedText, Stats: res.Stats})
}

func (s *Server) analyze(c *gin.Context) {
	req, ok := s.bind(c)
	if !ok {
		return
	}
	t := parser.Parse(req.CSVData)
	if len(t.Headers) == 0 {
		fail(c, http.StatusUnprocessableEntity, dashboard.ErrNoData.Error())
		return
	}
	profiles := analysis.Classify(t, s.builder.Classify)
	c.JSON(http.StatusOK, analyzeResponse{
		Success:        true,
		ColumnAnalysis: profiles,
		Charts:         charts.Generate(t, profiles, s.builder.Charts),
	})
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": msg})
}
