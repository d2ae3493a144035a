// internal/api/handlers/restock_handler.go
package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Haffner32/hackathon-restock-ai/internal/domain"
	"github.com/Haffner32/hackathon-restock-ai/internal/service"
	"github.com/gin-gonic/gin"
)

type RestockHandler struct {
	service *service.RestockService
}

func NewRestockHandler(service *service.RestockService) *RestockHandler {
	return &RestockHandler{service: service}
}

// Upload ingests a stock-log CSV. Schema problems come back as 422 with
// the missing column names so the sheet owner can fix the header.
func (h *RestockHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field in multipart form"})
		return
	}
	defer file.Close()

	summary, err := h.service.IngestTable(c.Request.Context(), file, filepath.Base(header.Filename))
	if err != nil {
		var schemaErr *domain.SchemaError
		if errors.As(err, &schemaErr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":           "invalid sheet schema",
				"missing_columns": schemaErr.Missing,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to ingest file", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *RestockHandler) ListItems(c *gin.Context) {
	items, err := h.service.ListItems(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list items", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GetRecommendation returns just the decision for an item.
func (h *RestockHandler) GetRecommendation(c *gin.Context) {
	analysis, ok := h.analyze(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"decision":  analysis.Decision,
		"rationale": analysis.Decision.Rationale(),
	})
}

// GetAnalysis returns the decision plus the cleaned history and fitted
// future series for charting.
func (h *RestockHandler) GetAnalysis(c *gin.Context) {
	analysis, ok := h.analyze(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, analysis)
}

func (h *RestockHandler) analyze(c *gin.Context) (*domain.ItemAnalysis, bool) {
	itemID := c.Param("item")

	analysis, err := h.service.Analyze(c.Request.Context(), itemID)
	if err != nil {
		var insufficientErr *domain.InsufficientDataError
		var fitErr *domain.ForecastFitError
		switch {
		case errors.As(err, &insufficientErr):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "not enough history to forecast",
				"item_id": insufficientErr.ItemID,
				"points":  insufficientErr.Points,
			})
		case errors.As(err, &fitErr):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "model fit failed",
				"item_id": fitErr.ItemID,
				"model":   fitErr.Model,
				"details": fitErr.Err.Error(),
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed", "details": err.Error()})
		}
		return nil, false
	}
	return analysis, true
}

// GetLatestDecision returns the most recently recorded decision without
// re-running the engine. 404 until the item has been analyzed at least once.
func (h *RestockHandler) GetLatestDecision(c *gin.Context) {
	itemID := c.Param("item")

	decision, err := h.service.LatestDecision(c.Request.Context(), itemID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch latest decision", "details": err.Error()})
		return
	}
	if decision == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no decision recorded for item", "item_id": itemID})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"decision":  decision,
		"rationale": decision.Rationale(),
	})
}

func (h *RestockHandler) GetDecisionHistory(c *gin.Context) {
	itemID := c.Param("item")

	days, _ := strconv.Atoi(c.DefaultQuery("days", "90"))
	if days <= 0 {
		days = 90
	}
	since := time.Now().AddDate(0, 0, -days)

	history, err := h.service.DecisionHistory(c.Request.Context(), itemID, since)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch decision history", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"item_id": itemID, "decisions": history})
}

// AnalyzeAll runs every stored item through the engine. Items fail
// independently; failures are reported per item, never aborting the batch.
func (h *RestockHandler) AnalyzeAll(c *gin.Context) {
	results, err := h.service.AnalyzeAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "batch analysis failed", "details": err.Error()})
		return
	}

	type itemResult struct {
		ItemID   string                  `json:"item_id"`
		Decision *domain.RestockDecision `json:"decision,omitempty"`
		Error    string                  `json:"error,omitempty"`
	}

	out := make([]itemResult, 0, len(results))
	for _, res := range results {
		r := itemResult{ItemID: res.ItemID}
		if res.Err != nil {
			r.Error = res.Err.Error()
		} else if res.Analysis != nil {
			d := res.Analysis.Decision
			r.Decision = &d
		}
		out = append(out, r)
	}

	c.JSON(http.StatusOK, gin.H{"results": out})
}
