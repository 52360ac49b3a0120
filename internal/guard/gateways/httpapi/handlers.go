package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/haukened/phishguard/internal/guard/domain"
	"github.com/haukened/phishguard/internal/guard/repos/history"
	"github.com/haukened/phishguard/internal/guard/score"
	"github.com/haukened/phishguard/internal/guard/services/router"
	"github.com/haukened/phishguard/internal/guard/snapshot"
)

// errorBody is the uniform error response shape.
type errorBody struct {
	Error string `json:"error"`
}

// handleHealth reports liveness and the current rule count.
func (s *Server) handleHealth(c *gin.Context) {
	installedRules.Set(float64(s.engine.Len()))
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"rules":  s.engine.Len(),
	})
}

// handleMessage is the protocol endpoint: one envelope in, one typed
// response out. Unknown kinds produce the unsupported_request error token.
func (s *Server) handleMessage(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "unreadable body"})
		return
	}

	req, err := domain.DecodeRequest(body)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedRequest) {
			c.JSON(http.StatusBadRequest, errorBody{Error: "unsupported_request"})
			return
		}
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	resp, err := s.router.Dispatch(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedRequest) {
			c.JSON(http.StatusBadRequest, errorBody{Error: "unsupported_request"})
			return
		}
		if errors.Is(err, domain.ErrInvalidDomain) {
			c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}
		s.logger.Error(map[string]any{"kind": req.Kind(), "error": err}, "message dispatch failed")
		c.JSON(http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

type navigationRequest struct {
	URL        string `json:"url" binding:"required"`
	TabID      string `json:"tabId"`
	FrameDepth int    `json:"frameDepth"`
}

// handleNavigation runs the pre-navigation early-warning flow.
func (s *Server) handleNavigation(c *gin.Context) {
	var req navigationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	res := s.early.Evaluate(c.Request.Context(), req.URL, req.TabID, req.FrameDepth)
	switch {
	case res.Blocked:
		earlyWarningsTotal.WithLabelValues("blocked").Inc()
	case res.Notified:
		earlyWarningsTotal.WithLabelValues("notified").Inc()
	default:
		earlyWarningsTotal.WithLabelValues("ok").Inc()
	}

	c.JSON(http.StatusOK, gin.H{
		"score":    res.Estimate.Score,
		"host":     res.Estimate.Host,
		"domain":   res.Estimate.Domain,
		"blocked":  res.Blocked,
		"notified": res.Notified,
	})
}

type scoreRequest struct {
	URL  string `json:"url" binding:"required"`
	HTML string `json:"html"`
}

type scoreResponse struct {
	Report domain.RiskReport `json:"report"`
	Action domain.Action     `json:"action"`
}

// handleScore builds a snapshot from submitted HTML, scores it, and routes
// the report through the message router so the verdict and the history
// entry match what a page context would have received.
func (s *Server) handleScore(c *gin.Context) {
	var req scoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	resp, err := s.scoreOne(c, req)
	if err != nil {
		s.logger.Error(map[string]any{"url": req.URL, "error": err}, "scoring failed")
		c.JSON(http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

type scoreBatchRequest struct {
	Pages []scoreRequest `json:"pages" binding:"required"`
}

// handleScoreBatch scores a batch of pages in request order.
func (s *Server) handleScoreBatch(c *gin.Context) {
	var req scoreBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	results := make([]scoreResponse, 0, len(req.Pages))
	for _, page := range req.Pages {
		resp, err := s.scoreOne(c, page)
		if err != nil {
			s.logger.Error(map[string]any{"url": page.URL, "error": err}, "scoring failed")
			c.JSON(http.StatusInternalServerError, errorBody{Error: err.Error()})
			return
		}
		results = append(results, resp)
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (s *Server) scoreOne(c *gin.Context, req scoreRequest) (scoreResponse, error) {
	snap := snapshot.Parse(req.HTML, req.URL)
	report := score.Score(snap, req.URL)

	resp, err := s.router.Dispatch(c.Request.Context(), domain.RiskReportRequest{
		URL:      req.URL,
		Score:    report.Score,
		Findings: report.Findings,
		Host:     report.Host,
		Domain:   report.Domain,
	})
	if err != nil {
		return scoreResponse{}, err
	}
	verdict := resp.(router.VerdictResponse)
	evaluationsTotal.WithLabelValues(verdict.Action.String()).Inc()
	return scoreResponse{Report: report, Action: verdict.Action}, nil
}

// handleHistory returns recent evaluations, newest first.
func (s *Server) handleHistory(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, errorBody{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}
	if limit > historyMaxLimit {
		limit = historyMaxLimit
	}

	entries, err := s.history.Recent(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error(map[string]any{"error": err}, "history query failed")
		c.JSON(http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
