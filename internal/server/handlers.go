package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"valuation-lab/internal/config"
	"valuation-lab/internal/correlation"
	"valuation-lab/internal/distribution"
	"valuation-lab/internal/domain"
	"valuation-lab/internal/reporting"
	"valuation-lab/internal/simulation"
	"valuation-lab/internal/storage"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleSubmit(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	job, err := config.ParseJobJSON(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub, err := s.svc.Submit(c.Request.Context(), job)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"id": sub.ID, "cached": sub.Cached})
}

func (s *Server) handleList(c *gin.Context) {
	formula := domain.Formula(strings.ToUpper(c.Query("formula")))
	runs, err := s.svc.List(c.Request.Context(), formula)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	if runs == nil {
		runs = []*domain.SimulationResult{}
	}
	c.JSON(http.StatusOK, runs)
}

func (s *Server) handleStatus(c *gin.Context) {
	view, err := s.svc.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleStop(c *gin.Context) {
	if err := s.svc.Stop(c.Param("id")); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"id": c.Param("id"), "status": domain.StatusCancelled})
}

func (s *Server) handleOutcomes(c *gin.Context) {
	outcomes, err := s.svc.Outcomes(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	if outcomes == nil {
		outcomes = []*domain.ScenarioOutcome{}
	}
	c.JSON(http.StatusOK, outcomes)
}

func (s *Server) handleReport(c *gin.Context) {
	formula := domain.Formula(strings.ToUpper(c.Query("formula")))
	rep, err := s.svc.Report(c.Request.Context(), formula)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	format := c.DefaultQuery("format", "json")
	switch format {
	case "markdown", "md":
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(reporting.RenderMarkdown(rep)))
	case "csv":
		c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(reporting.RenderCSV(rep.Runs)))
	case "json":
		c.JSON(http.StatusOK, rep)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown format " + format})
		return
	}
	if s.metrics != nil {
		s.metrics.RecordReport(format)
	}
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, simulation.ErrUnknownSimulation):
		return http.StatusNotFound
	case errors.Is(err, config.ErrInvalidJob),
		errors.Is(err, simulation.ErrInvalidConfig),
		errors.Is(err, distribution.ErrInvalidParameters),
		errors.Is(err, correlation.ErrInvalidMatrix),
		errors.Is(err, correlation.ErrNonPositiveDefiniteMatrix),
		errors.Is(err, storage.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
