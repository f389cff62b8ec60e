package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/TokiACD/caretrack/pkg/core/model"
	"github.com/TokiACD/caretrack/pkg/core/services"
	"github.com/TokiACD/caretrack/pkg/db"
)

func (s *Server) listPackages(c *gin.Context) {
	packages, err := s.packages.ListPackages(c.Request.Context())
	if err != nil {
		s.respondError(c, "listPackages", err)
		return
	}
	c.JSON(http.StatusOK, packages)
}

func (s *Server) getPackage(c *gin.Context) {
	pkg, err := s.packages.GetPackage(c.Request.Context(), c.Param("packageId"))
	if err != nil {
		s.respondError(c, "getPackage", err)
		return
	}
	c.JSON(http.StatusOK, pkg)
}

func (s *Server) getWeeklySchedule(c *gin.Context) {
	weekStart, err := model.ParseDate(c.Query("weekStart"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "weekStart must be a YYYY-MM-DD date"})
		return
	}

	schedule, err := s.store.GetWeeklySchedule(c.Request.Context(), c.Param("packageId"), weekStart)
	if err != nil {
		s.respondError(c, "getWeeklySchedule", err)
		return
	}
	c.JSON(http.StatusOK, schedule)
}

func (s *Server) validateEntry(c *gin.Context) {
	var candidate model.ShiftEntry
	if err := c.ShouldBindJSON(&candidate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	result, err := s.store.ValidateEntry(c.Request.Context(), candidate)
	if err != nil {
		s.respondError(c, "validateEntry", err)
		return
	}
	s.metrics.ValidationDuration.Observe(time.Since(start).Seconds())
	s.countViolations(result.Violations)
	s.countViolations(result.Warnings)

	c.JSON(http.StatusOK, result)
}

func (s *Server) createEntry(c *gin.Context) {
	var candidate model.ShiftEntry
	if err := c.ShouldBindJSON(&candidate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.store.CreateEntry(c.Request.Context(), candidate)
	if err != nil {
		s.metrics.CommitOperations.WithLabelValues("create", outcomeOf(err)).Inc()
		s.respondError(c, "createEntry", err)
		return
	}
	s.metrics.CommitOperations.WithLabelValues("create", "success").Inc()
	s.countViolations(result.Warnings)

	s.audit.Record(c.Request.Context(), services.AuditEvent{
		EntityType: "rota_entry",
		EntityID:   result.Entry.ID,
		Action:     "created",
		After:      result.Entry,
		At:         time.Now().UTC(),
	})

	c.JSON(http.StatusCreated, result)
}

func (s *Server) confirmEntry(c *gin.Context) {
	entryID := c.Param("entryId")
	entry, err := s.store.ConfirmEntry(c.Request.Context(), entryID)
	if err != nil {
		s.metrics.CommitOperations.WithLabelValues("confirm", outcomeOf(err)).Inc()
		s.respondError(c, "confirmEntry", err)
		return
	}
	s.metrics.CommitOperations.WithLabelValues("confirm", "success").Inc()

	s.audit.Record(c.Request.Context(), services.AuditEvent{
		EntityType: "rota_entry",
		EntityID:   entry.ID,
		Action:     "confirmed",
		After:      entry,
		At:         time.Now().UTC(),
	})

	c.JSON(http.StatusOK, entry)
}

func (s *Server) deleteEntry(c *gin.Context) {
	entryID := c.Param("entryId")
	if err := s.store.DeleteEntry(c.Request.Context(), entryID); err != nil {
		s.metrics.CommitOperations.WithLabelValues("delete", outcomeOf(err)).Inc()
		s.respondError(c, "deleteEntry", err)
		return
	}
	s.metrics.CommitOperations.WithLabelValues("delete", "success").Inc()

	s.audit.Record(c.Request.Context(), services.AuditEvent{
		EntityType: "rota_entry",
		EntityID:   entryID,
		Action:     "deleted",
		At:         time.Now().UTC(),
	})

	c.Status(http.StatusNoContent)
}

type batchDeleteRequest struct {
	EntryIDs []string `json:"entryIds" binding:"required"`
}

func (s *Server) batchDeleteEntries(c *gin.Context) {
	var req batchDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.store.BatchDeleteEntries(c.Request.Context(), req.EntryIDs)
	if err != nil {
		s.metrics.CommitOperations.WithLabelValues("batch_delete", outcomeOf(err)).Inc()
		s.respondError(c, "batchDeleteEntries", err)
		return
	}
	s.metrics.CommitOperations.WithLabelValues("batch_delete", "success").Inc()

	s.audit.Record(c.Request.Context(), services.AuditEvent{
		EntityType: "rota_entry",
		EntityID:   "batch",
		Action:     "batch_deleted",
		After:      result,
		At:         time.Now().UTC(),
	})

	c.JSON(http.StatusOK, result)
}

// respondError maps boundary errors onto status codes. A rule refusal is a
// well-formed response, not a server failure.
func (s *Server) respondError(c *gin.Context, op string, err error) {
	if verr, ok := db.AsValidation(err); ok {
		for _, v := range verr.Violations {
			s.metrics.ViolationsRaised.WithLabelValues(string(v.Rule), string(v.Severity)).Inc()
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":      verr.Error(),
			"violations": verr.Violations,
			"warnings":   verr.Warnings,
		})
		return
	}

	var nfe *db.NotFoundError
	if errors.As(err, &nfe) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":    nfe.Error(),
			"resource": nfe.Resource,
			"id":       nfe.ID,
		})
		return
	}

	s.logger.Error("Request failed", zap.String("op", op), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func (s *Server) countViolations(violations []model.RuleViolation) {
	for _, v := range violations {
		s.metrics.ViolationsRaised.WithLabelValues(string(v.Rule), string(v.Severity)).Inc()
	}
}

func outcomeOf(err error) string {
	_, refused := db.AsValidation(err)
	switch {
	case refused:
		return "refused"
	case db.IsNotFound(err):
		return "conflict"
	case db.IsTransport(err):
		return "transport"
	default:
		return "error"
	}
}
