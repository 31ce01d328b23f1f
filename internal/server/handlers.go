package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/meridian-crm/meridian/internal/common"
	"github.com/meridian-crm/meridian/internal/model"
	"github.com/meridian-crm/meridian/internal/segment"
)

// serverError mirrors the store-failure contract: a generic 500 carrying the
// underlying message. Not-found conditions are not distinguished from empty
// results anywhere below.
func serverError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// parseDate accepts RFC 3339 timestamps or bare dates from query strings.
func parseDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}

func intQuery(c *gin.Context, key string, fallback int) int {
	if v, err := strconv.Atoi(c.Query(key)); err == nil {
		return v
	}
	return fallback
}

// --- auth ---

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	admin, err := s.storage.GetAdminByEmail(c.Request.Context(), req.Email)
	if errors.Is(err, common.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": common.ErrInvalidCredentials.Error()})
		return
	}
	if err != nil {
		serverError(c, err)
		return
	}

	// Plain comparison; credential hardening is out of scope.
	if admin.PasswordHash != req.Password {
		c.JSON(http.StatusUnauthorized, gin.H{"error": common.ErrInvalidCredentials.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": uuid.NewString(),
		"user":  gin.H{"email": admin.Email, "id": admin.ID},
	})
}

// --- analytics ---

func (s *Server) handleDashboard(c *gin.Context) {
	dash, err := s.analytics.Dashboard(c.Request.Context(), parseDate(c.Query("from")), parseDate(c.Query("to")))
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

func (s *Server) handleFunnel(c *gin.Context) {
	steps, err := s.analytics.Funnel(c.Request.Context(), parseDate(c.Query("from")), parseDate(c.Query("to")))
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, steps)
}

func (s *Server) handleCohorts(c *gin.Context) {
	cohorts, err := s.analytics.Cohorts(c.Request.Context())
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cohorts": cohorts})
}

func (s *Server) handleRetention(c *gin.Context) {
	retention, err := s.analytics.Retention(c.Request.Context(), c.Query("cohort_month"), intQuery(c, "window", 30))
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, retention)
}

// --- segments ---

type previewRequest struct {
	Filters []model.SegmentFilter `json:"filters"`
}

func (s *Server) handleSegmentPreview(c *gin.Context) {
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	preview, err := s.segments.Preview(c.Request.Context(), req.Filters)
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

func (s *Server) handleListSegments(c *gin.Context) {
	segments, err := s.storage.ListSegments(c.Request.Context())
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, segments)
}

func (s *Server) handleCreateSegment(c *gin.Context) {
	var seg model.Segment
	if err := c.ShouldBindJSON(&seg); err != nil {
		badRequest(c, err)
		return
	}

	// Saved definitions are validated strictly; only previews tolerate
	// unsupported filters.
	if err := segment.Validate(seg.Filters); err != nil {
		badRequest(c, err)
		return
	}

	if err := s.storage.CreateSegment(c.Request.Context(), &seg); err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, seg)
}

func (s *Server) handleDeleteSegment(c *gin.Context) {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	if err := s.storage.DeleteSegment(c.Request.Context(), id); err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// --- lifecycle ---

func (s *Server) handleLifecycleRefresh(c *gin.Context) {
	if _, err := s.recalculator.RecalculateAll(c.Request.Context()); err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleLifecycleHistory(c *gin.Context) {
	records, err := s.crm.GetLifecycleHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		serverError(c, err)
		return
	}
	if records == nil {
		records = []model.LifecycleHistoryRecord{}
	}
	c.JSON(http.StatusOK, records)
}

// --- users ---

func (s *Server) handleListUsers(c *gin.Context) {
	users, err := s.crm.ListUsers(c.Request.Context(), intQuery(c, "page", 1), intQuery(c, "limit", 50), c.Query("search"))
	if err != nil {
		serverError(c, err)
		return
	}
	if users == nil {
		users = []model.User{}
	}
	c.JSON(http.StatusOK, users)
}

func (s *Server) handleCreateUser(c *gin.Context) {
	var user model.User
	if err := c.ShouldBindJSON(&user); err != nil {
		badRequest(c, err)
		return
	}

	events, err := s.crm.CreateUser(c.Request.Context(), &user)
	if err != nil {
		serverError(c, err)
		return
	}

	// The write has committed; rule evaluation happens on its own terms.
	s.dispatcher.Dispatch(c.Request.Context(), events)

	c.JSON(http.StatusOK, user)
}

func (s *Server) handleUpdateUser(c *gin.Context) {
	var user model.User
	if err := c.ShouldBindJSON(&user); err != nil {
		badRequest(c, err)
		return
	}
	user.ID = c.Param("id")

	if err := s.crm.UpdateUser(c.Request.Context(), &user); err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) handleDeleteUser(c *gin.Context) {
	if err := s.crm.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// --- orders ---

func (s *Server) handleListOrders(c *gin.Context) {
	orders, err := s.crm.ListOrders(c.Request.Context(), intQuery(c, "page", 1), intQuery(c, "limit", 50))
	if err != nil {
		serverError(c, err)
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}
	c.JSON(http.StatusOK, orders)
}

func (s *Server) handleCreateOrder(c *gin.Context) {
	var order model.Order
	if err := c.ShouldBindJSON(&order); err != nil {
		badRequest(c, err)
		return
	}

	events, err := s.crm.CreateOrder(c.Request.Context(), &order)
	if err != nil {
		serverError(c, err)
		return
	}

	s.dispatcher.Dispatch(c.Request.Context(), events)

	c.JSON(http.StatusOK, order)
}

func (s *Server) handleDeleteOrder(c *gin.Context) {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	if err := s.crm.DeleteOrder(c.Request.Context(), id); err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// --- automations ---

func (s *Server) handleListAutomations(c *gin.Context) {
	rules, err := s.storage.ListAutomations(c.Request.Context())
	if err != nil {
		serverError(c, err)
		return
	}
	if rules == nil {
		rules = []model.AutomationRule{}
	}
	c.JSON(http.StatusOK, rules)
}

func (s *Server) handleCreateAutomation(c *gin.Context) {
	var rule model.AutomationRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		badRequest(c, err)
		return
	}

	// Creating or deleting rules never triggers evaluation; only user and
	// order writes do.
	if err := s.storage.CreateAutomation(c.Request.Context(), &rule); err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

func (s *Server) handleDeleteAutomation(c *gin.Context) {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	if err := s.storage.DeleteAutomation(c.Request.Context(), id); err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
