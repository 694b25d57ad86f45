package httpapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"chanlytics/internal/audit"
	"chanlytics/internal/auth"
	"chanlytics/internal/billing"
	"chanlytics/internal/dashboard"
	"chanlytics/internal/detail"
	"chanlytics/internal/export"
	"chanlytics/internal/source"
	"chanlytics/internal/table"
	"chanlytics/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth       *auth.Context
	Dashboard  *dashboard.Service
	Downloader *detail.Downloader
	Billing    *billing.Service
	Audit      *audit.Service

	// Clock stamps export filenames; nil means time.Now.
	Clock func() time.Time

	// DBCheck, when set, is probed by the health endpoint.
	DBCheck func(ctx context.Context) error
}

func (h Handlers) now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now()
}

// session returns the session injected by auth.RequireSession.
func session(c *gin.Context) (auth.Session, bool) {
	s, ok := auth.SessionFrom(c.Request.Context())
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated", "redirect": auth.LoginPath})
	}
	return s, ok
}

func (h Handlers) record(c *gin.Context, userID string, t audit.EventType, callID string) {
	h.Audit.Record(c.Request.Context(), audit.Event{
		UserID:    userID,
		Type:      t,
		IPAddress: c.ClientIP(),
		CallID:    callID,
	})
}

// --- Health ---

func (h Handlers) Health(c *gin.Context) {
	ready := h.Auth != nil && h.Auth.Ready()
	if h.DBCheck != nil {
		if err := h.DBCheck(c.Request.Context()); err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "auth_ready": ready, "db": "unreachable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "auth_ready": ready})
}

// --- Auth ---

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges email and password for a token pair. A rejected password
// is reported inline with the provider's message.
func (h Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	pair, sess, err := h.Auth.SignInWithPassword(c.Request.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrMissingInput):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "email and password required"})
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": credentialsMessage(err)})
		return
	case err != nil:
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "sign in failed"})
		return
	}
	h.record(c, sess.User.ID, audit.EventSignIn, "")
	c.JSON(http.StatusOK, gin.H{
		"access_token":       pair.AccessToken,
		"refresh_token":      pair.RefreshToken,
		"access_expires_at":  pair.AccessExpiresAt,
		"refresh_expires_at": pair.RefreshExpiresAt,
		"user":               profile(sess.User),
	})
}

func credentialsMessage(err error) string {
	var pe *auth.ProviderError
	if errors.As(err, &pe) && pe.Message != "" {
		return pe.Message
	}
	return "Invalid login credentials"
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h Handlers) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "refresh_token required"})
		return
	}
	pair, err := h.Auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrNotAuthenticated) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated", "redirect": auth.LoginPath})
			return
		}
		_ = c.Error(err)
		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "session store unavailable"})
		return
	}
	c.JSON(http.StatusOK, pair)
}

// Logout ends the session and drops its dashboard workspace.
func (h Handlers) Logout(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	if h.Dashboard != nil {
		h.Dashboard.Forget(sess.ID)
	}
	if err := h.Auth.SignOut(c.Request.Context(), sess.ID); err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "sign out failed"})
		return
	}
	h.record(c, sess.User.ID, audit.EventSignOut, "")
	c.Status(http.StatusNoContent)
}

// --- Profile ---

func profile(u auth.User) gin.H {
	return gin.H{
		"id":           u.ID,
		"email":        u.Email,
		"company_name": u.CompanyName,
		"display_name": u.DisplayName(),
		"initials":     u.Initials(),
	}
}

func (h Handlers) Me(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	u, err := h.Auth.User(c.Request.Context(), sess.ID)
	if err != nil {
		h.authError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile(u))
}

// Activity lists the signed-in user's recent account events.
func (h Handlers) Activity(c *gin.Context) {
	userID, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated", "redirect": auth.LoginPath})
		return
	}
	if h.Audit == nil {
		c.JSON(http.StatusOK, gin.H{"events": []audit.Event{}})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
		return
	}
	events, err := h.Audit.List(c.Request.Context(), userID, limit)
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "activity unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

type companyRequest struct {
	CompanyName string `json:"company_name"`
}

// UpdateCompany stores the company name in the provider's user metadata.
func (h Handlers) UpdateCompany(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	var req companyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	u, err := h.Auth.UpdateUserCompanyName(c.Request.Context(), sess.ID, req.CompanyName)
	if err != nil {
		if errors.Is(err, auth.ErrNotAuthenticated) {
			h.authError(c, err)
			return
		}
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "could not update company name"})
		return
	}
	h.record(c, u.ID, audit.EventCompanyUpdated, "")
	c.JSON(http.StatusOK, profile(u))
}

func (h Handlers) authError(c *gin.Context, err error) {
	if errors.Is(err, auth.ErrNotAuthenticated) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated", "redirect": auth.LoginPath})
		return
	}
	_ = c.Error(err)
	c.Header("Retry-After", "1")
	c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "session store unavailable"})
}

// --- Dashboard ---

func (h Handlers) GetDashboard(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	ov, err := h.Dashboard.Overview(c.Request.Context(), sess.ID, sess.ProviderAccessToken)
	if err != nil {
		h.dashboardError(c, err)
		return
	}
	c.JSON(http.StatusOK, ov)
}

func (h Handlers) ListCalls(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	v, err := h.Dashboard.Table(c.Request.Context(), sess.ID, sess.ProviderAccessToken)
	if err != nil {
		h.dashboardError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// UpdateView applies a batch of table events and returns the new table.
func (h Handlers) UpdateView(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	var e table.Event
	if err := c.ShouldBindJSON(&e); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	v, out, err := h.Dashboard.Apply(c.Request.Context(), sess.ID, sess.ProviderAccessToken, e)
	if err != nil {
		h.dashboardError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"table": v, "outcome": out})
}

func (h Handlers) CallDetail(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	d, err := h.Dashboard.Detail(c.Request.Context(), sess.ID, sess.ProviderAccessToken, c.Param("id"))
	if err != nil {
		h.dashboardError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// Recording streams the call recording as an attachment.
func (h Handlers) Recording(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	r, err := h.Dashboard.Record(ctx, sess.ID, sess.ProviderAccessToken, c.Param("id"))
	if err != nil {
		h.dashboardError(c, err)
		return
	}
	rec, ok, err := h.Downloader.Download(ctx, r)
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "recording download failed"})
		return
	}
	defer rec.Close()
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": detail.NoRecordingMessage})
		return
	}
	h.record(c, sess.User.ID, audit.EventRecordingDownloaded, r.ID)
	c.DataFromReader(http.StatusOK, rec.ContentLength, rec.ContentType, rec.Body, map[string]string{
		"Content-Disposition": attachment(rec.Filename),
	})
}

// Export writes the rows currently shown in the table as XLSX.
func (h Handlers) Export(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	rows, cols, err := h.Dashboard.Rows(c.Request.Context(), sess.ID, sess.ProviderAccessToken)
	if err != nil {
		h.dashboardError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, rows, cols, h.Dashboard.Location()); err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	h.record(c, sess.User.ID, audit.EventExported, "")
	c.Header("Content-Disposition", attachment(export.Filename(h.now(), h.Dashboard.Location())))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

func (h Handlers) dashboardError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, dashboard.ErrCallNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "call not found"})
	default:
		_ = c.Error(err)
		logger.FromGin(c).Error("dashboard request failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "dashboard unavailable"})
	}
}

// --- Billing ---

func (h Handlers) GetBilling(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	ctx := source.WithAccessToken(c.Request.Context(), sess.ProviderAccessToken)
	c.JSON(http.StatusOK, h.Billing.Estimate(ctx))
}

func attachment(filename string) string {
	return fmt.Sprintf("attachment; filename=%q", filename)
}
