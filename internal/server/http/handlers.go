package httpserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mealscan/entitled/internal/model"
	"github.com/mealscan/entitled/internal/source"
)

// handleEntitlementGET resolves entitlement for the authenticated user.
func (s *Server) handleEntitlementGET(c *gin.Context) {
	id := identityFrom(c)
	status := s.gate.Resolve(c.Request.Context(), id)
	code := http.StatusOK
	if status == model.StatusUnauthenticated {
		code = http.StatusUnauthorized
	}
	c.JSON(code, gin.H{"status": status})
}

// handleRefreshPOST kicks off an asynchronous re-resolution.
func (s *Server) handleRefreshPOST(c *gin.Context) {
	id := identityFrom(c)
	if id.UserID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"status": model.StatusUnauthenticated})
		return
	}
	s.gate.Refresh(id)
	c.JSON(http.StatusAccepted, gin.H{"status": s.gate.Status(c.Request.Context(), id)})
}

// handleFeatureGET answers "can feature F be used now" from the local cache.
func (s *Server) handleFeatureGET(c *gin.Context) {
	id := identityFrom(c)
	if id.UserID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	f := model.Feature(c.Param("feature"))
	if !f.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown feature"})
		return
	}
	d := s.gate.Authorize(c.Request.Context(), id.UserID, f)
	resp := gin.H{"feature": f, "granted": d.Granted}
	if !d.Granted {
		resp["reason"] = d.Reason
	}
	c.JSON(http.StatusOK, resp)
}

// handleScanPOST authorizes one metered food scan, consuming quota for
// non-entitled users.
func (s *Server) handleScanPOST(c *gin.Context) {
	id := identityFrom(c)
	if id.UserID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	d := s.gate.AuthorizeScan(c.Request.Context(), id.UserID)
	if !d.Granted {
		c.JSON(http.StatusTooManyRequests, gin.H{"granted": false, "reason": d.Reason})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"granted":   true,
		"remaining": s.gate.RemainingScans(c.Request.Context(), id.UserID),
	})
}

// handleScansRemainingGET reports today's remaining quota (-1 = unlimited).
func (s *Server) handleScansRemainingGET(c *gin.Context) {
	id := identityFrom(c)
	if id.UserID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"remaining": s.gate.RemainingScans(c.Request.Context(), id.UserID)})
}

type grantRequest struct {
	UserID    string     `json:"user_id" binding:"required"`
	Granted   bool       `json:"granted"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// handleGrantPOST creates or replaces a manual grant.
func (s *Server) handleGrantPOST(c *gin.Context) {
	var req grantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	g := &model.ManualGrant{UserID: req.UserID, Granted: req.Granted, ExpiresAt: req.ExpiresAt}
	if err := s.grants.Upsert(c.Request.Context(), g); err != nil {
		s.log.Error("grant upsert failed", zap.String("user_id", req.UserID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "grant write failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": g.UserID, "granted": g.Granted, "expires_at": g.ExpiresAt})
}

// handleGrantDELETE removes the manual grant and revokes entitlement.
func (s *Server) handleGrantDELETE(c *gin.Context) {
	userID := c.Param("user_id")
	if err := s.grants.Delete(c.Request.Context(), userID); err != nil {
		s.log.Error("grant delete failed", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "grant delete failed"})
		return
	}
	if err := s.resolver.Revoke(c.Request.Context(), userID); err != nil {
		s.log.Error("revoke failed", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "revoke failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "revoked": true})
}

type testerRequest struct {
	UserID  string `json:"user_id" binding:"required"`
	Program string `json:"program"`
}

// handleTesterPOST invites a user into the beta program by writing the
// beta-tester document the resolver's cascade reads.
func (s *Server) handleTesterPOST(c *gin.Context) {
	var req testerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if req.Program == "" {
		req.Program = source.ProgramInternalTesting
	}
	now := time.Now()
	rec := &model.BetaRecord{
		UserID:    req.UserID,
		Active:    true,
		Program:   req.Program,
		InvitedAt: &now,
	}
	if err := s.betas.Invite(c.Request.Context(), rec); err != nil {
		s.log.Error("tester invite failed", zap.String("user_id", req.UserID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invite failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": rec.UserID, "program": rec.Program, "invited_at": rec.InvitedAt})
}
