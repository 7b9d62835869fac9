package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"phonebank-training/internal/analysis"
	"phonebank-training/internal/auth"
	"phonebank-training/internal/calls"
	"phonebank-training/internal/practice"
	"phonebank-training/internal/recordings"
	"phonebank-training/internal/reporting"
	"phonebank-training/internal/voters"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth       *auth.Manager
	Sessions   *calls.Service
	Practice   *practice.Flow
	Recordings *recordings.Resolver
	Progress   *reporting.Service
	Voters     voters.Store
}

// --- Public ---

func (h Handlers) ListVoterProfiles(c *gin.Context) {
	profiles := h.Voters.List()
	if d := strings.ToLower(strings.TrimSpace(c.Query("difficulty"))); d != "" {
		filtered := make([]voters.Profile, 0, len(profiles))
		for _, p := range profiles {
			if string(p.Difficulty) == d {
				filtered = append(filtered, p)
			}
		}
		profiles = filtered
	}
	c.JSON(http.StatusOK, gin.H{"voter_profiles": profiles})
}

// --- Auth ---

type tokenRequest struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// IssueToken mints a token pair for a user id. It sits behind the service
// API key; the calling app has already authenticated the volunteer.
func (h Handlers) IssueToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	profile, err := h.Sessions.EnsureUserProfile(c.Request.Context(), req.UserID, req.DisplayName)
	if err != nil {
		writeError(c, err)
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), profile.ID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h Handlers) RefreshToken(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "refresh_token required"})
		return
	}
	pair, err := h.Auth.Refresh(req.RefreshToken, time.Now())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	c.JSON(http.StatusOK, pair)
}

// --- Me ---

type profileRequest struct {
	DisplayName string `json:"display_name"`
}

func (h Handlers) UpdateProfile(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	p, err := h.Sessions.EnsureUserProfile(c.Request.Context(), uid, req.DisplayName)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type progressResponse struct {
	reporting.Progress
	Distribution reporting.Distribution `json:"distribution"`
	Level        reporting.Level        `json:"level,omitempty"`
}

func (h Handlers) GetProgress(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	p, err := h.Progress.UserProgress(c.Request.Context(), uid)
	if err != nil {
		writeError(c, err)
		return
	}
	level, _ := p.Level()
	c.JSON(http.StatusOK, progressResponse{Progress: p, Distribution: p.Distribution(), Level: level})
}

// --- Sessions ---

type startSessionRequest struct {
	VoterProfileID string `json:"voter_profile_id"`
	ExternalCallID string `json:"external_call_id"`
}

func (h Handlers) StartSession(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	s, err := h.Practice.Start(c.Request.Context(), uid, req.VoterProfileID, req.ExternalCallID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

func (h Handlers) ListSessions(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	status, err := calls.ParseStatus(c.Query("status"))
	if err != nil {
		writeError(c, err)
		return
	}
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		limit = n
	}

	sessions, err := h.Sessions.ListSessions(c.Request.Context(), calls.ListFilter{UserID: uid, Status: status, Limit: limit})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

type sessionDetail struct {
	Session      calls.CallSession         `json:"session"`
	Metrics      *calls.PerformanceMetrics `json:"metrics,omitempty"`
	CoachingTips []string                  `json:"coaching_tips,omitempty"`
}

func (h Handlers) GetSession(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.Practice.Session(ctx, uid, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	s, m, err := h.Sessions.GetSessionDetail(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	out := sessionDetail{Session: s, Metrics: m}
	if m != nil {
		out.CoachingTips = analysis.CoachingTips(*m)
	}
	c.JSON(http.StatusOK, out)
}

type endSessionRequest struct {
	EndTime        *time.Time `json:"end_time"`
	Duration       *int       `json:"duration"`
	Transcript     string     `json:"transcript"`
	Status         string     `json:"status"`
	ExternalCallID string     `json:"external_call_id"`
}

func (h Handlers) EndSession(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var req endSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	status, err := calls.ParseStatus(req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	p := practice.EndCallParams{
		Duration:       req.Duration,
		Transcript:     calls.ParseTranscript(req.Transcript),
		Status:         status,
		ExternalCallID: req.ExternalCallID,
	}
	if req.EndTime != nil {
		p.EndTime = *req.EndTime
	}

	report, err := h.Practice.End(c.Request.Context(), uid, c.Param("id"), p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h Handlers) GetRecording(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.Practice.Session(ctx, uid, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	res, err := h.Recordings.Resolve(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if res.Kind == recordings.KindNotFound {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, res)
}

func userID(c *gin.Context) (string, bool) {
	uid, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_id required"})
		return "", false
	}
	return uid, true
}
