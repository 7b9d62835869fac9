package httpapi

import (
	"github.com/gin-gonic/gin"
)

// Middleware is the set of guards the route table needs.
type Middleware struct {
	// APIKey guards service-to-service endpoints.
	APIKey gin.HandlerFunc
	// Issuer guards token minting and must refuse when no key is set.
	Issuer gin.HandlerFunc
	// Access requires a bearer access token.
	Access gin.HandlerFunc
}

// Register mounts the REST surface. Keep this free of business logic.
func Register(r gin.IRouter, h Handlers, mw Middleware) {
	r.GET("/voter-profiles", h.ListVoterProfiles)

	v1 := r.Group("/v1")

	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/token", mw.Issuer, h.IssueToken)
		authGroup.POST("/refresh", h.RefreshToken)
	}

	me := v1.Group("/me", mw.Access)
	{
		me.PUT("/profile", h.UpdateProfile)
		me.GET("/progress", h.GetProgress)
	}

	sessions := v1.Group("/sessions", mw.Access)
	{
		sessions.POST("", h.StartSession)
		sessions.GET("", h.ListSessions)
		sessions.GET("/:id", h.GetSession)
		sessions.POST("/:id/end", h.EndSession)
		sessions.GET("/:id/recording", h.GetRecording)
	}
}
