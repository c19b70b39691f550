package handlers

import "net/http"

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users          UserStore
	Sessions       SessionManager
	Videos         VideoStore
	Recorder       EngagementRecorder
	Ratings        RatingReader
	Comments       CommentReader
	Feed           ActivityBuilder
	Mirror         MediaMirror
	AuthLimiter    RateLimiter
	MaxUploadBytes int64
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	auth := AuthHandler{Users: deps.Users, Sessions: deps.Sessions, Limiter: deps.AuthLimiter}
	videos := VideoHandler{
		Videos:         deps.Videos,
		Recorder:       deps.Recorder,
		Ratings:        deps.Ratings,
		Comments:       deps.Comments,
		Mirror:         deps.Mirror,
		Sessions:       deps.Sessions,
		MaxUploadBytes: deps.MaxUploadBytes,
	}
	engage := EngagementHandler{Recorder: deps.Recorder, Sessions: deps.Sessions}
	analytics := AnalyticsHandler{Videos: deps.Videos, Ratings: deps.Ratings}
	activity := ActivityHandler{Feed: deps.Feed, Sessions: deps.Sessions}

	mux.HandleFunc("/healthz", health.Handle)
	mux.HandleFunc("/api/v1/auth/register", auth.Register)
	mux.HandleFunc("/api/v1/auth/login", auth.Login)
	mux.HandleFunc("/api/v1/auth/refresh", auth.Refresh)
	mux.HandleFunc("/api/v1/auth/logout", auth.Logout)
	mux.HandleFunc("/api/v1/videos", videos.Collection)
	mux.HandleFunc("/api/v1/videos/{id}", videos.Item)
	mux.HandleFunc("/api/v1/videos/{id}/media", videos.Media)
	mux.HandleFunc("/api/v1/videos/{id}/thumbnail", videos.Thumbnail)
	mux.HandleFunc("/api/v1/videos/{id}/reactions", engage.React)
	mux.HandleFunc("/api/v1/videos/{id}/rating", engage.Rate)
	mux.HandleFunc("/api/v1/videos/{id}/views", engage.View)
	mux.HandleFunc("/api/v1/videos/{id}/comments", engage.Comment)
	mux.HandleFunc("/api/v1/analytics", analytics.Handle)
	mux.HandleFunc("/api/v1/activity", activity.Handle)
}
