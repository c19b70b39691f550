package models

import "time"

// User represents an account on the CGI GRAM platform. Usernames are
// case-sensitive and never change after registration.
type User struct {
	Username  string
	Password  string
	CreatedAt time.Time
}

// Video is an uploaded clip together with its derived engagement counters.
// Media and Thumbnail hold the raw payloads; listing queries leave them nil.
type Video struct {
	ID          string
	Title       string
	Description string
	Media       []byte
	Thumbnail   []byte
	Uploader    string
	Views       int64
	Likes       int64
	Dislikes    int64
	Hearts      int64
	Rating      float64
	AssetURL    string
	CreatedAt   time.Time
	ModifiedAt  time.Time
}

// Reaction kinds. A user holds at most one of like/dislike per video;
// heart is independent.
const (
	ReactionLike    = "like"
	ReactionDislike = "dislike"
	ReactionHeart   = "heart"
)

// Reaction is a (video, user, kind) mark.
type Reaction struct {
	VideoID  string
	Username string
	Kind     string
}

// Rating is a star value in [1,5] unique per (video, user); a new
// submission replaces the previous one.
type Rating struct {
	VideoID  string
	Username string
	Value    int
}

// RatingSummary is the live aggregate over a video's rating rows.
type RatingSummary struct {
	Count   int64
	Average float64
}

// Comment is free text posted against a video. IDs come from a store
// sequence and are monotonically increasing.
type Comment struct {
	ID        int64
	VideoID   string
	Username  string
	Body      string
	CreatedAt time.Time
}

// View marks that a user has watched a video. At most one row exists per
// (video, user) pair.
type View struct {
	VideoID  string
	Username string
}

// DeletionRecord archives identifying fields of a deleted video. It is
// written once and outlives the video it describes.
type DeletionRecord struct {
	VideoID     string
	Title       string
	Uploader    string
	DeletedBy   string
	Description string
	DeletedAt   time.Time
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
