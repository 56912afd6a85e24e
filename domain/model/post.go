package model

import "time"

// PostStatus is the lifecycle state of a scheduled cross-post.
type PostStatus string

const (
	PostStatusPending    PostStatus = "PENDING"
	PostStatusScheduled  PostStatus = "SCHEDULED"
	PostStatusPublishing PostStatus = "PUBLISHING"
	PostStatusPublished  PostStatus = "PUBLISHED"
	PostStatusFailed     PostStatus = "FAILED"
)

// Terminal reports whether no further transition is allowed from s.
func (s PostStatus) Terminal() bool {
	return s == PostStatusPublished || s == PostStatusFailed
}

// Post is one scheduled cross-post of one video to one social account.
// Status moves strictly forward; once PUBLISHING the post must carry the
// in-flight platform publish id.
type Post struct {
	ID             int64      `json:"id"`
	VideoID        string     `json:"video_id"`
	Platform       string     `json:"platform"`
	AccountID      int64      `json:"account_id"` // social account row id
	Status         PostStatus `json:"status"`
	ScheduledFor   *time.Time `json:"scheduled_for,omitempty"`
	PublishID      *string    `json:"publish_id,omitempty"`
	PlatformPostID *string    `json:"platform_post_id,omitempty"`
	FailReason     *string    `json:"fail_reason,omitempty"`
	PostedAt       *time.Time `json:"posted_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// PostStateFields carries the optional columns written together with a status
// transition. Nil fields are left untouched.
type PostStateFields struct {
	PublishID      *string
	PlatformPostID *string
	FailReason     *string
	PostedAt       *time.Time
}

// PostEvent is emitted on every terminal post transition.
type PostEvent struct {
	PostID         int64      `json:"post_id"`
	VideoID        string     `json:"video_id"`
	Platform       string     `json:"platform"`
	Status         PostStatus `json:"status"`
	PlatformPostID *string    `json:"platform_post_id,omitempty"`
	FailReason     *string    `json:"fail_reason,omitempty"`
	OccurredAt     time.Time  `json:"occurred_at"`
}
