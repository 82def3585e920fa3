package models

// NotificationEvent is pushed to the recipient's realtime connections when someone
// comments on or reacts to one of their posts
type NotificationEvent struct {
	Type      string      `json:"type"` // "comment" or "reaction"
	Message   string      `json:"message"`
	Link      string      `json:"link"`
	Sender    UserProfile `json:"sender"`
	Reaction  string      `json:"reaction,omitempty"`
	Timestamp int64       `json:"timestamp"` // unix milliseconds
}

// PostUpdatedEvent is broadcast to every connection after a post update is persisted
type PostUpdatedEvent struct {
	PostID      string `json:"postId"`
	UpdatedPost *Post  `json:"updatedPost"`
}
