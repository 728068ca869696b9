package models

import "time"

// EventType enumerates the user actions recorded in the event log.
type EventType string

const (
	EventTypeLike          EventType = "like"
	EventTypeComment       EventType = "comment"
	EventTypeMention       EventType = "mention"
	EventTypeFollow        EventType = "follow"
	EventTypeFollowRequest EventType = "follow_request"
)

// Event is one append-only record of a user action. The UUID assigned at
// creation is the stable identity every derived notification points at.
// Rows are never updated; the only delete path is an explicit reversal
// (e.g. unlike), which also removes the derived notifications.
//
// TargetID is kind-dependent: a post ID for likes and mentions, a comment ID
// for comments, and the followed user's handle for follow events.
type Event struct {
	ID                string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	PerformerUserName string    `json:"performer_user_name" gorm:"size:64;index:idx_event_performer_target"`
	TargetID          string    `json:"target_id" gorm:"size:64;index:idx_event_performer_target"`
	Type              EventType `json:"type" gorm:"size:20"`
	CreatedAt         time.Time `json:"creation_date"`
}
