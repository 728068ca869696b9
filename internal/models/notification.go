package models

import "time"

// Notification is one (event, recipient) pair (PostgreSQL). IsMine is true
// only for the single primary recipient of an event; followers receiving a
// feed-style copy get IsMine=false. Rows are created by fan-out, mutated
// only by mark-as-read, and deleted when the originating event is reversed.
type Notification struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	EventID   string    `json:"event_id" gorm:"type:varchar(36);index"`
	UserName  string    `json:"user_name" gorm:"size:64;index"`
	IsMine    bool      `json:"is_mine" gorm:"index"`
	IsRead    bool      `json:"is_read" gorm:"default:false;index"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// NotificationView is a notification reconstructed for display by joining
// the event log and the event's target at read time. Which optional fields
// are populated depends on the event type: likes, comments, and mentions
// carry post data (comments additionally the comment text), follow kinds
// carry the counterpart handle.
type NotificationView struct {
	Type              EventType `json:"type"`
	PerformerUserName string    `json:"performer_user_name"`
	PostID            string    `json:"post_id,omitempty"`
	PostImage         string    `json:"post_image,omitempty"`
	PostCreator       string    `json:"post_creator,omitempty"`
	Comment           string    `json:"comment,omitempty"`
	FollowingUserName string    `json:"following_user_name,omitempty"`
	IsMine            bool      `json:"is_mine"`
	Seen              bool      `json:"seen"`
	CreationDate      time.Time `json:"creation_date"`
}
