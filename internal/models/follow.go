package models

import "time"

// FollowRequestState tracks where the follow half of an edge sits in its
// lifecycle. NONE means no active or pending follow; such rows persist only
// to carry a block flag or prior follow history.
type FollowRequestState string

const (
	FollowStateNone     FollowRequestState = "none"
	FollowStatePending  FollowRequestState = "pending"
	FollowStateAccepted FollowRequestState = "accepted"
)

// Follow is a directional relationship edge between two accounts. At most
// one row exists per ordered (follower, following) pair; the block flag and
// the follow state live on the same row, so blocking someone who never
// followed you creates a block-only edge with state NONE.
type Follow struct {
	ID                uint               `json:"id" gorm:"primaryKey"`
	FollowerUserName  string             `json:"follower_user_name" gorm:"size:64;index;uniqueIndex:idx_follow_pair"`
	FollowingUserName string             `json:"following_user_name" gorm:"size:64;index;uniqueIndex:idx_follow_pair"`
	RequestState      FollowRequestState `json:"request_state" gorm:"size:16;default:none"`
	IsBlocked         bool               `json:"is_blocked" gorm:"default:false"`
	IsCloseFriend     bool               `json:"is_close_friend" gorm:"default:false"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}
