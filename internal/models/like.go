package models

import "gorm.io/gorm"

// Like represents a like on a post. One row per (post, user) pair.
type Like struct {
	gorm.Model
	PostID   string `json:"post_id" gorm:"index;uniqueIndex:idx_like_pair"` // MongoDB ObjectID as string
	UserName string `json:"user_name" gorm:"size:64;uniqueIndex:idx_like_pair"`
}
