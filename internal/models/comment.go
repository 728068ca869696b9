package models

import "gorm.io/gorm"

// Comment represents a comment on a post
type Comment struct {
	gorm.Model
	PostID   string `json:"post_id" gorm:"index"` // MongoDB ObjectID as string
	UserName string `json:"user_name" gorm:"size:64;index"`
	Content  string `json:"content"`
}

// CreateCommentRequest defines the request body for creating a new comment
type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=500"`
}
