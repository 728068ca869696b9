package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post represents a social media post stored in MongoDB
type Post struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserName  string             `json:"user_name" bson:"user_name"` // handle of the post owner
	Caption   string             `json:"caption" bson:"caption"`
	PhotoURLs []string           `json:"photo_urls" bson:"photo_urls"`
	Mentions  []string           `json:"mentions,omitempty" bson:"mentions,omitempty"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

// FirstPhoto returns the preview image used by notification views.
func (p *Post) FirstPhoto() string {
	if len(p.PhotoURLs) == 0 {
		return ""
	}
	return p.PhotoURLs[0]
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Caption   string   `json:"caption" validate:"omitempty,max=1000"`
	PhotoURLs []string `json:"photo_urls" validate:"required,min=1,dive,url"`
	Mentions  []string `json:"mentions,omitempty" validate:"omitempty,dive,min=1"`
}
