package repositories

import (
	"context"
	"errors"

	"github.com/opengram/backend/internal/models"
	"gorm.io/gorm"
)

// FollowRepository defines the interface for relationship edge operations.
// An absent edge is reported as (nil, nil), never as an error: callers treat
// it as {state: NONE, blocked: false}.
type FollowRepository interface {
	GetFollow(ctx context.Context, followerUserName, followingUserName string) (*models.Follow, error)
	Save(ctx context.Context, follow *models.Follow) error
	// GetAcceptedFollowers returns the handles of users actively following
	// userName: state ACCEPTED and not blocked. A blocked edge records prior
	// follow history but does not count as an active follow.
	GetAcceptedFollowers(ctx context.Context, userName string) ([]string, error)
	GetAcceptedFollowings(ctx context.Context, userName string) ([]string, error)
	// GetEdgesWith fetches, in one query, every edge in either direction
	// between userName and the given candidate set.
	GetEdgesWith(ctx context.Context, userName string, others []string) ([]models.Follow, error)
	ListPendingRequests(ctx context.Context, followingUserName string) ([]models.Follow, error)
	CountFollowers(ctx context.Context, userName string) (int64, error)
	CountFollowings(ctx context.Context, userName string) (int64, error)
}

// PostgresFollowRepository implements FollowRepository for PostgreSQL
type PostgresFollowRepository struct {
	db *gorm.DB
}

// NewPostgresFollowRepository creates a new PostgresFollowRepository
func NewPostgresFollowRepository(db *gorm.DB) *PostgresFollowRepository {
	return &PostgresFollowRepository{db: db}
}

func (r *PostgresFollowRepository) GetFollow(ctx context.Context, followerUserName, followingUserName string) (*models.Follow, error) {
	var follow models.Follow
	err := r.db.WithContext(ctx).
		Where("follower_user_name = ? AND following_user_name = ?", followerUserName, followingUserName).
		First(&follow).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &follow, nil
}

// Save inserts the edge when it has no row ID yet and updates it otherwise.
func (r *PostgresFollowRepository) Save(ctx context.Context, follow *models.Follow) error {
	return r.db.WithContext(ctx).Save(follow).Error
}

func (r *PostgresFollowRepository) GetAcceptedFollowers(ctx context.Context, userName string) ([]string, error) {
	var followers []string
	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("following_user_name = ? AND request_state = ? AND is_blocked = false", userName, models.FollowStateAccepted).
		Pluck("follower_user_name", &followers).Error
	return followers, err
}

func (r *PostgresFollowRepository) GetAcceptedFollowings(ctx context.Context, userName string) ([]string, error) {
	var followings []string
	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_user_name = ? AND request_state = ? AND is_blocked = false", userName, models.FollowStateAccepted).
		Pluck("following_user_name", &followings).Error
	return followings, err
}

func (r *PostgresFollowRepository) GetEdgesWith(ctx context.Context, userName string, others []string) ([]models.Follow, error) {
	if len(others) == 0 {
		return nil, nil
	}
	var edges []models.Follow
	err := r.db.WithContext(ctx).
		Where("(follower_user_name = ? AND following_user_name IN ?) OR (following_user_name = ? AND follower_user_name IN ?)",
			userName, others, userName, others).
		Find(&edges).Error
	return edges, err
}

func (r *PostgresFollowRepository) ListPendingRequests(ctx context.Context, followingUserName string) ([]models.Follow, error) {
	var edges []models.Follow
	err := r.db.WithContext(ctx).
		Where("following_user_name = ? AND request_state = ?", followingUserName, models.FollowStatePending).
		Find(&edges).Error
	return edges, err
}

func (r *PostgresFollowRepository) CountFollowers(ctx context.Context, userName string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("following_user_name = ? AND request_state = ? AND is_blocked = false", userName, models.FollowStateAccepted).
		Count(&count).Error
	return count, err
}

func (r *PostgresFollowRepository) CountFollowings(ctx context.Context, userName string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_user_name = ? AND request_state = ? AND is_blocked = false", userName, models.FollowStateAccepted).
		Count(&count).Error
	return count, err
}
