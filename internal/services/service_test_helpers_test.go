package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/opengram/backend/internal/models"
	"github.com/opengram/backend/internal/repositories"
)

// testEnv wires the services against an in-memory SQLite database. Posts
// live behind a map-backed fake since the production store is MongoDB.
type testEnv struct {
	db            *gorm.DB
	users         repositories.UserRepository
	follows       repositories.FollowRepository
	events        repositories.EventRepository
	notifications repositories.NotificationRepository
	comments      repositories.CommentRepository
	posts         *fakePostStore
	policy        *AccessPolicy
	notifier      *NotificationService
	followSvc     *FollowService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Like{},
		&models.Comment{},
		&models.Event{},
		&models.Notification{},
	))

	env := &testEnv{
		db:            db,
		users:         repositories.NewPostgresUserRepository(db),
		follows:       repositories.NewPostgresFollowRepository(db),
		events:        repositories.NewPostgresEventRepository(db),
		notifications: repositories.NewPostgresNotificationRepository(db),
		comments:      repositories.NewPostgresCommentRepository(db),
		posts:         &fakePostStore{posts: map[string]*models.Post{}},
	}
	env.policy = NewAccessPolicy(env.follows, env.users)
	env.notifier = NewNotificationService(
		env.events, env.notifications, env.follows, env.policy, env.posts, env.comments, nil)
	env.notifier.markSeenSync = true
	env.followSvc = NewFollowService(env.follows, env.users, env.notifier)
	return env
}

type fakePostStore struct {
	posts map[string]*models.Post
}

func (f *fakePostStore) GetPostByID(_ context.Context, id string) (*models.Post, error) {
	return f.posts[id], nil
}

func (env *testEnv) addUser(t *testing.T, userName string, private bool) {
	t.Helper()
	err := env.users.CreateUser(context.Background(), &models.User{
		UserName:  userName,
		Email:     userName + "@example.com",
		IsPrivate: private,
	})
	require.NoError(t, err)
}

func (env *testEnv) addFollow(t *testing.T, follower, following string, state models.FollowRequestState) *models.Follow {
	t.Helper()
	edge := &models.Follow{
		FollowerUserName:  follower,
		FollowingUserName: following,
		RequestState:      state,
	}
	require.NoError(t, env.follows.Save(context.Background(), edge))
	return edge
}

func (env *testEnv) addBlock(t *testing.T, blocker, blocked string) {
	t.Helper()
	edge, err := env.follows.GetFollow(context.Background(), blocker, blocked)
	require.NoError(t, err)
	if edge == nil {
		edge = &models.Follow{FollowerUserName: blocker, FollowingUserName: blocked, RequestState: models.FollowStateNone}
	}
	edge.IsBlocked = true
	require.NoError(t, env.follows.Save(context.Background(), edge))
}

func (env *testEnv) addPost(owner, postID string, photos ...string) {
	env.posts.posts[postID] = &models.Post{
		UserName:  owner,
		Caption:   "caption for " + postID,
		PhotoURLs: photos,
		CreatedAt: time.Now(),
	}
}

// notificationsFor reads all of a user's notification rows straight from the
// database, newest first.
func (env *testEnv) notificationsFor(t *testing.T, userName string) []models.Notification {
	t.Helper()
	var rows []models.Notification
	require.NoError(t, env.db.
		Where("user_name = ?", userName).
		Order("created_at DESC, id DESC").
		Find(&rows).Error)
	return rows
}

func (env *testEnv) allNotifications(t *testing.T) []models.Notification {
	t.Helper()
	var rows []models.Notification
	require.NoError(t, env.db.Find(&rows).Error)
	return rows
}

func (env *testEnv) allEvents(t *testing.T) []models.Event {
	t.Helper()
	var rows []models.Event
	require.NoError(t, env.db.Find(&rows).Error)
	return rows
}
