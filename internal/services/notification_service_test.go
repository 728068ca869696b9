package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opengram/backend/internal/models"
	"github.com/opengram/backend/internal/repositories"
)

func TestOnLike_PrimaryAndSecondaryRecipients(t *testing.T) {
	env := newTestEnv(t)
	// alice is public; bob, carol, and dave follow her. dave owns the post.
	env.addUser(t, "alice", false)
	env.addUser(t, "bob", false)
	env.addUser(t, "carol", false)
	env.addUser(t, "dave", false)
	env.addFollow(t, "bob", "alice", models.FollowStateAccepted)
	env.addFollow(t, "carol", "alice", models.FollowStateAccepted)
	env.addFollow(t, "dave", "alice", models.FollowStateAccepted)
	env.addPost("dave", "post-1", "https://img.example/p1.jpg")

	require.NoError(t, env.notifier.OnLike(context.Background(), "alice", "post-1", true))

	daves := env.notificationsFor(t, "dave")
	require.Len(t, daves, 1)
	assert.True(t, daves[0].IsMine, "post owner gets the primary notification")

	bobs := env.notificationsFor(t, "bob")
	require.Len(t, bobs, 1)
	assert.False(t, bobs[0].IsMine)

	carols := env.notificationsFor(t, "carol")
	require.Len(t, carols, 1)
	assert.False(t, carols[0].IsMine)

	// alice never notifies herself
	assert.Empty(t, env.notificationsFor(t, "alice"))
}

func TestOnLike_ExactlyOnePrimaryPerEvent(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", false)
	env.addUser(t, "owner", false)
	env.addUser(t, "follower", false)
	env.addFollow(t, "follower", "alice", models.FollowStateAccepted)
	env.addFollow(t, "owner", "alice", models.FollowStateAccepted)
	env.addPost("owner", "post-1", "https://img.example/p1.jpg")

	require.NoError(t, env.notifier.OnLike(context.Background(), "alice", "post-1", true))

	primaries := 0
	for _, n := range env.allNotifications(t) {
		if n.IsMine {
			primaries++
		}
	}
	assert.Equal(t, 1, primaries)
}

func TestOnLike_SelfLikeSkipsPrimary(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", false)
	env.addUser(t, "bob", false)
	env.addFollow(t, "bob", "alice", models.FollowStateAccepted)
	env.addPost("alice", "post-1")

	require.NoError(t, env.notifier.OnLike(context.Background(), "alice", "post-1", true))

	// The owner is the liker; nobody gets a primary. bob would get a
	// secondary, but the owner is excluded from the secondary audience and
	// bob may still see alice's own post activity.
	assert.Empty(t, env.notificationsFor(t, "alice"))
	bobs := env.notificationsFor(t, "bob")
	require.Len(t, bobs, 1)
	assert.False(t, bobs[0].IsMine)
}

// The blocked follower scenario: the liker's follower who has a block
// against the post owner must not hear about the like.
func TestOnLike_FollowerBlockedAgainstOwnerExcluded(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "liker", false)
	env.addUser(t, "owner", false)
	env.addUser(t, "clean", false)
	env.addUser(t, "hostile", false)
	env.addFollow(t, "clean", "liker", models.FollowStateAccepted)
	env.addFollow(t, "hostile", "liker", models.FollowStateAccepted)
	env.addBlock(t, "hostile", "owner")
	env.addPost("owner", "post-1")

	require.NoError(t, env.notifier.OnLike(context.Background(), "liker", "post-1", true))

	assert.Len(t, env.notificationsFor(t, "owner"), 1)
	assert.Len(t, env.notificationsFor(t, "clean"), 1)
	assert.Empty(t, env.notificationsFor(t, "hostile"))
}

// A follower whose own follow of the liker was severed by blocking the liker
// never even enters the candidate set.
func TestOnLike_BlockedFollowEdgeNotAFollower(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "liker", false)
	env.addUser(t, "owner", false)
	env.addUser(t, "exfollower", false)
	edge := env.addFollow(t, "exfollower", "liker", models.FollowStateAccepted)
	edge.IsBlocked = true
	require.NoError(t, env.follows.Save(context.Background(), edge))
	env.addPost("owner", "post-1")

	require.NoError(t, env.notifier.OnLike(context.Background(), "liker", "post-1", true))

	assert.Empty(t, env.notificationsFor(t, "exfollower"))
	assert.Len(t, env.notificationsFor(t, "owner"), 1)
}

func TestOnLike_PrivateOwnerAudience(t *testing.T) {
	env := newTestEnv(t)
	// owner is private. liker follows owner (accepted). Of the liker's
	// followers only "insider" also has an accepted follow of the owner.
	env.addUser(t, "owner", true)
	env.addUser(t, "liker", false)
	env.addUser(t, "insider", false)
	env.addUser(t, "outsider", false)
	env.addFollow(t, "liker", "owner", models.FollowStateAccepted)
	env.addFollow(t, "insider", "liker", models.FollowStateAccepted)
	env.addFollow(t, "outsider", "liker", models.FollowStateAccepted)
	env.addFollow(t, "insider", "owner", models.FollowStateAccepted)
	env.addPost("owner", "post-1")

	require.NoError(t, env.notifier.OnLike(context.Background(), "liker", "post-1", true))

	assert.Len(t, env.notificationsFor(t, "owner"), 1)
	assert.Len(t, env.notificationsFor(t, "insider"), 1)
	assert.Empty(t, env.notificationsFor(t, "outsider"))
}

func TestOnLike_MissingPostIsIntegrityError(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", false)

	err := env.notifier.OnLike(context.Background(), "alice", "no-such-post", true)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIntegrity)
}

func TestReverse_RemovesEventAndAllNotifications(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", false)
	env.addUser(t, "owner", false)
	env.addUser(t, "follower", false)
	env.addFollow(t, "follower", "alice", models.FollowStateAccepted)
	env.addPost("owner", "post-1")

	ctx := context.Background()
	require.NoError(t, env.notifier.OnLike(ctx, "alice", "post-1", true))
	require.NotEmpty(t, env.allNotifications(t))

	events := env.allEvents(t)
	require.Len(t, events, 1)
	firstEventID := events[0].ID

	require.NoError(t, env.notifier.OnLike(ctx, "alice", "post-1", false))
	assert.Empty(t, env.allEvents(t))
	assert.Empty(t, env.allNotifications(t))

	// Re-liking mints a fresh event identity.
	require.NoError(t, env.notifier.OnLike(ctx, "alice", "post-1", true))
	events = env.allEvents(t)
	require.Len(t, events, 1)
	assert.NotEqual(t, firstEventID, events[0].ID)
}

func TestReverse_NoEventIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", false)

	require.NoError(t, env.notifier.Reverse(context.Background(), "alice", "post-1", models.EventTypeLike))
}

// A like and a mention on the same post share performer and target. The
// unlike must remove exactly the like event; the mention and its
// notification stay.
func TestReverse_OnlyRemovesMatchingKind(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "author", false)
	env.addUser(t, "friend", false)
	env.addPost("author", "post-1")

	ctx := context.Background()
	require.NoError(t, env.notifier.OnMention(ctx, "author", "friend", "post-1"))
	require.NoError(t, env.notifier.OnLike(ctx, "author", "post-1", true))

	require.NoError(t, env.notifier.OnLike(ctx, "author", "post-1", false))

	events := env.allEvents(t)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventTypeMention, events[0].Type)

	friends := env.notificationsFor(t, "friend")
	require.Len(t, friends, 1, "mention notification survives the unlike")
}

func TestOnComment_OwnerNotifiedEvenForOwnComment(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "owner", false)
	env.addPost("owner", "post-1")

	comment := &models.Comment{PostID: "post-1", UserName: "owner", Content: "first!"}
	require.NoError(t, env.comments.CreateComment(context.Background(), comment))

	require.NoError(t, env.notifier.OnComment(context.Background(), "owner", comment.ID))

	owners := env.notificationsFor(t, "owner")
	require.Len(t, owners, 1)
	assert.True(t, owners[0].IsMine)
}

func TestOnComment_SecondaryAudience(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "commenter", false)
	env.addUser(t, "owner", false)
	env.addUser(t, "follower", false)
	env.addFollow(t, "follower", "commenter", models.FollowStateAccepted)
	env.addPost("owner", "post-1", "https://img.example/p1.jpg")

	comment := &models.Comment{PostID: "post-1", UserName: "commenter", Content: "nice"}
	require.NoError(t, env.comments.CreateComment(context.Background(), comment))
	require.NoError(t, env.notifier.OnComment(context.Background(), "commenter", comment.ID))

	owners := env.notificationsFor(t, "owner")
	require.Len(t, owners, 1)
	assert.True(t, owners[0].IsMine)

	followers := env.notificationsFor(t, "follower")
	require.Len(t, followers, 1)
	assert.False(t, followers[0].IsMine)
}

func TestOnMention_PolicyGate(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "author", false)
	env.addUser(t, "friend", false)
	env.addUser(t, "privacy", true)
	env.addPost("author", "post-1")

	ctx := context.Background()
	require.NoError(t, env.notifier.OnMention(ctx, "author", "friend", "post-1"))
	assert.Len(t, env.notificationsFor(t, "friend"), 1)

	// Denied mention: dropped silently, no event, no notification.
	require.NoError(t, env.notifier.OnMention(ctx, "author", "privacy", "post-1"))
	assert.Empty(t, env.notificationsFor(t, "privacy"))

	// Self mention is always denied.
	require.NoError(t, env.notifier.OnMention(ctx, "author", "author", "post-1"))
	assert.Empty(t, env.notificationsFor(t, "author"))

	assert.Len(t, env.allEvents(t), 1)
}

func TestOnFollow_PrimaryDependsOnAcceptance(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "follower", false)
	env.addUser(t, "followed", false)

	ctx := context.Background()

	// Direct follow of a public account: the followed user hears about it.
	require.NoError(t, env.notifier.OnFollow(ctx, "follower", "followed", false))
	followed := env.notificationsFor(t, "followed")
	require.Len(t, followed, 1)
	assert.True(t, followed[0].IsMine)
	assert.Empty(t, env.notificationsFor(t, "follower"))
}

func TestOnFollow_AcceptedRequestNotifiesRequester(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "follower", false)
	env.addUser(t, "followed", true)

	require.NoError(t, env.notifier.OnFollow(context.Background(), "follower", "followed", true))

	followers := env.notificationsFor(t, "follower")
	require.Len(t, followers, 1)
	assert.True(t, followers[0].IsMine)
	assert.Empty(t, env.notificationsFor(t, "followed"))
}

func TestOnFollow_SecondaryAudienceGatedOnBlocks(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "follower", false)
	env.addUser(t, "followed", false)
	env.addUser(t, "clean", false)
	env.addUser(t, "hostile", false)
	env.addFollow(t, "clean", "follower", models.FollowStateAccepted)
	env.addFollow(t, "hostile", "follower", models.FollowStateAccepted)
	env.addBlock(t, "hostile", "followed")

	require.NoError(t, env.notifier.OnFollow(context.Background(), "follower", "followed", false))

	assert.Len(t, env.notificationsFor(t, "clean"), 1)
	assert.Empty(t, env.notificationsFor(t, "hostile"))
}

func TestOnFollowRequest_OnlyTargetNotified(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "requester", false)
	env.addUser(t, "target", true)
	env.addUser(t, "bystander", false)
	env.addFollow(t, "bystander", "requester", models.FollowStateAccepted)

	require.NoError(t, env.notifier.OnFollowRequest(context.Background(), "requester", "target"))

	targets := env.notificationsFor(t, "target")
	require.Len(t, targets, 1)
	assert.True(t, targets[0].IsMine)
	assert.Empty(t, env.notificationsFor(t, "bystander"), "follow requests have no feed fan-out")
}

func TestList_ReturnsViewsAndMarksPageRead(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "liker", false)
	env.addUser(t, "owner", false)
	env.addPost("owner", "post-1", "https://img.example/p1.jpg")

	ctx := context.Background()
	require.NoError(t, env.notifier.OnLike(ctx, "liker", "post-1", true))
	require.NoError(t, env.notifier.OnFollow(ctx, "liker", "owner", false))

	unreadBefore, err := env.notifier.UnreadCount(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, int64(2), unreadBefore)

	views, total, err := env.notifier.List(ctx, "owner", true, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, views, 2)

	byType := map[models.EventType]models.NotificationView{}
	for _, v := range views {
		byType[v.Type] = v
	}
	like := byType[models.EventTypeLike]
	assert.Equal(t, "liker", like.PerformerUserName)
	assert.Equal(t, "post-1", like.PostID)
	assert.Equal(t, "https://img.example/p1.jpg", like.PostImage)
	assert.Equal(t, "owner", like.PostCreator)
	assert.True(t, like.IsMine)

	follow := byType[models.EventTypeFollow]
	assert.Equal(t, "liker", follow.PerformerUserName)
	assert.Equal(t, "owner", follow.FollowingUserName)

	// markSeenSync is on in tests, so the page is read by now.
	unreadAfter, err := env.notifier.UnreadCount(ctx, "owner")
	require.NoError(t, err)
	assert.Zero(t, unreadAfter)
}

func TestList_MarksOnlyReturnedPage(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "owner", false)
	env.addPost("owner", "post-1")

	ctx := context.Background()
	for _, liker := range []string{"u1", "u2", "u3", "u4", "u5"} {
		env.addUser(t, liker, false)
		require.NoError(t, env.notifier.OnLike(ctx, liker, "post-1", true))
	}

	views, total, err := env.notifier.List(ctx, "owner", true, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, views, 2)

	unread, err := env.notifier.UnreadCount(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, int64(3), unread, "only the returned page is marked read")
}

func TestList_MissingEventTargetAborts(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "liker", false)
	env.addUser(t, "owner", false)
	env.addPost("owner", "post-1")

	ctx := context.Background()
	require.NoError(t, env.notifier.OnLike(ctx, "liker", "post-1", true))

	// The post disappears between fan-out and read.
	delete(env.posts.posts, "post-1")

	_, _, err := env.notifier.List(ctx, "owner", true, 1, 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIntegrity))
}

func TestList_ScopesMineAndOthersSeparately(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "liker", false)
	env.addUser(t, "owner", false)
	env.addUser(t, "follower", false)
	env.addFollow(t, "follower", "liker", models.FollowStateAccepted)
	env.addPost("owner", "post-1")

	ctx := context.Background()
	require.NoError(t, env.notifier.OnLike(ctx, "liker", "post-1", true))

	mine, _, err := env.notifier.List(ctx, "owner", true, 1, 10)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	others, _, err := env.notifier.List(ctx, "owner", false, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, others)

	feed, _, err := env.notifier.List(ctx, "follower", false, 1, 10)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.False(t, feed[0].IsMine)
}

// failingNotificationStore refuses writes for one recipient and delegates
// everything else.
type failingNotificationStore struct {
	repositories.NotificationRepository
	refuse string
}

func (f *failingNotificationStore) Create(ctx context.Context, n *models.Notification) error {
	if n.UserName == f.refuse {
		return errors.New("notification store unavailable")
	}
	return f.NotificationRepository.Create(ctx, n)
}

// One failed secondary write must not fail the fan-out or starve the other
// recipients.
func TestOnLike_SecondaryFailureDoesNotFailFanout(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "liker", false)
	env.addUser(t, "owner", false)
	env.addUser(t, "lucky", false)
	env.addUser(t, "cursed", false)
	env.addFollow(t, "lucky", "liker", models.FollowStateAccepted)
	env.addFollow(t, "cursed", "liker", models.FollowStateAccepted)
	env.addPost("owner", "post-1")

	store := &failingNotificationStore{NotificationRepository: env.notifications, refuse: "cursed"}
	notifier := NewNotificationService(
		env.events, store, env.follows, env.policy, env.posts, env.comments, nil)
	notifier.markSeenSync = true

	require.NoError(t, notifier.OnLike(context.Background(), "liker", "post-1", true))

	owners := env.notificationsFor(t, "owner")
	require.Len(t, owners, 1)
	assert.True(t, owners[0].IsMine)
	assert.Len(t, env.notificationsFor(t, "lucky"), 1)
	assert.Empty(t, env.notificationsFor(t, "cursed"))
}

func TestUnreadCount_FallsBackToDatabaseWithoutCache(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "liker", false)
	env.addUser(t, "owner", false)
	env.addPost("owner", "post-1")

	ctx := context.Background()
	require.NoError(t, env.notifier.OnLike(ctx, "liker", "post-1", true))

	count, err := env.notifier.UnreadCount(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
