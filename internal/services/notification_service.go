package services

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/opengram/backend/internal/cache"
	"github.com/opengram/backend/internal/models"
	"github.com/opengram/backend/internal/repositories"
	"github.com/opengram/backend/pkg/logger"
)

// PostStore is the subset of the post repository the notification core
// reads. A missing post is reported as (nil, nil).
type PostStore interface {
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
}

// CommentStore is the subset of the comment repository the notification
// core reads.
type CommentStore interface {
	GetCommentByID(ctx context.Context, id uint) (*models.Comment, error)
}

// NotificationService owns the event log fan-out and the notification read
// model: each inbound trigger appends one event, writes the primary
// notification, then distributes feed-style copies to the performer's
// followers subject to the access policy.
type NotificationService struct {
	events        repositories.EventRepository
	notifications repositories.NotificationRepository
	follows       repositories.FollowRepository
	policy        *AccessPolicy
	posts         PostStore
	comments      CommentStore
	unread        *cache.UnreadCounter

	// markSeenSync makes List wait for read-marking instead of detaching
	// it; tests flip this to observe the effect deterministically.
	markSeenSync bool
}

// NewNotificationService creates a new NotificationService. unread may be
// nil when no Redis cache is configured.
func NewNotificationService(
	events repositories.EventRepository,
	notifications repositories.NotificationRepository,
	follows repositories.FollowRepository,
	policy *AccessPolicy,
	posts PostStore,
	comments CommentStore,
	unread *cache.UnreadCounter,
) *NotificationService {
	return &NotificationService{
		events:        events,
		notifications: notifications,
		follows:       follows,
		policy:        policy,
		posts:         posts,
		comments:      comments,
		unread:        unread,
	}
}

// eventKindSpec is the closed per-kind dispatch table entry: how the
// performer's followers are narrowed to the secondary audience, and how a
// stored event is rendered into a display view. Adding an event kind means
// adding a table entry, not branching in the components. A nil secondary
// means the kind notifies only its primary recipient.
type eventKindSpec struct {
	secondary func(ctx context.Context, s *NotificationService, ev *models.Event, candidates []string) ([]string, error)
	render    func(ctx context.Context, s *NotificationService, ev *models.Event, n *models.Notification) (*models.NotificationView, error)
}

var eventKinds = map[models.EventType]eventKindSpec{
	models.EventTypeLike:          {secondary: likeAudience, render: renderLike},
	models.EventTypeComment:       {secondary: commentAudience, render: renderComment},
	models.EventTypeMention:       {render: renderMention},
	models.EventTypeFollow:        {secondary: followAudience, render: renderFollowKind},
	models.EventTypeFollowRequest: {render: renderFollowKind},
}

// OnLike records a like and fans it out: the post owner gets the primary
// notification (skipped for self-likes) and the liker's followers who may
// see the owner's post activity get secondary copies. isLike=false reverses
// the previous like instead.
func (s *NotificationService) OnLike(ctx context.Context, actor, postID string, isLike bool) error {
	if !isLike {
		return s.Reverse(ctx, actor, postID, models.EventTypeLike)
	}
	post, err := s.mustGetPost(ctx, postID)
	if err != nil {
		return err
	}
	event := &models.Event{PerformerUserName: actor, TargetID: postID, Type: models.EventTypeLike}
	if err := s.events.Create(ctx, event); err != nil {
		return err
	}
	primary := post.UserName
	if primary == actor {
		primary = ""
	}
	return s.distribute(ctx, event, primary)
}

// OnComment records a comment event and fans it out like a like, with the
// comment ID as the event target.
func (s *NotificationService) OnComment(ctx context.Context, actor string, commentID uint) error {
	comment, err := s.mustGetComment(ctx, commentID)
	if err != nil {
		return err
	}
	post, err := s.mustGetPost(ctx, comment.PostID)
	if err != nil {
		return err
	}
	event := &models.Event{
		PerformerUserName: actor,
		TargetID:          strconv.FormatUint(uint64(commentID), 10),
		Type:              models.EventTypeComment,
	}
	if err := s.events.Create(ctx, event); err != nil {
		return err
	}
	return s.distribute(ctx, event, post.UserName)
}

// OnMention notifies the mentioned user, subject to the mention policy.
// A denied mention is silently dropped, not an error.
func (s *NotificationService) OnMention(ctx context.Context, actor, mentioned, postID string) error {
	ok, err := s.policy.CanMention(ctx, actor, mentioned)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	event := &models.Event{PerformerUserName: actor, TargetID: postID, Type: models.EventTypeMention}
	if err := s.events.Create(ctx, event); err != nil {
		return err
	}
	return s.distribute(ctx, event, mentioned)
}

// OnFollow records a follow event. For a direct follow of a public account
// the followed user is the primary recipient; when a pending request was
// just accepted, the follower is (they learn their request went through).
// The follower's own followers get a feed-style copy, gated on blocks
// against the followed user.
func (s *NotificationService) OnFollow(ctx context.Context, follower, following string, wasAccepted bool) error {
	event := &models.Event{PerformerUserName: follower, TargetID: following, Type: models.EventTypeFollow}
	if err := s.events.Create(ctx, event); err != nil {
		return err
	}
	primary := following
	if wasAccepted {
		primary = follower
	}
	return s.distribute(ctx, event, primary)
}

// OnFollowRequest notifies the target of a new follow request.
func (s *NotificationService) OnFollowRequest(ctx context.Context, follower, following string) error {
	event := &models.Event{PerformerUserName: follower, TargetID: following, Type: models.EventTypeFollowRequest}
	if err := s.events.Create(ctx, event); err != nil {
		return err
	}
	return s.distribute(ctx, event, following)
}

// Reverse undoes the event of the given kind recorded for (performer,
// target) and removes every notification derived from it. The kind must
// match the action being reversed: different kinds can share a target (a
// like and a mention on the same post) and only the reversed action's own
// event may go. The two deletes are compensating actions, not a
// transaction: the event goes first so a partial failure cannot leave
// notifications pointing at a live event.
func (s *NotificationService) Reverse(ctx context.Context, performer, targetID string, eventType models.EventType) error {
	event, err := s.events.FindByPerformerAndTarget(ctx, performer, targetID, eventType)
	if err != nil {
		return err
	}
	if event == nil {
		return nil
	}
	if err := s.events.Delete(ctx, event.ID); err != nil {
		return err
	}
	recipients, err := s.notifications.DeleteByEventID(ctx, event.ID)
	if err != nil {
		return err
	}
	for _, recipient := range recipients {
		s.unread.Invalidate(ctx, recipient)
	}
	return nil
}

// distribute writes the primary notification durably, then fans secondary
// copies out to the performer's accepted followers. Secondary writes run
// concurrently and are isolated per candidate: one failed write is logged
// and the rest of the batch proceeds.
func (s *NotificationService) distribute(ctx context.Context, event *models.Event, primary string) error {
	spec, ok := eventKinds[event.Type]
	if !ok {
		return fmt.Errorf("%w: unhandled event type %q", ErrIntegrity, event.Type)
	}
	if primary != "" {
		if err := s.createNotification(ctx, primary, event.ID, true); err != nil {
			return err
		}
	}
	if spec.secondary == nil {
		return nil
	}
	followers, err := s.follows.GetAcceptedFollowers(ctx, event.PerformerUserName)
	if err != nil {
		return err
	}
	audience, err := spec.secondary(ctx, s, event, followers)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	for _, recipient := range audience {
		if recipient == primary {
			continue
		}
		wg.Add(1)
		go func(recipient string) {
			defer wg.Done()
			if err := s.createNotification(ctx, recipient, event.ID, false); err != nil {
				logger.Warn("secondary notification write failed",
					zap.String("event_id", event.ID),
					zap.String("recipient", recipient),
					zap.Error(err))
			}
		}(recipient)
	}
	wg.Wait()
	return nil
}

// likeAudience narrows the liker's followers to those who may see the post
// owner's activity; the owner never receives a feed-style copy of likes on
// their own post.
func likeAudience(ctx context.Context, s *NotificationService, ev *models.Event, candidates []string) ([]string, error) {
	post, err := s.mustGetPost(ctx, ev.TargetID)
	if err != nil {
		return nil, err
	}
	allowed, err := s.policy.FilterPostAudience(ctx, post.UserName, candidates)
	if err != nil {
		return nil, err
	}
	return exclude(allowed, post.UserName), nil
}

func commentAudience(ctx context.Context, s *NotificationService, ev *models.Event, candidates []string) ([]string, error) {
	comment, err := s.mustGetComment(ctx, parseCommentID(ev.TargetID))
	if err != nil {
		return nil, err
	}
	post, err := s.mustGetPost(ctx, comment.PostID)
	if err != nil {
		return nil, err
	}
	allowed, err := s.policy.FilterPostAudience(ctx, post.UserName, candidates)
	if err != nil {
		return nil, err
	}
	return exclude(allowed, post.UserName), nil
}

// followAudience narrows the follower's followers to those without a block
// against the followed user; the followed user already has the primary
// notification.
func followAudience(ctx context.Context, s *NotificationService, ev *models.Event, candidates []string) ([]string, error) {
	allowed, err := s.policy.FilterFollowAudience(ctx, ev.TargetID, candidates)
	if err != nil {
		return nil, err
	}
	return exclude(allowed, ev.TargetID), nil
}

func exclude(names []string, skip string) []string {
	out := names[:0]
	for _, n := range names {
		if n != skip {
			out = append(out, n)
		}
	}
	return out
}

func (s *NotificationService) createNotification(ctx context.Context, userName, eventID string, isMine bool) error {
	n := &models.Notification{EventID: eventID, UserName: userName, IsMine: isMine}
	if err := s.notifications.Create(ctx, n); err != nil {
		return err
	}
	s.unread.Invalidate(ctx, userName)
	return nil
}

// List returns one newest-first page of a user's notifications as display
// views plus the total count for the scope. Every view is reconstructed by
// joining the event log and the event's target; an unresolvable reference
// aborts the call with ErrIntegrity rather than being dropped. The returned
// notifications — and only those — are marked read after the page is
// assembled; the marking is detached from the response and lands within a
// short delay.
func (s *NotificationService) List(ctx context.Context, userName string, isMine bool, page, limit int) ([]models.NotificationView, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit

	notifications, err := s.notifications.ListByUser(ctx, userName, isMine, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.notifications.CountByUser(ctx, userName, isMine)
	if err != nil {
		return nil, 0, err
	}

	views := make([]models.NotificationView, 0, len(notifications))
	ids := make([]uint, 0, len(notifications))
	for i := range notifications {
		n := &notifications[i]
		event, err := s.events.GetByID(ctx, n.EventID)
		if err != nil {
			return nil, 0, err
		}
		if event == nil {
			return nil, 0, fmt.Errorf("%w: notification %d references missing event %s", ErrIntegrity, n.ID, n.EventID)
		}
		spec, ok := eventKinds[event.Type]
		if !ok {
			return nil, 0, fmt.Errorf("%w: unhandled event type %q", ErrIntegrity, event.Type)
		}
		view, err := spec.render(ctx, s, event, n)
		if err != nil {
			return nil, 0, err
		}
		views = append(views, *view)
		ids = append(ids, n.ID)
	}

	s.markSeen(userName, ids)
	return views, total, nil
}

// markSeen flags the returned notification ids as read and drops the cached
// unread count. Decoupled from the List response on purpose; see List.
func (s *NotificationService) markSeen(userName string, ids []uint) {
	if len(ids) == 0 {
		return
	}
	mark := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.notifications.MarkRead(ctx, ids); err != nil {
			logger.Error("mark notifications read failed",
				zap.String("user", userName),
				zap.Int("count", len(ids)),
				zap.Error(err))
			return
		}
		s.unread.Invalidate(ctx, userName)
	}
	if s.markSeenSync {
		mark()
		return
	}
	go mark()
}

// UnreadCount returns the user's unread notification count, served from the
// Redis cache when possible.
func (s *NotificationService) UnreadCount(ctx context.Context, userName string) (int64, error) {
	if n, ok := s.unread.Get(ctx, userName); ok {
		return n, nil
	}
	n, err := s.notifications.UnreadCount(ctx, userName)
	if err != nil {
		return 0, err
	}
	s.unread.Set(ctx, userName, n)
	return n, nil
}

func renderLike(ctx context.Context, s *NotificationService, ev *models.Event, n *models.Notification) (*models.NotificationView, error) {
	post, err := s.mustGetPost(ctx, ev.TargetID)
	if err != nil {
		return nil, err
	}
	return &models.NotificationView{
		Type:              ev.Type,
		PerformerUserName: ev.PerformerUserName,
		PostID:            ev.TargetID,
		PostImage:         post.FirstPhoto(),
		PostCreator:       post.UserName,
		IsMine:            n.IsMine,
		Seen:              n.IsRead,
		CreationDate:      ev.CreatedAt,
	}, nil
}

func renderComment(ctx context.Context, s *NotificationService, ev *models.Event, n *models.Notification) (*models.NotificationView, error) {
	comment, err := s.mustGetComment(ctx, parseCommentID(ev.TargetID))
	if err != nil {
		return nil, err
	}
	post, err := s.mustGetPost(ctx, comment.PostID)
	if err != nil {
		return nil, err
	}
	return &models.NotificationView{
		Type:              ev.Type,
		PerformerUserName: ev.PerformerUserName,
		PostID:            comment.PostID,
		PostImage:         post.FirstPhoto(),
		PostCreator:       post.UserName,
		Comment:           comment.Content,
		IsMine:            n.IsMine,
		Seen:              n.IsRead,
		CreationDate:      ev.CreatedAt,
	}, nil
}

func renderMention(ctx context.Context, s *NotificationService, ev *models.Event, n *models.Notification) (*models.NotificationView, error) {
	post, err := s.mustGetPost(ctx, ev.TargetID)
	if err != nil {
		return nil, err
	}
	return &models.NotificationView{
		Type:              ev.Type,
		PerformerUserName: ev.PerformerUserName,
		PostID:            ev.TargetID,
		PostImage:         post.FirstPhoto(),
		IsMine:            n.IsMine,
		Seen:              n.IsRead,
		CreationDate:      ev.CreatedAt,
	}, nil
}

// renderFollowKind covers both follow and follow-request events; the view
// only needs the counterpart handle stored as the event target.
func renderFollowKind(_ context.Context, _ *NotificationService, ev *models.Event, n *models.Notification) (*models.NotificationView, error) {
	return &models.NotificationView{
		Type:              ev.Type,
		PerformerUserName: ev.PerformerUserName,
		FollowingUserName: ev.TargetID,
		IsMine:            n.IsMine,
		Seen:              n.IsRead,
		CreationDate:      ev.CreatedAt,
	}, nil
}

func (s *NotificationService) mustGetPost(ctx context.Context, postID string) (*models.Post, error) {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, fmt.Errorf("%w: post %s not found", ErrIntegrity, postID)
	}
	return post, nil
}

func (s *NotificationService) mustGetComment(ctx context.Context, commentID uint) (*models.Comment, error) {
	comment, err := s.comments.GetCommentByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, fmt.Errorf("%w: comment %d not found", ErrIntegrity, commentID)
	}
	return comment, nil
}

func parseCommentID(targetID string) uint {
	id, _ := strconv.ParseUint(targetID, 10, 64)
	return uint(id)
}
