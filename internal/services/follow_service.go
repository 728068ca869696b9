package services

import (
	"context"
	"fmt"

	"github.com/opengram/backend/internal/models"
	"github.com/opengram/backend/internal/repositories"
)

// followAction names a mutation of a follow edge's request state.
type followAction string

const (
	actionFollow   followAction = "follow"   // follow a public account
	actionRequest  followAction = "request"  // request to follow a private account
	actionAccept   followAction = "accept"   // target accepts a pending request
	actionDecline  followAction = "decline"  // target declines a pending request
	actionUnfollow followAction = "unfollow" // follower withdraws
)

type transition struct {
	next models.FollowRequestState
	ok   bool
}

// requestStateTransitions is the total table over state x action. Every
// pair has an entry: ok=false marks the pairs that are rejected (accept and
// decline need a pending request), and a self-transition marks the
// idempotent no-ops. Mutations consult the table instead of branching, so
// there is no reachable undefined combination.
var requestStateTransitions = map[models.FollowRequestState]map[followAction]transition{
	models.FollowStateNone: {
		actionFollow:   {models.FollowStateAccepted, true},
		actionRequest:  {models.FollowStatePending, true},
		actionAccept:   {models.FollowStateNone, false},
		actionDecline:  {models.FollowStateNone, false},
		actionUnfollow: {models.FollowStateNone, true},
	},
	models.FollowStatePending: {
		// A direct follow reaching a pending edge means the target went
		// public with the request still open; it succeeds outright.
		actionFollow:   {models.FollowStateAccepted, true},
		actionRequest:  {models.FollowStatePending, true},
		actionAccept:   {models.FollowStateAccepted, true},
		actionDecline:  {models.FollowStateNone, true},
		actionUnfollow: {models.FollowStateNone, true},
	},
	models.FollowStateAccepted: {
		actionFollow:   {models.FollowStateAccepted, true},
		actionRequest:  {models.FollowStateAccepted, true},
		actionAccept:   {models.FollowStateAccepted, false},
		actionDecline:  {models.FollowStateAccepted, false},
		actionUnfollow: {models.FollowStateNone, true},
	},
}

// Notifier is the slice of the notification core the follow service emits
// into.
type Notifier interface {
	OnFollow(ctx context.Context, follower, following string, wasAccepted bool) error
	OnFollowRequest(ctx context.Context, follower, following string) error
}

// FollowService mutates the follow graph: follows and follow requests,
// accept/decline, blocks, and the close friends list.
type FollowService struct {
	follows  repositories.FollowRepository
	users    repositories.UserRepository
	notifier Notifier
}

// NewFollowService creates a new FollowService
func NewFollowService(follows repositories.FollowRepository, users repositories.UserRepository, notifier Notifier) *FollowService {
	return &FollowService{follows: follows, users: users, notifier: notifier}
}

// Follow makes follower follow (or request to follow) following. A public
// target accepts immediately and is notified; a private target gets a
// pending request and a follow-request notification. Repeating the call in
// the same state is a no-op.
func (s *FollowService) Follow(ctx context.Context, follower, following string) (*models.Follow, error) {
	if follower == following {
		return nil, ErrSelfFollow
	}
	target, err := s.users.GetUserByUserName(ctx, following)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, ErrUserNotFound
	}

	edge, err := s.follows.GetFollow(ctx, follower, following)
	if err != nil {
		return nil, err
	}
	if edgeBlocked(edge) {
		return nil, ErrBlocked
	}
	reverse, err := s.follows.GetFollow(ctx, following, follower)
	if err != nil {
		return nil, err
	}
	if edgeBlocked(reverse) {
		return nil, ErrBlocked
	}
	if edge == nil {
		edge = &models.Follow{FollowerUserName: follower, FollowingUserName: following, RequestState: models.FollowStateNone}
	}

	action := actionFollow
	if target.IsPrivate {
		action = actionRequest
	}
	prev := edge.RequestState
	next, err := s.apply(edge, action)
	if err != nil {
		return nil, err
	}
	if next == prev {
		return edge, nil
	}
	if err := s.follows.Save(ctx, edge); err != nil {
		return nil, err
	}
	switch next {
	case models.FollowStateAccepted:
		err = s.notifier.OnFollow(ctx, follower, following, false)
	case models.FollowStatePending:
		err = s.notifier.OnFollowRequest(ctx, follower, following)
	}
	if err != nil {
		return nil, err
	}
	return edge, nil
}

// Accept approves a pending follow request addressed to following. The
// requester is notified that their request went through.
func (s *FollowService) Accept(ctx context.Context, follower, following string) error {
	edge, err := s.pendingEdge(ctx, follower, following)
	if err != nil {
		return err
	}
	if _, err := s.apply(edge, actionAccept); err != nil {
		return err
	}
	if err := s.follows.Save(ctx, edge); err != nil {
		return err
	}
	return s.notifier.OnFollow(ctx, follower, following, true)
}

// Decline rejects a pending follow request. The requester is not notified.
func (s *FollowService) Decline(ctx context.Context, follower, following string) error {
	edge, err := s.pendingEdge(ctx, follower, following)
	if err != nil {
		return err
	}
	if _, err := s.apply(edge, actionDecline); err != nil {
		return err
	}
	return s.follows.Save(ctx, edge)
}

// Unfollow withdraws follower's follow or pending request. Unfollowing
// someone you never followed is a no-op.
func (s *FollowService) Unfollow(ctx context.Context, follower, following string) error {
	edge, err := s.follows.GetFollow(ctx, follower, following)
	if err != nil {
		return err
	}
	if edge == nil || edge.RequestState == models.FollowStateNone {
		return nil
	}
	if _, err := s.apply(edge, actionUnfollow); err != nil {
		return err
	}
	edge.IsCloseFriend = false
	return s.follows.Save(ctx, edge)
}

// Block makes blocker block blocked. The blocker's edge keeps its request
// state so unblocking restores the prior relationship; the blocked user's
// own follow of the blocker is severed outright.
func (s *FollowService) Block(ctx context.Context, blocker, blocked string) error {
	if blocker == blocked {
		return ErrSelfFollow
	}
	target, err := s.users.GetUserByUserName(ctx, blocked)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrUserNotFound
	}

	edge, err := s.follows.GetFollow(ctx, blocker, blocked)
	if err != nil {
		return err
	}
	if edge == nil {
		edge = &models.Follow{FollowerUserName: blocker, FollowingUserName: blocked, RequestState: models.FollowStateNone}
	}
	edge.IsBlocked = true
	if err := s.follows.Save(ctx, edge); err != nil {
		return err
	}

	reverse, err := s.follows.GetFollow(ctx, blocked, blocker)
	if err != nil {
		return err
	}
	if reverse != nil && reverse.RequestState != models.FollowStateNone {
		reverse.RequestState = models.FollowStateNone
		reverse.IsCloseFriend = false
		return s.follows.Save(ctx, reverse)
	}
	return nil
}

// Unblock clears blocker's block on blocked. The edge's request state was
// preserved by Block, so the prior follow relationship resumes.
func (s *FollowService) Unblock(ctx context.Context, blocker, blocked string) error {
	edge, err := s.follows.GetFollow(ctx, blocker, blocked)
	if err != nil {
		return err
	}
	if edge == nil || !edge.IsBlocked {
		return nil
	}
	edge.IsBlocked = false
	return s.follows.Save(ctx, edge)
}

// AddCloseFriend flags an accepted following as a close friend.
func (s *FollowService) AddCloseFriend(ctx context.Context, follower, following string) error {
	return s.setCloseFriend(ctx, follower, following, true)
}

// RemoveCloseFriend clears the close friend flag.
func (s *FollowService) RemoveCloseFriend(ctx context.Context, follower, following string) error {
	return s.setCloseFriend(ctx, follower, following, false)
}

func (s *FollowService) setCloseFriend(ctx context.Context, follower, following string, value bool) error {
	edge, err := s.follows.GetFollow(ctx, follower, following)
	if err != nil {
		return err
	}
	if !edgeAccepted(edge) || edge.IsBlocked {
		return ErrNotAccepted
	}
	if edge.IsCloseFriend == value {
		return nil
	}
	edge.IsCloseFriend = value
	return s.follows.Save(ctx, edge)
}

// AcceptAllPending approves every pending request addressed to userName.
// Called when an account flips from private to public: requests that would
// have succeeded outright against a public account do so now. Each
// requester is notified.
func (s *FollowService) AcceptAllPending(ctx context.Context, userName string) error {
	pending, err := s.follows.ListPendingRequests(ctx, userName)
	if err != nil {
		return err
	}
	for i := range pending {
		edge := &pending[i]
		if _, err := s.apply(edge, actionAccept); err != nil {
			return err
		}
		if err := s.follows.Save(ctx, edge); err != nil {
			return err
		}
		if err := s.notifier.OnFollow(ctx, edge.FollowerUserName, userName, true); err != nil {
			return err
		}
	}
	return nil
}

// pendingEdge fetches the follower→following edge and requires it to be a
// live pending request.
func (s *FollowService) pendingEdge(ctx context.Context, follower, following string) (*models.Follow, error) {
	edge, err := s.follows.GetFollow(ctx, follower, following)
	if err != nil {
		return nil, err
	}
	if edge == nil || edge.RequestState != models.FollowStatePending || edge.IsBlocked {
		return nil, ErrNoSuchRequest
	}
	return edge, nil
}

// apply runs one transition from the table, mutating the edge in place on
// success.
func (s *FollowService) apply(edge *models.Follow, action followAction) (models.FollowRequestState, error) {
	row, ok := requestStateTransitions[edge.RequestState]
	if !ok {
		return "", fmt.Errorf("%w: unknown follow state %q", ErrIntegrity, edge.RequestState)
	}
	t := row[action]
	if !t.ok {
		return "", ErrNoSuchRequest
	}
	edge.RequestState = t.next
	return t.next, nil
}
