package services

import (
	"context"

	"github.com/opengram/backend/internal/models"
	"github.com/opengram/backend/internal/repositories"
)

// AccessPolicy answers visibility questions over the social graph. All
// operations are pure reads: they never mutate the graph and are safe to
// call concurrently and repeatedly. A missing edge counts as
// {state: NONE, blocked: false}; block checks always consult both
// directions of a pair because either party may have initiated the block.
type AccessPolicy struct {
	follows repositories.FollowRepository
	users   repositories.UserRepository
}

// NewAccessPolicy creates a new AccessPolicy
func NewAccessPolicy(follows repositories.FollowRepository, users repositories.UserRepository) *AccessPolicy {
	return &AccessPolicy{follows: follows, users: users}
}

func edgeBlocked(f *models.Follow) bool {
	return f != nil && f.IsBlocked
}

func edgeAccepted(f *models.Follow) bool {
	return f != nil && f.RequestState == models.FollowStateAccepted
}

// postActivityVisible is the pure decision over an edge-pair snapshot:
// owners always see their own activity; any block hides it; a private
// owner's activity is visible only through an ACCEPTED candidate→owner
// edge. A PENDING edge grants nothing.
func postActivityVisible(candidate, owner string, toOwner, fromOwner *models.Follow, ownerPrivate bool) bool {
	if candidate == owner {
		return true
	}
	if edgeBlocked(toOwner) || edgeBlocked(fromOwner) {
		return false
	}
	if ownerPrivate {
		return edgeAccepted(toOwner)
	}
	return true
}

// followActivityVisible gates follow notifications on blocks only; the
// followed account's privacy does not apply here.
func followActivityVisible(toSubject, fromSubject *models.Follow) bool {
	return !edgeBlocked(toSubject) && !edgeBlocked(fromSubject)
}

func mentionAllowed(actor, mentioned string, toMentioned, fromMentioned *models.Follow, mentionedPrivate bool) bool {
	if actor == mentioned {
		return false
	}
	if edgeBlocked(toMentioned) || edgeBlocked(fromMentioned) {
		return false
	}
	if mentionedPrivate {
		return edgeAccepted(toMentioned)
	}
	return true
}

// CanSeePostActivity reports whether activity on owner's posts (likes,
// comments) may be shown to candidate.
func (p *AccessPolicy) CanSeePostActivity(ctx context.Context, candidate, owner string) (bool, error) {
	if candidate == owner {
		return true, nil
	}
	toOwner, err := p.follows.GetFollow(ctx, candidate, owner)
	if err != nil {
		return false, err
	}
	fromOwner, err := p.follows.GetFollow(ctx, owner, candidate)
	if err != nil {
		return false, err
	}
	ownerPrivate, ok, err := p.accountPrivacy(ctx, owner)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return postActivityVisible(candidate, owner, toOwner, fromOwner, ownerPrivate), nil
}

// CanSeeFollowActivity reports whether candidate may be told about follow
// activity concerning subject.
func (p *AccessPolicy) CanSeeFollowActivity(ctx context.Context, subject, candidate string) (bool, error) {
	toSubject, err := p.follows.GetFollow(ctx, candidate, subject)
	if err != nil {
		return false, err
	}
	fromSubject, err := p.follows.GetFollow(ctx, subject, candidate)
	if err != nil {
		return false, err
	}
	return followActivityVisible(toSubject, fromSubject), nil
}

// CanMention reports whether actor may mention the given user. Mentioning
// yourself never counts.
func (p *AccessPolicy) CanMention(ctx context.Context, actor, mentioned string) (bool, error) {
	if actor == mentioned {
		return false, nil
	}
	toMentioned, err := p.follows.GetFollow(ctx, actor, mentioned)
	if err != nil {
		return false, err
	}
	fromMentioned, err := p.follows.GetFollow(ctx, mentioned, actor)
	if err != nil {
		return false, err
	}
	mentionedPrivate, ok, err := p.accountPrivacy(ctx, mentioned)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return mentionAllowed(actor, mentioned, toMentioned, fromMentioned, mentionedPrivate), nil
}

// FilterPostAudience narrows candidates to those allowed to see activity on
// owner's posts. All edges between owner and the candidate set are fetched
// in one query and the decisions are made in memory, so fan-out cost does
// not grow one round-trip per follower.
func (p *AccessPolicy) FilterPostAudience(ctx context.Context, owner string, candidates []string) ([]string, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	ownerPrivate, ok, err := p.accountPrivacy(ctx, owner)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	to, from, err := p.edgeMaps(ctx, owner, candidates)
	if err != nil {
		return nil, err
	}
	allowed := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if postActivityVisible(c, owner, to[c], from[c], ownerPrivate) {
			allowed = append(allowed, c)
		}
	}
	return allowed, nil
}

// FilterFollowAudience narrows candidates to those allowed to learn about
// follow activity concerning subject.
func (p *AccessPolicy) FilterFollowAudience(ctx context.Context, subject string, candidates []string) ([]string, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	to, from, err := p.edgeMaps(ctx, subject, candidates)
	if err != nil {
		return nil, err
	}
	allowed := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if followActivityVisible(to[c], from[c]) {
			allowed = append(allowed, c)
		}
	}
	return allowed, nil
}

// edgeMaps indexes both directions of every (pivot, candidate) edge pair:
// to[c] is the c→pivot edge, from[c] the pivot→c edge.
func (p *AccessPolicy) edgeMaps(ctx context.Context, pivot string, candidates []string) (to, from map[string]*models.Follow, err error) {
	edges, err := p.follows.GetEdgesWith(ctx, pivot, candidates)
	if err != nil {
		return nil, nil, err
	}
	to = make(map[string]*models.Follow, len(candidates))
	from = make(map[string]*models.Follow, len(candidates))
	for i := range edges {
		e := &edges[i]
		if e.FollowingUserName == pivot {
			to[e.FollowerUserName] = e
		} else {
			from[e.FollowingUserName] = e
		}
	}
	return to, from, nil
}

// accountPrivacy looks up an account's privacy flag. A missing account is
// reported via ok=false; the policy then denies rather than errors, since a
// decision about a vanished account can only be "no".
func (p *AccessPolicy) accountPrivacy(ctx context.Context, userName string) (private, ok bool, err error) {
	user, err := p.users.GetUserByUserName(ctx, userName)
	if err != nil {
		return false, false, err
	}
	if user == nil {
		return false, false, nil
	}
	return user.IsPrivate, true, nil
}
