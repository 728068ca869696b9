package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opengram/backend/internal/models"
)

func TestCanSeePostActivity_PublicOwner(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", false)
	env.addUser(t, "bob", true)

	ok, err := env.policy.CanSeePostActivity(context.Background(), "bob", "alice")
	require.NoError(t, err)
	assert.True(t, ok, "public account activity is visible to strangers")
}

func TestCanSeePostActivity_OwnerAlwaysSeesOwn(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", true)

	ok, err := env.policy.CanSeePostActivity(context.Background(), "alice", "alice")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCanSeePostActivity_BlockHidesBothDirections(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", false)
	env.addUser(t, "bob", false)

	// bob blocked alice: alice cannot see bob, and bob cannot see alice.
	env.addBlock(t, "bob", "alice")

	ok, err := env.policy.CanSeePostActivity(context.Background(), "alice", "bob")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = env.policy.CanSeePostActivity(context.Background(), "bob", "alice")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanSeePostActivity_PrivateRequiresAccepted(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "owner", true)
	env.addUser(t, "stranger", false)
	env.addUser(t, "requester", false)
	env.addUser(t, "follower", false)

	env.addFollow(t, "requester", "owner", models.FollowStatePending)
	env.addFollow(t, "follower", "owner", models.FollowStateAccepted)

	ok, err := env.policy.CanSeePostActivity(context.Background(), "stranger", "owner")
	require.NoError(t, err)
	assert.False(t, ok, "stranger cannot see a private account")

	ok, err = env.policy.CanSeePostActivity(context.Background(), "requester", "owner")
	require.NoError(t, err)
	assert.False(t, ok, "a pending request grants no visibility")

	ok, err = env.policy.CanSeePostActivity(context.Background(), "follower", "owner")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCanSeePostActivity_MissingOwnerDenies(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", false)

	ok, err := env.policy.CanSeePostActivity(context.Background(), "alice", "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanSeeFollowActivity_IgnoresPrivacyButNotBlocks(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "subject", true)
	env.addUser(t, "viewer", false)
	env.addUser(t, "enemy", false)

	ok, err := env.policy.CanSeeFollowActivity(context.Background(), "subject", "viewer")
	require.NoError(t, err)
	assert.True(t, ok, "privacy does not gate follow activity")

	env.addBlock(t, "subject", "enemy")
	ok, err = env.policy.CanSeeFollowActivity(context.Background(), "subject", "enemy")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanMention(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "alice", false)
	env.addUser(t, "bob", false)
	env.addUser(t, "carol", true)
	env.addUser(t, "dave", true)
	env.addUser(t, "erin", false)

	env.addFollow(t, "alice", "dave", models.FollowStateAccepted)
	env.addBlock(t, "bob", "alice")

	cases := []struct {
		name      string
		actor     string
		mentioned string
		want      bool
	}{
		{"self mention denied", "alice", "alice", false},
		{"stranger to public allowed", "alice", "erin", true},
		{"blocker cannot mention blocked", "bob", "alice", false},
		{"blocked cannot mention blocker", "alice", "bob", false},
		{"private target without follow denied", "alice", "carol", false},
		{"private target with accepted follow allowed", "alice", "dave", true},
		{"missing target denied", "alice", "ghost", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, err := env.policy.CanMention(context.Background(), tc.actor, tc.mentioned)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
		})
	}
}

// The batch filters must agree with the point lookups for every candidate.
func TestFilterPostAudience_MatchesPointDecisions(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "owner", true)
	candidates := []string{"accepted", "pending", "blockedby", "blocker", "stranger", "owner"}
	for _, c := range candidates {
		if c != "owner" {
			env.addUser(t, c, false)
		}
	}
	env.addFollow(t, "accepted", "owner", models.FollowStateAccepted)
	env.addFollow(t, "pending", "owner", models.FollowStatePending)
	env.addBlock(t, "owner", "blockedby")
	env.addBlock(t, "blocker", "owner")

	allowed, err := env.policy.FilterPostAudience(context.Background(), "owner", candidates)
	require.NoError(t, err)

	allowedSet := map[string]bool{}
	for _, a := range allowed {
		allowedSet[a] = true
	}
	for _, c := range candidates {
		point, err := env.policy.CanSeePostActivity(context.Background(), c, "owner")
		require.NoError(t, err)
		assert.Equalf(t, point, allowedSet[c], "batch and point decisions disagree for %q", c)
	}
	assert.ElementsMatch(t, []string{"accepted", "owner"}, allowed)
}

func TestFilterFollowAudience_ExcludesBlockedEdges(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "subject", false)
	for _, c := range []string{"clean", "blockedby", "blocker"} {
		env.addUser(t, c, false)
	}
	env.addBlock(t, "subject", "blockedby")
	env.addBlock(t, "blocker", "subject")

	allowed, err := env.policy.FilterFollowAudience(context.Background(), "subject", []string{"clean", "blockedby", "blocker"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"clean"}, allowed)
}

func TestFilterPostAudience_EmptyCandidates(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "owner", false)

	allowed, err := env.policy.FilterPostAudience(context.Background(), "owner", nil)
	require.NoError(t, err)
	assert.Empty(t, allowed)
}
