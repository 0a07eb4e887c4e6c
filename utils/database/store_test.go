package database

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"appeal-bot/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "appeals.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newCase(id, discordID string, punishment model.PunishmentType, platform model.Platform) *model.Case {
	return &model.Case{
		ID:                id,
		Game:              "blox_fruits",
		AppealerDiscordID: discordID,
		AppealerRobloxID:  "r-" + discordID,
		Platform:          platform,
		AppealReason:      "I did not exploit, the report was wrong.",
		PunishmentType:    punishment,
		PunishmentReason:  "Exploiting in a public server.",
		ChannelID:         "chan-" + id,
		AppealedAt:        time.Now(),
	}
}

func TestCreateAndFindPending(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := newCase("c1", "u1", model.PunishmentBan, model.PlatformDiscord)
	require.NoError(t, s.CreateCase(ctx, c))

	got, err := s.FindPendingCase(ctx, "blox_fruits", model.PunishmentBan, "u1", model.PlatformDiscord)
	require.NoError(t, err)
	assert.Equal(t, "c1", got.ID)
	assert.Equal(t, model.VerdictPending, got.Verdict)
	assert.Nil(t, got.ClosedAt)
	assert.Nil(t, got.VideoURL)

	_, err = s.FindPendingCase(ctx, "blox_fruits", model.PunishmentWarn, "u1", model.PlatformDiscord)
	assert.ErrorIs(t, err, ErrNotFound)

	byChannel, err := s.FindCaseByChannel(ctx, "chan-c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", byChannel.ID)
}

func TestSinglePendingPerTuple(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateCase(ctx, newCase("c1", "u1", model.PunishmentBan, model.PlatformDiscord)))
	err := s.CreateCase(ctx, newCase("c2", "u1", model.PunishmentBan, model.PlatformDiscord))
	assert.ErrorIs(t, err, ErrDuplicatePending)

	// Different kind or platform is a different tuple.
	require.NoError(t, s.CreateCase(ctx, newCase("c3", "u1", model.PunishmentWarn, model.PlatformDiscord)))
	require.NoError(t, s.CreateCase(ctx, newCase("c4", "u1", model.PunishmentBan, model.PlatformGame)))

	// Once closed, a new pending case for the same tuple is allowed.
	_, err = s.CloseCase(ctx, "c1", model.VerdictDecision{Verdict: model.VerdictRejected, Reason: "no", IssuedBy: "judge", IssuedAt: time.Now()})
	require.NoError(t, err)
	require.NoError(t, s.CreateCase(ctx, newCase("c5", "u1", model.PunishmentBan, model.PlatformDiscord)))
}

func TestConcurrentSubmissionsKeepOnePending(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.CreateCase(ctx, newCase(string(rune('a'+i)), "u1", model.PunishmentBan, model.PlatformDiscord))
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, ErrDuplicatePending)
		}
	}
	assert.Equal(t, 1, ok)
}

func TestCloseCaseIsMonotonic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateCase(ctx, newCase("c1", "u1", model.PunishmentBan, model.PlatformDiscord)))

	closedAt := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	closed, err := s.CloseCase(ctx, "c1", model.VerdictDecision{Verdict: model.VerdictAccepted, Reason: "valid", IssuedBy: "j1", IssuedAt: closedAt})
	require.NoError(t, err)
	assert.Equal(t, model.VerdictAccepted, closed.Verdict)
	require.NotNil(t, closed.ClosedAt)
	assert.True(t, closed.ClosedAt.Equal(closedAt))
	assert.Equal(t, "valid", *closed.VerdictReason)
	assert.Equal(t, "j1", *closed.VerdictBy)

	_, err = s.CloseCase(ctx, "c1", model.VerdictDecision{Verdict: model.VerdictRejected, Reason: "changed", IssuedBy: "j2", IssuedAt: time.Now()})
	assert.ErrorIs(t, err, ErrNotPending)

	after, err := s.FindCaseByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, model.VerdictAccepted, after.Verdict)
	assert.Equal(t, "j1", *after.VerdictBy)

	_, err = s.CloseCase(ctx, "missing", model.VerdictDecision{Verdict: model.VerdictRejected, IssuedAt: time.Now()})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.CloseCase(ctx, "c1", model.VerdictDecision{Verdict: model.VerdictPending, IssuedAt: time.Now()})
	assert.Error(t, err)
}

func TestCleanupCandidatesScope(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.CreateCase(ctx, newCase("pending", "u1", model.PunishmentBan, model.PlatformDiscord)))
	require.NoError(t, s.CreateCase(ctx, newCase("old", "u2", model.PunishmentBan, model.PlatformDiscord)))
	require.NoError(t, s.CreateCase(ctx, newCase("fresh", "u3", model.PunishmentBan, model.PlatformDiscord)))
	require.NoError(t, s.CreateCase(ctx, newCase("done", "u4", model.PunishmentBan, model.PlatformDiscord)))

	closeAt := func(id string, at time.Time) {
		_, err := s.CloseCase(ctx, id, model.VerdictDecision{Verdict: model.VerdictRejected, Reason: "r", IssuedBy: "j", IssuedAt: at})
		require.NoError(t, err)
	}
	closeAt("old", now.Add(-48*time.Hour))
	closeAt("fresh", now.Add(-time.Minute))
	closeAt("done", now.Add(-72*time.Hour))
	require.NoError(t, s.MarkCleanedUp(ctx, "done", now))

	cases, err := s.FindCleanupCandidates(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, "old", cases[0].ID)

	assert.ErrorIs(t, s.MarkCleanedUp(ctx, "pending", now), ErrNotFound)
	assert.ErrorIs(t, s.MarkCleanedUp(ctx, "done", now), ErrNotFound)

	stats, err := s.CaseStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, CaseStats{Pending: 1, Closed: 3, AwaitingCleanup: 2}, stats)
}

func TestCasesOfMostRecentFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	first := newCase("first", "u1", model.PunishmentBan, model.PlatformDiscord)
	first.AppealedAt = base
	second := newCase("second", "u1", model.PunishmentWarn, model.PlatformDiscord)
	second.AppealedAt = base.Add(time.Hour)
	byRoblox := newCase("third", "other", model.PunishmentBan, model.PlatformGame)
	byRoblox.AppealerRobloxID = "r-u1"
	byRoblox.AppealedAt = base.Add(2 * time.Hour)
	for _, c := range []*model.Case{first, second, byRoblox} {
		require.NoError(t, s.CreateCase(ctx, c))
	}

	cases, err := s.CasesOf(ctx, "u1", "r-u1")
	require.NoError(t, err)
	require.Len(t, cases, 3)
	assert.Equal(t, []string{"third", "second", "first"}, []string{cases[0].ID, cases[1].ID, cases[2].ID})
}

func TestGuildConfigUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.FindGuildConfig(ctx, "g1", model.AppealEnabled)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.UpsertGuildConfig(ctx, "g1", model.AppealEnabled, "false"))
	require.NoError(t, s.UpsertGuildConfig(ctx, "g1", model.AppealEnabled, "true"))
	require.NoError(t, s.UpsertGuildConfig(ctx, "g1", model.OpenAppealsCategoryID, "cat"))

	v, err := s.FindGuildConfig(ctx, "g1", model.AppealEnabled)
	require.NoError(t, err)
	assert.Equal(t, "true", v)

	entries, err := s.GuildConfigs(ctx, "g1")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestMessageMirror(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateCase(ctx, newCase("c1", "u1", model.PunishmentBan, model.PlatformDiscord)))

	require.NoError(t, s.InsertMessage(ctx, model.MessageMirror{MessageID: "m1", CaseID: "c1", AuthorID: "u1", Author: "user", Content: "hello", CreatedAt: time.Now()}))
	require.NoError(t, s.UpdateMessage(ctx, "m1", "hello, edited", time.Now()))
	assert.ErrorIs(t, s.UpdateMessage(ctx, "unknown", "x", time.Now()), ErrNotFound)

	msgs, err := s.MessagesOfCase(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello, edited", msgs[0].Content)
	assert.NotNil(t, msgs[0].EditedAt)

	require.NoError(t, s.DeleteMessage(ctx, "m1"))
	msgs, err = s.MessagesOfCase(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestAccessCodeDenylist(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	revoked, err := s.IsAccessCodeRevoked(ctx, "code")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, s.RevokeAccessCode(ctx, model.AccessCodeRevocation{AccessCode: "code", IssuedBy: "o1", IssuedAt: time.Now()}))
	require.NoError(t, s.RevokeAccessCode(ctx, model.AccessCodeRevocation{AccessCode: "code", IssuedBy: "o2", IssuedAt: time.Now()}))

	revoked, err = s.IsAccessCodeRevoked(ctx, "code")
	require.NoError(t, err)
	assert.True(t, revoked)
}
