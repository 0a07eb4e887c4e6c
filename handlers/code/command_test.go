package code

import (
	"context"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"appeal-bot/handlers/router"
	"appeal-bot/model"
	"appeal-bot/utils/accesscode"
	"appeal-bot/utils/apperr"
	"appeal-bot/utils/database"
	"appeal-bot/utils/discordtest"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	appealGuild = "appeal-guild"
	caseID      = "4b5e2a47-2f4e-4d8e-9a38-0c1f6b7f0e11"
)

var game = model.GameConfig{
	Name:           "Blox Fruits",
	AppealServerID: appealGuild,
	JudgeRoleID:    "judge-role",
	OverseerRoleID: "overseer-role",
}

type staticConfig struct{ cfg *model.Config }

func (s staticConfig) GetConfig() *model.Config { return s.cfg }

type fixedRoles struct{}

func (fixedRoles) ResolveRole(_ context.Context, _ string, role model.AppRole) (string, error) {
	return role.FallbackID(game), nil
}

type fixture struct {
	store   *database.Store
	session *discordtest.Session
	codec   *accesscode.Codec
	cmd     *Command
	config  staticConfig
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := database.Open(filepath.Join(t.TempDir(), "appeals.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.CreateCase(context.Background(), &model.Case{
		ID: caseID, Game: game.Tag(), AppealerDiscordID: "u1", AppealerRobloxID: "42",
		Platform: model.PlatformDiscord, PunishmentType: model.PunishmentBan,
		PunishmentReason: "reason text", AppealReason: "appeal text",
		ChannelID: "ch1", AppealedAt: time.Now().UTC(),
	}))

	codec, err := accesscode.New("secret", "salt")
	require.NoError(t, err)
	cfg := staticConfig{&model.Config{AccessDomain: "appeals.example.com", Games: []model.GameConfig{game}}}
	session := discordtest.New()
	return &fixture{
		store:   store,
		session: session,
		codec:   codec,
		config:  cfg,
		cmd:     NewCommand(cfg, store, accesscode.NewVerifier(codec, store), codec, fixedRoles{}, session),
	}
}

func (f *fixture) context(roles []string, sub string, options ...*discordgo.ApplicationCommandInteractionDataOption) *router.Context {
	i := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:    discordgo.InteractionApplicationCommand,
		GuildID: appealGuild,
		Member:  &discordgo.Member{User: &discordgo.User{ID: "staff-1"}, Roles: roles},
		Data: discordgo.ApplicationCommandInteractionData{
			Name: CommandName,
			Options: []*discordgo.ApplicationCommandInteractionDataOption{{
				Name: sub, Type: discordgo.ApplicationCommandOptionSubCommand, Options: options,
			}},
		},
	}}
	return router.NewContext(f.session, i, f.config.GetConfig())
}

func stringOption(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionString, Value: value}
}

func TestGenerateSendsAccessLink(t *testing.T) {
	f := newFixture(t)
	rc := f.context([]string{"judge-role"}, "generate", stringOption("case_id", caseID))

	require.NoError(t, f.cmd.Execute(context.Background(), rc))
	assert.Equal(t, "A message containing access details has been delivered to your DM", f.session.LastFollowup())

	require.Len(t, f.session.DMs["staff-1"], 1)
	embed := f.session.DMs["staff-1"][0].Embeds[0]
	assert.Equal(t, "Case Access Details", embed.Title)

	link := embed.Fields[0].Value
	prefix := "[Here](https://appeals.example.com/appeals/"
	require.True(t, strings.HasPrefix(link, prefix))
	code, err := url.PathUnescape(strings.TrimSuffix(strings.TrimPrefix(link, prefix), ")"))
	require.NoError(t, err)
	details, ok := f.codec.Decode(code)
	require.True(t, ok)
	assert.Equal(t, caseID, details.CaseID)
	assert.Equal(t, "staff-1", details.RequestedBy)
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name    string
		caseID  string
		message string
	}{
		{"not a uuid", "abc", "This is not a valid case ID"},
		{"unknown case", "8d9d6a8e-1c8f-4a53-9f0c-5b7c3f0d2a11", "Case does not exist or access code is invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			err := f.cmd.Execute(context.Background(), f.context(nil, "generate", stringOption("case_id", tt.caseID)))
			require.Error(t, err)
			assert.Equal(t, tt.message, apperr.UserMessage(err))
			assert.Empty(t, f.session.DMs)
		})
	}
}

func TestInfo(t *testing.T) {
	f := newFixture(t)
	code, err := f.codec.Encode(caseID, "u1")
	require.NoError(t, err)

	require.NoError(t, f.cmd.Execute(context.Background(), f.context(nil, "info", stringOption("access_code", code))))
	require.Len(t, f.session.Embeds, 1)
	assert.Equal(t, "ACCESS DETAILS", f.session.Embeds[0].Title)

	require.NoError(t, f.cmd.Execute(context.Background(), f.context(nil, "info", stringOption("access_code", "garbage"))))
	assert.Equal(t, "Not a valid access code", f.session.LastFollowup())
}

func TestRevokeInvalidatesCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	code, err := f.codec.Encode(caseID, "u1")
	require.NoError(t, err)

	rc := f.context([]string{"overseer-role"}, "revoke", stringOption("access_code", code))
	require.NoError(t, f.cmd.Check(ctx, rc))
	require.NoError(t, f.cmd.Execute(ctx, rc))
	assert.Equal(t, "Access code has been revoked.", f.session.LastFollowup())

	revoked, err := f.store.IsAccessCodeRevoked(ctx, code)
	require.NoError(t, err)
	assert.True(t, revoked)

	require.NoError(t, f.cmd.Execute(ctx, f.context(nil, "info", stringOption("access_code", code))))
	assert.Equal(t, "Not a valid access code", f.session.LastFollowup())
}

func TestRevokeRequiresOverseer(t *testing.T) {
	f := newFixture(t)
	rc := f.context([]string{"judge-role"}, "revoke", stringOption("access_code", "x"))

	err := f.cmd.Check(context.Background(), rc)
	assert.True(t, apperr.HasCode(err, apperr.CodeMissingPermission))

	require.NoError(t, f.cmd.Check(context.Background(), f.context([]string{"judge-role"}, "info")))
}
