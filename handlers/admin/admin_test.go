package admin

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"appeal-bot/handlers/router"
	"appeal-bot/model"
	"appeal-bot/utils/apperr"
	"appeal-bot/utils/database"
	"appeal-bot/utils/discordtest"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const appealGuild = "appeal-guild"

var game = model.GameConfig{
	Name:                 "Blox Fruits",
	CrossroadDescription: []string{"one", "two", "three", "four"},
	AppealServerID:       appealGuild,
	CommunityServerID:    "community-guild",
	JudgeRoleID:          "judge-role",
	OverseerRoleID:       "overseer-role",
}

var cfg = &model.Config{Games: []model.GameConfig{game}}

type fixedRoles struct{}

func (fixedRoles) ResolveRole(_ context.Context, _ string, role model.AppRole) (string, error) {
	return role.FallbackID(game), nil
}

func newStore(t *testing.T) *database.Store {
	t.Helper()
	store, err := database.Open(filepath.Join(t.TempDir(), "appeals.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func commandContext(s *discordtest.Session, guildID string, options ...*discordgo.ApplicationCommandInteractionDataOption) *router.Context {
	i := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:      discordgo.InteractionApplicationCommand,
		GuildID:   guildID,
		ChannelID: "panel-channel",
		Member:    &discordgo.Member{User: &discordgo.User{ID: "overseer"}},
		Data:      discordgo.ApplicationCommandInteractionData{Options: options},
	}}
	return router.NewContext(s, i, cfg)
}

func subcommand(name string, options ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:    name,
		Type:    discordgo.ApplicationCommandOptionSubCommand,
		Options: options,
	}
}

func TestSetupCreatesCategories(t *testing.T) {
	store := newStore(t)
	session := discordtest.New()
	cmd := NewSetup(session, store, fixedRoles{})
	rc := commandContext(session, appealGuild)
	ctx := context.Background()

	require.NoError(t, cmd.Check(ctx, rc))
	require.NoError(t, cmd.Execute(ctx, rc))
	assert.Equal(t, "Server has been successfully configured", session.LastFollowup())

	require.Len(t, session.Created, 2)
	assert.Equal(t, OpenAppealsCategory, session.Created[0].Name)
	assert.Equal(t, discordgo.ChannelTypeGuildCategory, session.Created[0].Type)
	assert.Equal(t, ClosedAppealsCategory, session.Created[1].Name)

	open, err := store.FindGuildConfig(ctx, appealGuild, model.OpenAppealsCategoryID)
	require.NoError(t, err)
	assert.NotEmpty(t, open)
	closed, err := store.FindGuildConfig(ctx, appealGuild, model.ClosedAppealsCategoryID)
	require.NoError(t, err)
	assert.NotEqual(t, open, closed)

	// A second run finds the categories it created.
	err = cmd.Check(ctx, rc)
	assert.True(t, apperr.HasCode(err, apperr.CodeCategoryAlreadySetup))
}

func TestSetupRejectsNonAppealGuild(t *testing.T) {
	session := discordtest.New()
	cmd := NewSetup(session, newStore(t), fixedRoles{})

	err := cmd.Check(context.Background(), commandContext(session, "random-guild"))
	assert.True(t, apperr.HasCode(err, apperr.CodeNotAppealGuild))
}

func TestAppealsToggle(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		reply   string
		stored  string
	}{
		{"enable", true, "Appeal system has been enabled.", "true"},
		{"disable", false, "Appeal system has been disabled.", "false"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(t)
			session := discordtest.New()
			cmd := NewAppeals(store)
			rc := commandContext(session, appealGuild, subcommand("accepting",
				&discordgo.ApplicationCommandInteractionDataOption{
					Name: "boolean", Type: discordgo.ApplicationCommandOptionBoolean, Value: tt.enabled,
				}))

			require.NoError(t, cmd.Check(context.Background(), rc))
			require.NoError(t, cmd.Execute(context.Background(), rc))
			assert.Equal(t, tt.reply, session.LastFollowup())

			got, err := store.FindGuildConfig(context.Background(), appealGuild, model.AppealEnabled)
			require.NoError(t, err)
			assert.Equal(t, tt.stored, got)
		})
	}
}

func TestPanelCreate(t *testing.T) {
	session := discordtest.New()
	cmd := NewPanel(session)
	rc := commandContext(session, appealGuild, subcommand("create",
		&discordgo.ApplicationCommandInteractionDataOption{
			Name: "type", Type: discordgo.ApplicationCommandOptionString, Value: "crossroads",
		}))

	require.NoError(t, cmd.Execute(context.Background(), rc))
	assert.Equal(t, "Panel has been created", session.LastFollowup())

	require.Len(t, session.Messages["panel-channel"], 1)
	msg := session.Messages["panel-channel"][0]
	assert.Equal(t, "one\ntwo\nthree", msg.Embeds[0].Description)
	row := msg.Components[0].(discordgo.ActionsRow)
	assert.Equal(t, "crossroads:discord_btn_blox_fruits", row.Components[0].(discordgo.Button).CustomID)
	assert.Equal(t, "crossroads:in-game_btn_blox_fruits", row.Components[1].(discordgo.Button).CustomID)
}

func TestPanelSendFailure(t *testing.T) {
	session := discordtest.New()
	session.SendErr = errors.New("missing access")
	rc := commandContext(session, appealGuild, subcommand("create"))

	err := NewPanel(session).Execute(context.Background(), rc)
	assert.True(t, apperr.HasCode(err, apperr.CodeExternalService))
}

type fixedLatency time.Duration

func (f fixedLatency) HeartbeatLatency() time.Duration { return time.Duration(f) }

func TestStatusReportsCaseCounts(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateCase(ctx, &model.Case{
		ID: "c1", Game: game.Tag(), AppealerDiscordID: "u1", AppealerRobloxID: "42",
		Platform: model.PlatformDiscord, PunishmentType: model.PunishmentBan,
		PunishmentReason: "reason text", AppealReason: "appeal text",
		ChannelID: "ch1", AppealedAt: time.Now().UTC(),
	}))

	session := discordtest.New()
	cmd := NewStatus(store, fixedLatency(42*time.Millisecond), filepath.Join(t.TempDir(), "missing.db"))
	require.NoError(t, cmd.Execute(ctx, commandContext(session, appealGuild)))

	require.Len(t, session.Embeds, 1)
	fields := map[string]string{}
	for _, f := range session.Embeds[0].Fields {
		fields[f.Name] = f.Value
	}
	assert.Equal(t, "1", fields["Pending cases"])
	assert.Equal(t, "0", fields["Closed cases"])
	assert.Equal(t, "42ms", fields["Gateway latency"])
}
