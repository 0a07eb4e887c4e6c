package router

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"appeal-bot/model"
	"appeal-bot/utils/apperr"
	"appeal-bot/utils/database"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResponder struct {
	mu        sync.Mutex
	responses []*discordgo.InteractionResponse
	edits     []string
}

func (f *fakeResponder) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeResponder) InteractionResponseEdit(_ *discordgo.Interaction, edit *discordgo.WebhookEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if edit.Content != nil {
		f.edits = append(f.edits, *edit.Content)
	}
	return &discordgo.Message{}, nil
}

func (f *fakeResponder) lastEdit() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.edits) == 0 {
		return ""
	}
	return f.edits[len(f.edits)-1]
}

type staticConfig struct{ cfg *model.Config }

func (s staticConfig) GetConfig() *model.Config { return s.cfg }

type fakeGuildConfig map[string]string

func (f fakeGuildConfig) FindGuildConfig(_ context.Context, guildID string, key model.GuildConfigKey) (string, error) {
	v, ok := f[guildID+"/"+string(key)]
	if !ok {
		return "", database.ErrNotFound
	}
	return v, nil
}

type testCommand struct {
	name      string
	roles     []model.AppRole
	guildless bool
	checkErr  error
	execErr   error
	block     bool
	executed  bool
}

func (c *testCommand) Name() string                   { return c.name }
func (c *testCommand) RequiredRoles() []model.AppRole { return c.roles }
func (c *testCommand) Guildless() bool                { return c.guildless }
func (c *testCommand) Check(context.Context, *Context) error {
	return c.checkErr
}
func (c *testCommand) Execute(ctx context.Context, rc *Context) error {
	c.executed = true
	if c.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if c.execErr != nil {
		return c.execErr
	}
	rc.Reply("done")
	return nil
}

func commandInteraction(name, guildID string, roles ...string) *discordgo.InteractionCreate {
	i := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:    discordgo.InteractionApplicationCommand,
		GuildID: guildID,
		Data:    discordgo.ApplicationCommandInteractionData{Name: name},
	}}
	if guildID != "" {
		i.Member = &discordgo.Member{User: &discordgo.User{ID: "u1"}, Roles: roles}
	} else {
		i.User = &discordgo.User{ID: "u1"}
	}
	return i
}

func newTestRouter(guilds fakeGuildConfig, cmds ...Command) *Router {
	cfg := &model.Config{Games: []model.GameConfig{{
		Name:           "Blox Fruits",
		AppealServerID: "appeal-guild",
		JudgeRoleID:    "judge-fallback",
		OverseerRoleID: "overseer-fallback",
	}}}
	return New(staticConfig{cfg}, guilds, 50*time.Millisecond, cmds...)
}

func TestHandleCommand(t *testing.T) {
	staff := []model.AppRole{model.RoleOverseer, model.RoleJudge}

	tests := []struct {
		name         string
		cmd          *testCommand
		guilds       fakeGuildConfig
		interaction  *discordgo.InteractionCreate
		wantReply    string
		wantExecuted bool
	}{
		{
			name:         "open command",
			cmd:          &testCommand{name: "ping"},
			interaction:  commandInteraction("ping", "appeal-guild"),
			wantReply:    "done",
			wantExecuted: true,
		},
		{
			name:        "guild command in DM",
			cmd:         &testCommand{name: "ping"},
			interaction: commandInteraction("ping", ""),
			wantReply:   "❌ " + apperr.MissingGuildContext().Message,
		},
		{
			name:         "guildless command in DM",
			cmd:          &testCommand{name: "ping", guildless: true, roles: staff},
			interaction:  commandInteraction("ping", ""),
			wantReply:    "done",
			wantExecuted: true,
		},
		{
			name:         "role from guild config",
			cmd:          &testCommand{name: "verdict", roles: staff},
			guilds:       fakeGuildConfig{"appeal-guild/JUDGE_ROLE_ID": "judge-configured"},
			interaction:  commandInteraction("verdict", "appeal-guild", "judge-configured"),
			wantReply:    "done",
			wantExecuted: true,
		},
		{
			name:         "role falls back to game config",
			cmd:          &testCommand{name: "verdict", roles: staff},
			interaction:  commandInteraction("verdict", "appeal-guild", "overseer-fallback"),
			wantReply:    "done",
			wantExecuted: true,
		},
		{
			name:        "guild config overrides fallback",
			cmd:         &testCommand{name: "setup", roles: []model.AppRole{model.RoleOverseer}},
			guilds:      fakeGuildConfig{"appeal-guild/OVERSEER_ROLE_ID": "overseer-configured"},
			interaction: commandInteraction("setup", "appeal-guild", "overseer-fallback"),
			wantReply:   "❌ " + apperr.MissingPermission("OVERSEER").Message,
		},
		{
			name:        "missing permission",
			cmd:         &testCommand{name: "verdict", roles: staff},
			interaction: commandInteraction("verdict", "appeal-guild", "someone-else"),
			wantReply:   "❌ Only users with the following roles can use this command: OVERSEER, JUDGE",
		},
		{
			name:        "unmapped role",
			cmd:         &testCommand{name: "verdict", roles: staff},
			interaction: commandInteraction("verdict", "other-guild", "overseer-fallback"),
			wantReply:   "❌ Application is misconfigured.",
		},
		{
			name:         "domain error surfaces verbatim",
			cmd:          &testCommand{name: "ping", execErr: apperr.AppealAlreadyCompleted()},
			interaction:  commandInteraction("ping", "appeal-guild"),
			wantReply:    "❌ This appeal has already been completed.",
			wantExecuted: true,
		},
		{
			name:        "precondition failure",
			cmd:         &testCommand{name: "ping", checkErr: apperr.NotAppealChannel()},
			interaction: commandInteraction("ping", "appeal-guild"),
			wantReply:   "❌ This command can only be used in an appeal channel.",
		},
		{
			name:         "unexpected error is hidden",
			cmd:          &testCommand{name: "ping", execErr: errors.New("sql: connection refused")},
			interaction:  commandInteraction("ping", "appeal-guild"),
			wantReply:    "❌ An unexpected error occurred while processing your command.",
			wantExecuted: true,
		},
		{
			name:         "timeout",
			cmd:          &testCommand{name: "ping", block: true},
			interaction:  commandInteraction("ping", "appeal-guild"),
			wantReply:    "❌ The request timed out. Please try again.",
			wantExecuted: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guilds := tt.guilds
			if guilds == nil {
				guilds = fakeGuildConfig{}
			}
			r := newTestRouter(guilds, tt.cmd)
			s := &fakeResponder{}

			r.HandleCommand(s, tt.interaction)

			require.NotEmpty(t, s.responses)
			assert.Equal(t, discordgo.InteractionResponseDeferredChannelMessageWithSource, s.responses[0].Type)
			assert.Equal(t, discordgo.MessageFlagsEphemeral, s.responses[0].Data.Flags)
			assert.Equal(t, tt.wantReply, s.lastEdit())
			assert.Equal(t, tt.wantExecuted, tt.cmd.executed)
		})
	}
}

func TestUnknownCommand(t *testing.T) {
	r := newTestRouter(fakeGuildConfig{}, &testCommand{name: "ping"})
	s := &fakeResponder{}

	r.HandleCommand(s, commandInteraction("nope", "appeal-guild"))

	require.Len(t, s.responses, 1)
	assert.Equal(t, discordgo.InteractionResponseChannelMessageWithSource, s.responses[0].Type)
	assert.Equal(t, "❌ Unknown command.", s.responses[0].Data.Content)
	assert.Empty(t, s.edits)
}

func TestContextSubcommand(t *testing.T) {
	i := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type: discordgo.InteractionApplicationCommand,
		Data: discordgo.ApplicationCommandInteractionData{
			Name: "code",
			Options: []*discordgo.ApplicationCommandInteractionDataOption{{
				Name: "info",
				Type: discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandInteractionDataOption{{
					Name: "access_code", Type: discordgo.ApplicationCommandOptionString, Value: "abc",
				}},
			}},
		},
		User: &discordgo.User{ID: "u1"},
	}}
	c := NewContext(&fakeResponder{}, i, nil)

	sub, opts := c.Subcommand()
	assert.Equal(t, "info", sub)
	assert.Equal(t, "abc", opts["access_code"].StringValue())
	assert.Equal(t, "u1", c.UserID())
	assert.False(t, c.HasGame)
}
