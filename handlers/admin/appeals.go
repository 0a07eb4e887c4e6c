package admin

import (
	"context"
	"fmt"
	"strconv"

	"appeal-bot/handlers/router"
	"appeal-bot/model"
)

// Appeals toggles whether an appeal server accepts new submissions.
type Appeals struct {
	store GuildConfigStore
}

func NewAppeals(store GuildConfigStore) *Appeals {
	return &Appeals{store: store}
}

func (c *Appeals) Name() string                   { return "appeals" }
func (c *Appeals) RequiredRoles() []model.AppRole { return overseerOnly }
func (c *Appeals) Guildless() bool                { return false }

func (c *Appeals) Check(_ context.Context, rc *router.Context) error {
	return requireAppealGuild(rc)
}

func (c *Appeals) Execute(ctx context.Context, rc *router.Context) error {
	sub, opts := rc.Subcommand()
	if sub != "accepting" {
		rc.Reply("Unknown option: " + sub)
		return nil
	}
	enabled := false
	if opt, ok := opts["boolean"]; ok {
		enabled = opt.BoolValue()
	}

	if err := c.store.UpsertGuildConfig(ctx, rc.GuildID, model.AppealEnabled, strconv.FormatBool(enabled)); err != nil {
		return fmt.Errorf("failed to save appeal flag: %w", err)
	}

	state := "disabled"
	if enabled {
		state = "enabled"
	}
	rc.Reply("Appeal system has been " + state + ".")
	return nil
}
