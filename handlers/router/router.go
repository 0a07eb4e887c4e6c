package router

import (
	"context"
	"errors"
	"time"

	"appeal-bot/model"
	"appeal-bot/utils"
	"appeal-bot/utils/apperr"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

// Command is a slash command served by the Router.
type Command interface {
	Name() string
	// RequiredRoles lists the abstract roles allowed to run the command; any one suffices.
	// An empty list means everyone.
	RequiredRoles() []model.AppRole
	// Guildless commands may run outside a guild.
	Guildless() bool
	Check(ctx context.Context, c *Context) error
	Execute(ctx context.Context, c *Context) error
}

// GuildConfigReader resolves per-guild settings.
type GuildConfigReader interface {
	FindGuildConfig(ctx context.Context, guildID string, key model.GuildConfigKey) (string, error)
}

// Router validates context and permissions and dispatches slash commands.
type Router struct {
	*RoleResolver
	commands map[string]Command
	config   model.ConfigProvider
	timeout  time.Duration
	log      *logrus.Entry
}

func New(config model.ConfigProvider, guilds GuildConfigReader, timeout time.Duration, commands ...Command) *Router {
	registry := make(map[string]Command, len(commands))
	for _, cmd := range commands {
		registry[cmd.Name()] = cmd
	}
	return &Router{
		RoleResolver: NewRoleResolver(config, guilds),
		commands:     registry,
		config:       config,
		timeout:      timeout,
		log:          utils.Component("router"),
	}
}

// Commands returns the registered command names.
func (r *Router) Commands() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	return names
}

// HandleCommand runs one application command interaction end to end.
func (r *Router) HandleCommand(s utils.Responder, i *discordgo.InteractionCreate) {
	name := i.ApplicationCommandData().Name
	entry := r.log.WithFields(logrus.Fields{"command": name, "guild_id": i.GuildID})
	if user := utils.InteractionUser(i); user != nil {
		entry = entry.WithField("user_id", user.ID)
	}

	cmd, ok := r.commands[name]
	if !ok {
		entry.Warn("Unknown command")
		utils.SendErrorResponse(s, i, "Unknown command.")
		return
	}

	if err := utils.DeferResponse(s, i, true); err != nil {
		entry.WithError(err).Error("Failed to defer response")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	c := NewContext(s, i, r.config.GetConfig())
	err := r.run(ctx, cmd, c)
	if err == nil {
		return
	}
	err = Normalize(ctx, err)
	Report(entry, err)
	utils.SendFollowUpError(s, i.Interaction, apperr.UserMessage(err))
}

func (r *Router) run(ctx context.Context, cmd Command, c *Context) error {
	if c.GuildID == "" {
		if !cmd.Guildless() {
			return apperr.MissingGuildContext()
		}
	} else if required := cmd.RequiredRoles(); len(required) > 0 {
		if err := r.authorize(ctx, c, required); err != nil {
			return err
		}
	}
	if err := cmd.Check(ctx, c); err != nil {
		return err
	}
	return cmd.Execute(ctx, c)
}

func (r *Router) authorize(ctx context.Context, c *Context, required []model.AppRole) error {
	roleIDs := make([]string, 0, len(required))
	names := make([]string, 0, len(required))
	for _, role := range required {
		id, err := r.ResolveRole(ctx, c.GuildID, role)
		if err != nil {
			return err
		}
		roleIDs = append(roleIDs, id)
		names = append(names, string(role))
	}

	var memberRoles []string
	if c.Interaction.Member != nil {
		memberRoles = c.Interaction.Member.Roles
	}
	if !utils.HasAnyRole(memberRoles, roleIDs) {
		return apperr.MissingPermission(names...)
	}
	return nil
}

// Normalize turns an expired deadline into the timeout error. A user error decided
// before the deadline is kept.
func Normalize(ctx context.Context, err error) error {
	if e, ok := apperr.As(err); ok && (e.Kind == apperr.KindUser || e.Kind == apperr.KindTimeout) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperr.Timeout(err)
	}
	return err
}

// Report logs err at the level its kind calls for.
func Report(entry *logrus.Entry, err error) {
	e, ok := apperr.As(err)
	if !ok {
		entry.WithError(err).Error("Unexpected error while handling interaction")
		return
	}
	entry = entry.WithField("code", e.Code)
	switch e.Kind {
	case apperr.KindUser:
		entry.WithError(err).Debug("Interaction rejected")
	case apperr.KindConfiguration:
		entry.WithError(err).Error("Configuration error")
	case apperr.KindTimeout:
		entry.WithError(err).Warn("Interaction timed out")
	default:
		entry.WithError(err).Error("External service error")
	}
}
