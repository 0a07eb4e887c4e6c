// Package code serves the access code commands.
package code

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"appeal-bot/handlers/router"
	"appeal-bot/model"
	"appeal-bot/utils"
	"appeal-bot/utils/accesscode"
	"appeal-bot/utils/apperr"
	"appeal-bot/utils/database"
	"appeal-bot/utils/embeds"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const CommandName = "code"

// Store is the persistence the access code commands need.
type Store interface {
	FindCaseByID(ctx context.Context, id string) (*model.Case, error)
	RevokeAccessCode(ctx context.Context, r model.AccessCodeRevocation) error
}

// Verifier decodes access codes against the denylist.
type Verifier interface {
	Verify(ctx context.Context, code string) (accesscode.Details, error)
}

// Encoder issues access codes.
type Encoder interface {
	Encode(caseID, requesterID string) (string, error)
}

// RoleResolver maps abstract staff roles to guild role ids.
type RoleResolver interface {
	ResolveRole(ctx context.Context, guildID string, role model.AppRole) (string, error)
}

// Command is /code with the generate, info and revoke subcommands.
type Command struct {
	config   model.ConfigProvider
	store    Store
	verifier Verifier
	encoder  Encoder
	roles    RoleResolver
	dm       utils.DirectMessenger
	now      func() time.Time
	log      *logrus.Entry
}

func NewCommand(config model.ConfigProvider, store Store, verifier Verifier, encoder Encoder, roles RoleResolver, dm utils.DirectMessenger) *Command {
	return &Command{
		config:   config,
		store:    store,
		verifier: verifier,
		encoder:  encoder,
		roles:    roles,
		dm:       dm,
		now:      time.Now,
		log:      utils.Component("code"),
	}
}

func (c *Command) Name() string { return CommandName }

func (c *Command) RequiredRoles() []model.AppRole {
	return []model.AppRole{model.RoleOverseer, model.RoleJudge}
}

func (c *Command) Guildless() bool { return false }

// Check restricts revoke to overseers.
func (c *Command) Check(ctx context.Context, rc *router.Context) error {
	sub, _ := rc.Subcommand()
	if sub != "revoke" {
		return nil
	}
	overseerRoleID, err := c.roles.ResolveRole(ctx, rc.GuildID, model.RoleOverseer)
	if err != nil {
		return err
	}
	var memberRoles []string
	if rc.Interaction.Member != nil {
		memberRoles = rc.Interaction.Member.Roles
	}
	if !utils.HasAnyRole(memberRoles, []string{overseerRoleID}) {
		return apperr.MissingPermission(string(model.RoleOverseer))
	}
	return nil
}

func (c *Command) Execute(ctx context.Context, rc *router.Context) error {
	sub, opts := rc.Subcommand()
	value := func(name string) string {
		if opt, ok := opts[name]; ok {
			return strings.TrimSpace(opt.StringValue())
		}
		return ""
	}

	switch sub {
	case "generate":
		return c.generate(ctx, rc, value("case_id"))
	case "info":
		return c.info(ctx, rc, value("access_code"))
	case "revoke":
		return c.revoke(ctx, rc, value("access_code"))
	default:
		return fmt.Errorf("unexpected subcommand %q", sub)
	}
}

func (c *Command) generate(ctx context.Context, rc *router.Context, caseID string) error {
	id, err := uuid.Parse(caseID)
	if err != nil {
		return apperr.New(apperr.KindUser, apperr.CodeCaseNotFound, "This is not a valid case ID")
	}
	found, err := c.store.FindCaseByID(ctx, id.String())
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return apperr.CaseNotFound()
		}
		return fmt.Errorf("failed to look up case %s: %w", id, err)
	}

	code, err := c.encoder.Encode(found.ID, rc.UserID())
	if err != nil {
		return fmt.Errorf("failed to generate access code: %w", err)
	}
	link := embeds.AccessLink(c.config.GetConfig().AccessDomain, code)
	if err := utils.SendPrivateEmbedMessage(ctx, c.dm, rc.UserID(), embeds.CaseAccess(found.ID, link)); err != nil {
		return apperr.ExternalService("Failed to deliver access details to your DM.", err)
	}

	c.log.WithFields(logrus.Fields{"case_id": found.ID, "user_id": rc.UserID()}).Info("Access code generated")
	rc.Reply("A message containing access details has been delivered to your DM")
	return nil
}

func (c *Command) info(ctx context.Context, rc *router.Context, code string) error {
	details, err := c.verifier.Verify(ctx, code)
	if err != nil {
		if errors.Is(err, accesscode.ErrInvalidCode) {
			rc.Reply("Not a valid access code")
			return nil
		}
		return err
	}
	rc.ReplyEmbed(embeds.AccessCodeDetails(details))
	return nil
}

func (c *Command) revoke(ctx context.Context, rc *router.Context, code string) error {
	if code == "" {
		rc.Reply("Not a valid access code")
		return nil
	}
	err := c.store.RevokeAccessCode(ctx, model.AccessCodeRevocation{
		AccessCode: code,
		IssuedBy:   rc.UserID(),
		IssuedAt:   c.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to revoke access code: %w", err)
	}
	c.log.WithField("user_id", rc.UserID()).Info("Access code revoked")
	rc.Reply("Access code has been revoked.")
	return nil
}
