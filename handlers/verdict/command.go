package verdict

import (
	"context"
	"strings"

	"appeal-bot/handlers/router"
	"appeal-bot/model"
	"appeal-bot/utils/apperr"
)

const CommandName = "verdict"

// Command is the /verdict slash command.
type Command struct {
	processor *Processor
}

func NewCommand(p *Processor) *Command {
	return &Command{processor: p}
}

func (c *Command) Name() string { return CommandName }

func (c *Command) RequiredRoles() []model.AppRole {
	return []model.AppRole{model.RoleOverseer, model.RoleJudge}
}

func (c *Command) Guildless() bool { return false }

// Check rejects channels without a pending case before anything else runs.
func (c *Command) Check(ctx context.Context, rc *router.Context) error {
	_, err := c.processor.PendingCase(ctx, rc.ChannelID)
	return err
}

func (c *Command) Execute(ctx context.Context, rc *router.Context) error {
	opts := rc.Options()

	var decision string
	if opt, ok := opts["decision"]; ok {
		decision = opt.StringValue()
	}
	verdict, ok := ParseDecision(decision)
	if !ok {
		return apperr.New(apperr.KindUser, apperr.CodeInvalidAppealData, "Decision must be either accept or reject.")
	}

	var reason string
	if opt, ok := opts["reason"]; ok {
		reason = strings.TrimSpace(opt.StringValue())
	}

	if _, err := c.processor.Issue(ctx, rc.GuildID, rc.ChannelID, model.VerdictDecision{
		Verdict:  verdict,
		Reason:   reason,
		IssuedBy: rc.UserID(),
	}); err != nil {
		return err
	}
	rc.Reply("Verdict applied successfully!")
	return nil
}

// ParseDecision maps the command choice to a verdict.
func ParseDecision(decision string) (model.Verdict, bool) {
	switch strings.ToLower(strings.TrimSpace(decision)) {
	case "accept":
		return model.VerdictAccepted, true
	case "reject":
		return model.VerdictRejected, true
	}
	return "", false
}
