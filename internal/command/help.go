package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/kapu/lolbot-go/internal/domain"
	"github.com/kapu/lolbot-go/pkg/errors"
)

type HelpCommand struct {
	registry *Registry
}

func NewHelpCommand(registry *Registry) *HelpCommand {
	return &HelpCommand{registry: registry}
}

func (c *HelpCommand) Name() string {
	return "help"
}

func (c *HelpCommand) Description() string {
	return "Shows the available commands"
}

func (c *HelpCommand) Params() []Param {
	return []Param{{Name: "command", Rest: true}}
}

func (c *HelpCommand) Execute(ctx context.Context, cmdCtx *domain.CommandContext, args []string) domain.Result {
	prefix := ""
	if cmdCtx != nil {
		prefix = cmdCtx.Prefix
	}

	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return c.describe(prefix, strings.Fields(args[0]))
	}

	msg := domain.Message{Title: "Commands"}
	for _, m := range c.registry.Modules() {
		lines := make([]string, 0, len(m.Commands()))
		for _, cmd := range m.Commands() {
			lines = append(lines, fmt.Sprintf("`%s%s` %s", prefix, cmd.Name(), summary(cmd.Description())))
		}
		msg.Fields = append(msg.Fields, domain.Field{Name: m.Name(), Value: strings.Join(lines, "\n")})
	}
	msg.Text = fmt.Sprintf("Use `%shelp <command>` for details.", prefix)
	return domain.Success(msg)
}

func (c *HelpCommand) describe(prefix string, path []string) domain.Result {
	cmd, resolved, _, ok := c.registry.Resolve(path)
	if !ok {
		return domain.Fail(errors.NewNotFound(fmt.Sprintf("No command called `%s`.", strings.Join(path, " "))))
	}

	msg := domain.Message{
		Title: prefix + Usage(resolved, cmd),
		Text:  cmd.Description(),
	}
	if parent, isParent := cmd.(Parent); isParent {
		for _, sub := range parent.Subcommands() {
			msg.Fields = append(msg.Fields, domain.Field{
				Name:  prefix + Usage(resolved+" "+sub.Name(), sub),
				Value: summary(sub.Description()),
			})
		}
	}
	return domain.Success(msg)
}

// summary is the first line of a description.
func summary(desc string) string {
	if i := strings.IndexByte(desc, '\n'); i >= 0 {
		return desc[:i]
	}
	return desc
}
