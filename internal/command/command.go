package command

import (
	"context"
	"strings"

	"github.com/kapu/lolbot-go/internal/domain"
)

// Param declares one positional argument of a command.
type Param struct {
	Name     string
	Required bool
	// Rest makes the parameter consume every remaining word as one value.
	Rest bool
}

type Command interface {
	Name() string
	Description() string
	Params() []Param
	Execute(ctx context.Context, cmdCtx *domain.CommandContext, args []string) domain.Result
}

// Parent is a command with subcommands. The registry descends into a
// subcommand when the next argument names one; otherwise the parent runs.
type Parent interface {
	Command
	Subcommand(name string) (Command, bool)
	Subcommands() []Command
}

// Module is an independently loadable bundle of commands. Each module package
// exposes a Setup function returning one.
type Module interface {
	Name() string
	Commands() []Command
}

// Func adapts a plain function into a Command.
type Func struct {
	CommandName string
	Doc         string
	Args        []Param
	Run         func(ctx context.Context, cmdCtx *domain.CommandContext, args []string) domain.Result
}

func (f *Func) Name() string        { return f.CommandName }
func (f *Func) Description() string { return f.Doc }
func (f *Func) Params() []Param     { return f.Args }

func (f *Func) Execute(ctx context.Context, cmdCtx *domain.CommandContext, args []string) domain.Result {
	return f.Run(ctx, cmdCtx, args)
}

// Group is a Parent whose own Execute is a fallback, typically a help message.
type Group struct {
	Func
	subs  map[string]Command
	order []Command
}

func NewGroup(parent Func, subs ...Command) *Group {
	g := &Group{
		Func: parent,
		subs: make(map[string]Command, len(subs)),
	}
	for _, sub := range subs {
		if sub == nil {
			continue
		}
		g.subs[strings.ToLower(sub.Name())] = sub
		g.order = append(g.order, sub)
	}
	return g
}

func (g *Group) Subcommand(name string) (Command, bool) {
	sub, ok := g.subs[strings.ToLower(name)]
	return sub, ok
}

func (g *Group) Subcommands() []Command {
	return g.order
}

// Usage renders "path <required> [optional]".
func Usage(path string, cmd Command) string {
	var b strings.Builder
	b.WriteString(path)
	for _, p := range cmd.Params() {
		b.WriteString(" ")
		if p.Required {
			b.WriteString("<" + p.Name + ">")
		} else {
			b.WriteString("[" + p.Name + "]")
		}
	}
	return b.String()
}

// bindArgs folds a Rest parameter's words into one argument.
func bindArgs(params []Param, args []string) []string {
	for i, p := range params {
		if p.Rest && len(args) > i {
			bound := make([]string, 0, i+1)
			bound = append(bound, args[:i]...)
			return append(bound, strings.Join(args[i:], " "))
		}
	}
	return args
}

// missingParam returns the first required parameter without a value.
func missingParam(params []Param, args []string) (Param, bool) {
	for i, p := range params {
		if p.Required && (i >= len(args) || strings.TrimSpace(args[i]) == "") {
			return p, true
		}
	}
	return Param{}, false
}
