package command

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kapu/lolbot-go/internal/domain"
	boterrors "github.com/kapu/lolbot-go/pkg/errors"
)

// ErrDuplicateCommand is returned when two commands share a name.
var ErrDuplicateCommand = errors.New("duplicate command")

// Invocation is what middleware sees for one dispatched command.
type Invocation struct {
	Command Command
	// Path is the resolved command path, e.g. "osu user".
	Path    string
	Context *domain.CommandContext
	Args    []string
}

type HandlerFunc func(ctx context.Context, inv *Invocation) domain.Result

// Middleware wraps command execution (logging, metrics).
type Middleware func(next HandlerFunc) HandlerFunc

// Registry stores commands keyed by their lowercase names.
type Registry struct {
	mu          sync.RWMutex
	handlers    map[string]Command
	modules     []Module
	middlewares []Middleware
}

func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Command),
	}
}

// Register adds a single command.
func (r *Registry) Register(cmd Command) error {
	if cmd == nil {
		return nil
	}
	name := strings.ToLower(cmd.Name())
	if name == "" {
		return fmt.Errorf("command name must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateCommand, name)
	}
	r.handlers[name] = cmd
	return nil
}

// AddModule registers every command of m. Nothing is registered when any
// name collides.
func (r *Registry) AddModule(m Module) error {
	if m == nil {
		return fmt.Errorf("module must not be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, len(m.Commands()))
	for _, cmd := range m.Commands() {
		name := strings.ToLower(cmd.Name())
		if _, exists := r.handlers[name]; exists {
			return fmt.Errorf("module %s: %w: %s", m.Name(), ErrDuplicateCommand, name)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("module %s: %w: %s", m.Name(), ErrDuplicateCommand, name)
		}
		seen[name] = struct{}{}
	}

	for _, cmd := range m.Commands() {
		r.handlers[strings.ToLower(cmd.Name())] = cmd
	}
	r.modules = append(r.modules, m)
	return nil
}

// Use appends middleware; the first one added is the outermost.
func (r *Registry) Use(mws ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares = append(r.middlewares, mws...)
}

// Resolve finds the command named by args, descending into subcommands. It
// returns the command, its path and the remaining arguments.
func (r *Registry) Resolve(args []string) (Command, string, []string, bool) {
	if len(args) == 0 {
		return nil, "", nil, false
	}

	r.mu.RLock()
	cmd, ok := r.handlers[strings.ToLower(args[0])]
	r.mu.RUnlock()
	if !ok {
		return nil, "", nil, false
	}

	path := cmd.Name()
	rest := args[1:]
	for len(rest) > 0 {
		parent, isParent := cmd.(Parent)
		if !isParent {
			break
		}
		sub, found := parent.Subcommand(rest[0])
		if !found {
			break
		}
		cmd = sub
		path += " " + sub.Name()
		rest = rest[1:]
	}
	return cmd, path, rest, true
}

// Dispatch runs the command named by args. The boolean is false when no
// command matches, in which case the host should stay silent.
func (r *Registry) Dispatch(ctx context.Context, cmdCtx *domain.CommandContext, args []string) (domain.Result, bool) {
	cmd, path, rest, ok := r.Resolve(args)
	if !ok {
		return domain.Result{}, false
	}

	rest = bindArgs(cmd.Params(), rest)
	inv := &Invocation{
		Command: cmd,
		Path:    path,
		Context: cmdCtx,
		Args:    rest,
	}

	r.mu.RLock()
	mws := make([]Middleware, len(r.middlewares))
	copy(mws, r.middlewares)
	r.mu.RUnlock()

	handler := HandlerFunc(execute)
	for i := len(mws) - 1; i >= 0; i-- {
		handler = mws[i](handler)
	}
	return handler(ctx, inv), true
}

func execute(ctx context.Context, inv *Invocation) domain.Result {
	if p, missing := missingParam(inv.Command.Params(), inv.Args); missing {
		prefix := ""
		if inv.Context != nil {
			prefix = inv.Context.Prefix
		}
		return domain.Fail(boterrors.NewInvalidArgument(fmt.Sprintf(
			"Missing argument `%s`. Usage: `%s%s`", p.Name, prefix, Usage(inv.Path, inv.Command))))
	}
	return inv.Command.Execute(ctx, inv.Context, inv.Args)
}

// Commands returns all top-level commands sorted by name.
func (r *Registry) Commands() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]Command, 0, len(r.handlers))
	for _, cmd := range r.handlers {
		list = append(list, cmd)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name() < list[j].Name()
	})
	return list
}

// Modules returns the loaded modules in load order.
func (r *Registry) Modules() []Module {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Module, len(r.modules))
	copy(out, r.modules)
	return out
}

func (r *Registry) Count() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}
