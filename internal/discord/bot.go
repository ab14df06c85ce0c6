package discord

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/kapu/lolbot-go/internal/adapter"
	"github.com/kapu/lolbot-go/internal/command"
	"github.com/kapu/lolbot-go/internal/domain"
	"github.com/kapu/lolbot-go/pkg/errors"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// Sender delivers rendered messages. *discordgo.Session satisfies it.
type Sender interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// StatsPoster receives the guild count whenever it changes.
type StatsPoster interface {
	Post(ctx context.Context, botID string, guildCount int) error
}

type Dependencies struct {
	Token         string
	MaxConcurrent int
	Logger        *zap.Logger
	Registry      *command.Registry
	Parser        *adapter.MessageAdapter
	Formatter     *adapter.ResponseFormatter
	Poster        StatsPoster
}

// Bot connects the command registry to a Discord gateway session.
type Bot struct {
	deps    *Dependencies
	logger  *zap.Logger
	session *discordgo.Session
	sender  Sender

	// submitMu keeps pool.Go calls from racing pool.Wait, which closes the
	// task channel.
	submitMu sync.RWMutex

	mu      sync.Mutex
	runCtx  context.Context
	cancel  context.CancelFunc
	workers *pool.Pool
	closed  bool
	selfID  string
	guilds  map[string]struct{}
}

func NewBot(deps *Dependencies) (*Bot, error) {
	if deps == nil || deps.Registry == nil || deps.Parser == nil || deps.Formatter == nil {
		return nil, fmt.Errorf("bot dependencies not initialized")
	}
	session, err := discordgo.New("Bot " + deps.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	b := newBot(deps, session)
	b.session = session
	return b, nil
}

func newBot(deps *Dependencies, sender Sender) *Bot {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{
		deps:   deps,
		logger: logger,
		sender: sender,
		guilds: make(map[string]struct{}),
	}
}

// Start opens the gateway and blocks until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	b.begin(ctx)

	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onMessageCreate)
	b.session.AddHandler(b.onGuildCreate)
	b.session.AddHandler(b.onGuildDelete)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	b.logger.Info("Discord session opened", zap.Int("commands", b.deps.Registry.Count()))

	<-ctx.Done()
	return nil
}

func (b *Bot) begin(ctx context.Context) {
	size := b.deps.MaxConcurrent
	if size < 1 {
		size = 1
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.runCtx, b.cancel = context.WithCancel(ctx)
	b.workers = pool.New().WithMaxGoroutines(size)
}

// Shutdown cancels in-flight invocations, waits for them and closes the
// session.
func (b *Bot) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	cancel, workers := b.cancel, b.workers
	b.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	var err error
	if workers != nil {
		done := make(chan struct{})
		go func() {
			// Submitters blocked on a saturated pool drain once cancelled
			// tasks return. Later ones observe closed.
			b.submitMu.Lock()
			b.submitMu.Unlock()
			workers.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			err = fmt.Errorf("waiting for in-flight commands: %w", ctx.Err())
		}
	}

	if b.session != nil {
		if closeErr := b.session.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close Discord session: %w", closeErr)
		}
	}
	return err
}

// submit runs task on the worker pool under the run context. Tasks submitted
// after Shutdown are dropped.
func (b *Bot) submit(name string, task func(ctx context.Context)) bool {
	b.submitMu.RLock()
	defer b.submitMu.RUnlock()

	b.mu.Lock()
	if b.closed || b.workers == nil {
		b.mu.Unlock()
		return false
	}
	ctx, workers := b.runCtx, b.workers
	b.mu.Unlock()

	workers.Go(func() {
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("Recovered from panic",
					zap.String("task", name),
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()),
				)
			}
		}()
		task(ctx)
	})
	return true
}

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	b.mu.Lock()
	if r.User != nil {
		b.selfID = r.User.ID
	}
	b.guilds = make(map[string]struct{}, len(r.Guilds))
	for _, g := range r.Guilds {
		b.guilds[g.ID] = struct{}{}
	}
	count := len(b.guilds)
	b.mu.Unlock()

	name := ""
	if r.User != nil {
		name = r.User.Username
	}
	b.logger.Info("Discord bot is ready", zap.String("user", name), zap.Int("guilds", count))
	b.postStats()
}

func (b *Bot) onGuildCreate(_ *discordgo.Session, g *discordgo.GuildCreate) {
	if g.Guild == nil {
		return
	}
	b.mu.Lock()
	_, known := b.guilds[g.ID]
	b.guilds[g.ID] = struct{}{}
	b.mu.Unlock()

	// Ready already announced the guilds that stream in after connecting.
	if known {
		return
	}
	b.logger.Info("Joined guild", zap.String("guild_id", g.ID), zap.String("guild_name", g.Name))
	b.postStats()
}

func (b *Bot) onGuildDelete(_ *discordgo.Session, g *discordgo.GuildDelete) {
	if g.Guild == nil || g.Unavailable {
		return
	}
	b.mu.Lock()
	_, known := b.guilds[g.ID]
	delete(b.guilds, g.ID)
	b.mu.Unlock()

	if !known {
		return
	}
	b.logger.Info("Left guild", zap.String("guild_id", g.ID))
	b.postStats()
}

var postTargets = []errors.PostTarget{errors.TargetDBL, errors.TargetDBots, errors.TargetDatadog}

func (b *Bot) postStats() {
	if b.deps.Poster == nil {
		return
	}
	b.mu.Lock()
	botID, count := b.selfID, len(b.guilds)
	b.mu.Unlock()

	b.submit("post_stats", func(ctx context.Context) {
		err := b.deps.Poster.Post(ctx, botID, count)
		if err == nil {
			return
		}
		logged := false
		for _, target := range postTargets {
			if errors.IsPostError(err, target) {
				b.logger.Warn("Failed to post stats",
					zap.String("target", string(target)),
					zap.Int("guilds", count),
					zap.Error(err),
				)
				logged = true
			}
		}
		if !logged {
			b.logger.Warn("Failed to post stats", zap.Int("guilds", count), zap.Error(err))
		}
	})
}

func (b *Bot) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Message == nil || m.Author == nil || m.Author.Bot {
		return
	}
	b.mu.Lock()
	selfID := b.selfID
	b.mu.Unlock()
	if m.Author.ID == selfID {
		return
	}

	args, ok := b.deps.Parser.Parse(m.Content)
	if !ok {
		return
	}

	authorName := m.Author.GlobalName
	if authorName == "" {
		authorName = m.Author.Username
	}
	cmdCtx := domain.NewCommandContext(m.GuildID, m.ChannelID, m.Author.ID, authorName, b.deps.Parser.Prefix(), m.Content)

	if !b.submit(args[0], func(ctx context.Context) {
		b.handle(ctx, cmdCtx, args)
	}) {
		b.logger.Debug("Dropped command during shutdown", zap.String("command", args[0]))
	}
}

func (b *Bot) handle(ctx context.Context, cmdCtx *domain.CommandContext, args []string) {
	result, found := b.deps.Registry.Dispatch(ctx, cmdCtx, args)
	if !found {
		return
	}
	if ctx.Err() != nil {
		b.logger.Debug("Command cancelled, not delivering",
			zap.String("invocation_id", cmdCtx.InvocationID),
			zap.String("command", args[0]),
		)
		return
	}

	msg := b.deps.Formatter.Format(result)
	if msg == nil {
		return
	}
	if _, err := b.sender.ChannelMessageSendComplex(cmdCtx.ChannelID, msg, discordgo.WithContext(ctx)); err != nil {
		b.logger.Error("Failed to send message",
			zap.String("invocation_id", cmdCtx.InvocationID),
			zap.String("channel_id", cmdCtx.ChannelID),
			zap.Error(err),
		)
	}
}
