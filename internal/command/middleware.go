package command

import (
	"context"
	"fmt"
	"time"

	"github.com/kapu/lolbot-go/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const (
	instrumentationName = "github.com/kapu/lolbot-go/internal/command"
	metricKeyPrefix     = "lolbot.commands."
	outcomeSuccess      = "success"
)

// Logging logs each invocation and, for failures, the kind and the
// underlying cause. Users only ever see the failure detail.
func Logging(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, inv *Invocation) domain.Result {
			start := time.Now()
			result := next(ctx, inv)

			fields := []zap.Field{
				zap.String("command", inv.Path),
				zap.Duration("duration", time.Since(start)),
			}
			if inv.Context != nil {
				fields = append(fields,
					zap.String("invocation_id", inv.Context.InvocationID),
					zap.String("guild_id", inv.Context.GuildID),
					zap.String("author_id", inv.Context.AuthorID),
				)
			}

			if !result.IsFailure() {
				logger.Debug("Command completed", fields...)
				return result
			}

			f := result.Failure()
			fields = append(fields,
				zap.String("kind", f.Kind.String()),
				zap.String("detail", f.Detail),
			)
			if f.Status != 0 {
				fields = append(fields, zap.Int("status", f.Status))
			}
			if f.Cause != nil {
				fields = append(fields, zap.Error(f.Cause))
			}
			logger.Warn("Command failed", fields...)
			return result
		}
	}
}

// Metrics records an invocation counter and a duration histogram, both
// tagged with the command path and outcome (success or failure kind).
func Metrics(provider metric.MeterProvider) (Middleware, error) {
	meter := provider.Meter(instrumentationName)

	invocations, err := meter.Int64Counter(
		metricKeyPrefix+"invocations",
		metric.WithDescription("Number of dispatched commands"),
		metric.WithUnit("{commands}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create invocations counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		metricKeyPrefix+"duration",
		metric.WithDescription("Command execution time"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, inv *Invocation) domain.Result {
			start := time.Now()
			result := next(ctx, inv)
			elapsed := float64(time.Since(start).Microseconds()) / 1000

			outcome := outcomeSuccess
			if result.IsFailure() {
				outcome = result.Failure().Kind.String()
			}
			attrs := metric.WithAttributes(
				attribute.String("command", inv.Path),
				attribute.String("outcome", outcome),
			)

			invocations.Add(ctx, 1, attrs)
			duration.Record(ctx, elapsed, attrs)
			return result
		}
	}, nil
}
