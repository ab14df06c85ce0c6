package poster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kapu/lolbot-go/internal/constants"
	"github.com/kapu/lolbot-go/internal/telemetry"
	"github.com/kapu/lolbot-go/internal/util"
	"github.com/kapu/lolbot-go/pkg/errors"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

const guildMetric = "guilds"

// Config holds the credentials per target. A target without a credential is
// skipped. Base URLs default to the public endpoints.
type Config struct {
	DBLToken      string
	DBotsToken    string
	DatadogAPIKey string
	DatadogSite   string

	DBLBaseURL     string
	DBotsBaseURL   string
	DatadogBaseURL string
}

// MetricSource supplies the command metrics forwarded to Datadog.
type MetricSource interface {
	Snapshot(ctx context.Context) ([]telemetry.Point, error)
}

// Poster reports the bot's guild count to bot lists and Datadog.
type Poster struct {
	httpClient *http.Client
	cfg        Config
	metrics    MetricSource
	logger     *zap.Logger
	now        func() time.Time
}

func New(httpClient *http.Client, cfg Config, metrics MetricSource, logger *zap.Logger) *Poster {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DBLBaseURL == "" {
		cfg.DBLBaseURL = constants.PosterConfig.DBLBaseURL
	}
	if cfg.DBotsBaseURL == "" {
		cfg.DBotsBaseURL = constants.PosterConfig.DBotsBaseURL
	}
	if cfg.DatadogBaseURL == "" && cfg.DatadogSite != "" {
		cfg.DatadogBaseURL = fmt.Sprintf(constants.PosterConfig.DatadogHost, cfg.DatadogSite)
	}
	return &Poster{
		httpClient: httpClient,
		cfg:        cfg,
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// Targets lists the targets that have credentials.
func (p *Poster) Targets() []errors.PostTarget {
	var targets []errors.PostTarget
	if p.cfg.DBLToken != "" {
		targets = append(targets, errors.TargetDBL)
	}
	if p.cfg.DBotsToken != "" {
		targets = append(targets, errors.TargetDBots)
	}
	if p.cfg.DatadogAPIKey != "" && p.cfg.DatadogBaseURL != "" {
		targets = append(targets, errors.TargetDatadog)
	}
	return targets
}

// Post sends guildCount to every configured target concurrently. The returned
// error joins one *errors.PostError per failed target.
func (p *Poster) Post(ctx context.Context, botID string, guildCount int) error {
	targets := p.Targets()
	if len(targets) == 0 {
		return nil
	}

	wg := pool.New().WithErrors().WithContext(ctx)
	for _, target := range targets {
		target := target
		wg.Go(func(ctx context.Context) error {
			var err error
			switch target {
			case errors.TargetDBL:
				err = p.postBotList(ctx, target, p.cfg.DBLBaseURL, p.cfg.DBLToken, botID, guildCount)
			case errors.TargetDBots:
				err = p.postBotList(ctx, target, p.cfg.DBotsBaseURL, p.cfg.DBotsToken, botID, guildCount)
			case errors.TargetDatadog:
				err = p.postDatadog(ctx, guildCount)
			}
			if err == nil {
				p.logger.Debug("Posted stats", zap.String("target", string(target)), zap.Int("guilds", guildCount))
			}
			return err
		})
	}
	return wg.Wait()
}

type botListStats struct {
	ServerCount int `json:"server_count"`
}

func (p *Poster) postBotList(ctx context.Context, target errors.PostTarget, baseURL, token, botID string, guildCount int) error {
	if botID == "" {
		return errors.NewPostError("bot id unknown", target, 0, nil)
	}
	url := strings.TrimRight(baseURL, "/") + "/bots/" + botID + "/stats"
	return p.send(ctx, target, url, map[string]string{"Authorization": token}, botListStats{ServerCount: guildCount})
}

type series struct {
	Metric string       `json:"metric"`
	Points [][2]float64 `json:"points"`
	Type   string       `json:"type"`
	Tags   []string     `json:"tags,omitempty"`
}

type seriesPayload struct {
	Series []series `json:"series"`
}

func (p *Poster) postDatadog(ctx context.Context, guildCount int) error {
	ts := float64(p.now().Unix())
	payload := seriesPayload{Series: []series{{
		Metric: constants.PosterConfig.MetricPrefix + guildMetric,
		Points: [][2]float64{{ts, float64(guildCount)}},
		Type:   "gauge",
	}}}

	if p.metrics != nil {
		points, err := p.metrics.Snapshot(ctx)
		if err != nil {
			return errors.NewPostError("failed to collect metrics", errors.TargetDatadog, 0, err)
		}
		for _, pt := range points {
			name := pt.Name
			if !strings.HasPrefix(name, constants.PosterConfig.MetricPrefix) {
				name = constants.PosterConfig.MetricPrefix + name
			}
			payload.Series = append(payload.Series, series{
				Metric: name,
				Points: [][2]float64{{ts, pt.Value}},
				Type:   "gauge",
				Tags:   pt.Tags,
			})
		}
	}

	url := strings.TrimRight(p.cfg.DatadogBaseURL, "/") + "/api/v1/series"
	return p.send(ctx, errors.TargetDatadog, url, map[string]string{"DD-API-KEY": p.cfg.DatadogAPIKey}, payload)
}

func (p *Poster) send(ctx context.Context, target errors.PostTarget, url string, headers map[string]string, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return errors.NewPostError("failed to marshal request", target, 0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return errors.NewPostError("failed to create request", target, 0, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", constants.UserAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return errors.NewPostError("request failed", target, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.NewPostError(
			util.TruncateString(strings.TrimSpace(string(bodyBytes)), 200),
			target,
			resp.StatusCode,
			nil,
		)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
