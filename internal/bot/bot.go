package bot

import (
	"context"
	"fmt"
	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/luckfunc/ticketBot/internal/config"
	"github.com/luckfunc/ticketBot/internal/handlers"
	"github.com/luckfunc/ticketBot/internal/models"
	"github.com/luckfunc/ticketBot/internal/services"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"io"
	"time"
)

// PriceExtractor returns the lowest listed price, or false when none was found.
type PriceExtractor interface {
	Extract(ctx context.Context, url string) (decimal.Decimal, bool)
}

// Result describes what one pass did.
type Result struct {
	RunID    string
	Found    bool
	Recorded bool
	Alert    bool
	Price    decimal.Decimal
}

// Tracker runs fetch, record, chart and notify once per invocation.
type Tracker struct {
	url       string
	extractor PriceExtractor
	history   services.HistoryStore
	renderer  services.TrendRenderer
	handler   *handlers.ObservationHandler

	now      func() time.Time
	newRunID func() string
	closers  []io.Closer
}

// New wires a tracker; renderer may be nil to skip charting.
func New(url string, extractor PriceExtractor, history services.HistoryStore, renderer services.TrendRenderer, handler *handlers.ObservationHandler) *Tracker {
	return &Tracker{
		url:       url,
		extractor: extractor,
		history:   history,
		renderer:  renderer,
		handler:   handler,
		now:       time.Now,
		newRunID:  uuid.NewString,
	}
}

// Build creates every component described by cfg.
func Build(ctx context.Context, cfg *config.Config) (*Tracker, error) {
	var fetcher services.PageFetcher
	switch cfg.Fetch.Mode {
	case config.FetchModeHeadless:
		fetcher = services.NewHeadlessFetcher(cfg.Fetch.UserAgent, cfg.Fetch.Timeout)
	default:
		fetcher = services.NewCollyFetcher(cfg.Fetch.UserAgent, cfg.Fetch.Timeout)
	}
	extractor := services.NewExtractor(fetcher)

	var (
		history services.HistoryStore
		closers []io.Closer
	)
	switch cfg.History.Backend {
	case config.HistoryBackendPostgres:
		pg, err := services.OpenPostgresHistory(ctx, cfg.History.DatabaseURL)
		if err != nil {
			return nil, err
		}
		history = pg
		closers = append(closers, pg)
	default:
		history = services.NewCSVHistory(cfg.History.CSVFilename)
	}

	var renderer services.TrendRenderer
	if cfg.Chart.Enabled {
		title := fmt.Sprintf("%s lowest price", cfg.EventName)
		switch cfg.Chart.Renderer {
		case config.ChartRendererHTML:
			renderer = services.NewHTMLRenderer(history, cfg.Chart.Path, title, cfg.Fetch.Timeout)
		default:
			renderer = services.NewImageRenderer(history, cfg.Chart.Path, title, cfg.Chart.FontPath)
		}
	}

	var senders []services.Sender
	if cfg.Notify.WebhookURL != "" {
		senders = append(senders, services.NewWebhookSender(cfg.Notify.WebhookURL, cfg.Notify.Timeout))
	}
	if cfg.Notify.WeChatGroup != "" {
		senders = append(senders, services.NewWeChatSender(cfg.Notify.WeChatGroup, cfg.Notify.WeChatStorage, cfg.Notify.Timeout))
	}
	notifier := services.NewNotifier(cfg.EventName, cfg.TicketURL, senders...)
	handler := handlers.NewObservationHandler(cfg.TargetPrice, notifier)

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		publisher := services.NewRedisPublisher(client, cfg.Redis.Prefix)
		handler.WithPublisher(publisher)
		closers = append(closers, publisher)
	}

	t := New(cfg.TicketURL, extractor, history, renderer, handler)
	t.closers = closers
	return t, nil
}

// RunOnce never fails: every problem degrades to doing less this run.
func (t *Tracker) RunOnce(ctx context.Context) Result {
	res := Result{RunID: t.newRunID()}

	price, ok := t.extractor.Extract(ctx, t.url)
	if !ok {
		glog.Infof("run %s: no price found at %s, nothing to do", res.RunID, t.url)
		return res
	}
	res.Found = true
	res.Price = price
	glog.Infof("run %s: lowest price %s", res.RunID, price.StringFixed(2))

	obs := models.Observation{Timestamp: t.now(), Price: price}
	if err := t.history.Append(ctx, obs); err != nil {
		glog.Errorf("run %s: %v", res.RunID, err)
	} else {
		res.Recorded = true
	}

	if t.renderer != nil {
		if err := t.renderer.Render(ctx); err != nil {
			glog.Warningf("run %s: %v", res.RunID, err)
		}
	}

	res.Alert = t.handler.Handle(ctx, res.RunID, obs)
	return res
}

func (t *Tracker) Close() error {
	var first error
	for _, c := range t.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Run builds the tracker from cfg and performs a single pass.
func Run(ctx context.Context, cfg *config.Config) error {
	t, err := Build(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build tracker: %w", err)
	}
	defer t.Close()

	t.RunOnce(ctx)
	return nil
}
