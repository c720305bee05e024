package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"slices"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"apiprobe/internal/backend"
	"apiprobe/internal/config"
	"apiprobe/internal/dispatch"
	"apiprobe/internal/env"
	"apiprobe/internal/logging"
	"apiprobe/internal/models"
	"apiprobe/internal/notify"
	"apiprobe/internal/probe"
	"apiprobe/internal/storage"
	"apiprobe/pkg/graceful"
	"apiprobe/pkg/kafkaclient"
)

func main() {
	env.LoadEnv()

	cfg, err := config.Load(config.New())
	if err != nil {
		logging.Setup("info", os.Stdout)
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger := logging.Setup(cfg.Log.Level, os.Stdout)

	ctx, cancel := graceful.Context(context.Background())
	defer cancel()

	client := backend.NewClient(cfg.BaseURL,
		backend.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		backend.WithPaths(cfg.LoginPath, cfg.LocationsPath),
	)
	runner := probe.NewRunner(client, backend.Credentials{Username: cfg.Username, Password: cfg.Password}, logger)

	pipeline, closers, err := buildPipeline(ctx, cfg, logger)
	defer closeAll(closers)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up sinks")
	}

	reports := runner.Loop(ctx, cfg.Every)
	if pipeline.Empty() {
		for range reports {
		}
		return
	}

	// Sinks still get the last report after a shutdown signal.
	items := make(chan *RunItem)
	go func() {
		defer close(items)
		for r := range reports {
			items <- NewRunItem(r)
		}
	}()
	pipeline.Process(context.WithoutCancel(ctx), items)
	logHistory(context.WithoutCancel(ctx), logger, closers)
}

// buildPipeline opens every configured sink. Closers are returned even on
// error so partially opened sinks are released.
func buildPipeline(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*dispatch.Pipeline[RunItem], []io.Closer, error) {
	var (
		first   []dispatch.Step[RunItem]
		second  []dispatch.Step[RunItem]
		closers []io.Closer
	)

	if cfg.S3.Enabled() {
		s3, err := storage.NewS3Service(cfg.S3, logger)
		if err != nil {
			return nil, closers, err
		}
		if err := s3.CreateBucket(ctx, ""); err != nil {
			return nil, closers, err
		}
		first = append(first, StepArchive(s3))
	}

	if rec, err := openRecorder(ctx, cfg); err != nil {
		return nil, closers, err
	} else if rec != nil {
		closers = append(closers, rec)
		first = append(first, StepRecord(rec))
	}

	if cfg.Kafka.Enabled() {
		producer := kafkaclient.NewProducer(cfg.Kafka.Broker, cfg.Kafka.Topic)
		closers = append(closers, producer)
		second = append(second, StepPublish(producer))
	}

	if cfg.Feishu.Enabled() {
		n, err := notify.NewNotifier(notify.NewFeishuActor(cfg.Feishu.AppID, cfg.Feishu.AppSecret, logger), cfg.Feishu.Receiver)
		if err != nil {
			return nil, closers, err
		}
		second = append(second, StepNotify(n))
	}

	return dispatch.NewPipeline(logger,
		dispatch.NewStage("store", first...),
		dispatch.NewStage("announce", second...),
	), closers, nil
}

// openRecorder prefers Postgres over SQLite and returns nil when neither is
// configured.
func openRecorder(ctx context.Context, cfg *config.Config) (storage.Recorder, error) {
	var (
		rec storage.Recorder
		err error
	)
	switch {
	case cfg.Postgres.Enabled():
		rec, err = storage.NewPostgresRecorder(ctx, cfg.Postgres.DSN)
	case cfg.SQLite.Enabled():
		rec, err = storage.NewSQLiteRecorder(cfg.SQLite.Path)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := rec.EnsureSchema(ctx); err != nil {
		return nil, errors.Join(err, rec.Close())
	}
	return rec, nil
}

type outcomeCounter interface {
	Outcomes(ctx context.Context) (map[models.Outcome]int, error)
}

// logHistory prints the recorded outcome totals when the run history can
// report them.
func logHistory(ctx context.Context, logger zerolog.Logger, sinks []io.Closer) {
	for _, sink := range sinks {
		counter, ok := sink.(outcomeCounter)
		if !ok {
			continue
		}
		counts, err := counter.Outcomes(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to read run history")
			continue
		}
		ev := logger.Info()
		outcomes := make([]models.Outcome, 0, len(counts))
		for outcome := range counts {
			outcomes = append(outcomes, outcome)
		}
		slices.Sort(outcomes)
		for _, outcome := range outcomes {
			ev = ev.Int(string(outcome), counts[outcome])
		}
		ev.Msg("run history")
	}
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		if err := c.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close sink")
		}
	}
}
