package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"apiprobe/internal/config"
	"apiprobe/internal/env"
	"apiprobe/internal/logging"
	"apiprobe/internal/models"
	"apiprobe/internal/service"
	"apiprobe/internal/storage"
	"apiprobe/pkg/graceful"
	"apiprobe/pkg/kafkaclient"
)

func main() {
	env.LoadEnv()

	cfg, err := config.Load(config.New())
	if err != nil {
		logging.Setup("info", os.Stderr)
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger := logging.Setup(cfg.Log.Level, os.Stderr)

	if !cfg.Kafka.Enabled() || cfg.Kafka.GroupID == "" {
		log.Fatal().Msg("probefeed needs kafka.broker, kafka.topic and kafka.group_id")
	}
	if !cfg.S3.Enabled() {
		log.Fatal().Msg("probefeed needs s3 settings to load archived reports")
	}

	ctx, cancel := graceful.Context(context.Background())
	defer cancel()

	logger.Info().
		Str("broker", cfg.Kafka.Broker).
		Str("topic", cfg.Kafka.Topic).
		Str("group_id", cfg.Kafka.GroupID).
		Msg("connecting to kafka")

	consumer, err := kafkaclient.NewKafkaConsumer(cfg.Kafka.Topic, cfg.Kafka.GroupID, cfg.Kafka.Broker)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create kafka consumer")
	}

	s3Service, err := storage.NewS3Service(cfg.S3, logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create s3 client")
	}

	consumer.StartConsuming(ctx)
	iterator := service.NewIterator(consumer, s3Service.GetReport)
	for obj := range iterator.Objects(ctx) {
		fmt.Println(summary(obj.Data))
	}

	consumer.Stop()
	logger.Info().Msg("probefeed finished")
}

func summary(r *models.RunReport) string {
	line := fmt.Sprintf("%s  %-12s %s  %s", r.StartedAt.UTC().Format("2006-01-02T15:04:05Z"), r.Outcome, r.Duration(), r.BaseURL)
	switch r.Outcome {
	case models.OutcomePassed:
		line += fmt.Sprintf("  locations=%d", r.LocationCount)
	case models.OutcomeLoginFailed, models.OutcomeFetchFailed:
		line += fmt.Sprintf("  step=%s status=%d", r.FailedStep, r.StatusCode)
	case models.OutcomeErrored:
		line += fmt.Sprintf("  step=%s error=%q", r.FailedStep, r.Error)
	}
	return line
}
