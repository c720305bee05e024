package main

import (
	"encoding/json"
	"os"

	"github.com/rs/zerolog/log"

	"apiprobe/internal/env"
	"apiprobe/internal/fakebackend"
	"apiprobe/internal/logging"
)

func main() {
	env.LoadEnv()
	logger := logging.Setup(env.GetEnv("FAKE_LOG_LEVEL", "info"), os.Stdout)

	opts := []fakebackend.Option{
		fakebackend.WithUser(env.GetEnv("FAKE_USERNAME", "your_username"), env.GetEnv("FAKE_PASSWORD", "your_password")),
	}
	if secret := env.GetEnv("FAKE_JWT_SECRET", ""); secret != "" {
		opts = append(opts, fakebackend.WithSecret([]byte(secret)))
	}
	if path := env.GetEnv("FAKE_LOCATIONS_FILE", ""); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("failed to read locations file")
		}
		var locations []json.RawMessage
		if err := json.Unmarshal(data, &locations); err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("locations file is not a JSON array")
		}
		opts = append(opts, fakebackend.WithLocations(locations))
	}

	addr := env.GetEnv("FAKE_LISTEN_ADDR", ":8000")
	e := fakebackend.New(opts...).Echo(logger)
	logger.Info().Str("addr", addr).Msg("fake backend listening")
	if err := e.Start(addr); err != nil {
		log.Fatal().Err(err).Msg("fake backend stopped")
	}
}
