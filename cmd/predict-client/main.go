package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"wine-classifier/internal/client"
	"wine-classifier/internal/common"
)

func main() {
	_ = godotenv.Load()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	host := os.Getenv(common.EnvServerAddr)
	if host == "" {
		host = common.DefaultServerHost
	}
	port := os.Getenv(common.EnvPort)
	if port == "" {
		port = fmt.Sprint(common.DefaultPort)
	}

	c := client.New(fmt.Sprintf("http://%s:%s", host, port))
	ctx := context.Background()

	health, err := c.Health(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("health call failed")
	}
	fmt.Printf("[Health] status=%s, model_version=%s\n", health.Status, health.ModelVersion)

	resp, err := c.Predict(ctx, common.ExampleWineSample)
	if err != nil {
		log.Fatal().Err(err).Msg("predict call failed")
	}
	fmt.Printf("[Predict] prediction=%s, confidence=%.4f, model_version=%s\n",
		resp.Prediction, resp.Confidence, resp.ModelVersion)
}
