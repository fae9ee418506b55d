package main

import (
	"captionservice/internal"
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	code := run()

	// Nothing is left to clean up once serving stopped.
	os.Exit(code)
}

func run() int {
	cfg, err := internal.ReadConfig()
	if err != nil {
		logrus.WithError(err).Error("Failed to read config")
		return 1
	}

	log := internal.NewLogger(cfg.Log)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts []internal.CaptionerOption
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := internal.NewProducer(cfg.Kafka)
		if err != nil {
			log.WithError(err).Error("Failed to create producer")
			return 1
		}
		defer producer.Close()
		opts = append(opts, internal.WithPublisher(producer))
	}

	captioner, err := internal.NewCaptionerFromConfig(ctx, cfg, log, opts...)
	if err != nil {
		log.WithError(err).Error("Failed to load model")
		return 1
	}

	poller := internal.NewPoller(captioner.Model(), captioner.Translator(), cfg.Health.PollPeriod, log)
	go poller.Run(ctx)

	server := internal.NewServer(cfg.Server, cfg.Addr(), log)
	app := internal.NewApp(cfg, captioner, poller, server, log)

	err = server.Serve(ctx, internal.BuildRouter(app))
	log.Info("Terminating application")
	if err != nil {
		log.WithError(err).Error("Finishing")
		return 1
	}
	return 0
}
