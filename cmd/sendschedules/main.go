// Command sendschedules emails tomorrow's volunteers information about their
// schedule. It is meant to be run once daily by an external scheduler (cron).
package main

import (
	"errors"
	"log"
	"os"

	"github.com/villageline/villageline/pkg/villageline/config"
	"github.com/villageline/villageline/pkg/villageline/database"
	"github.com/villageline/villageline/pkg/villageline/mailer"
	"github.com/villageline/villageline/pkg/villageline/models"
	"github.com/villageline/villageline/pkg/villageline/schedules"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := database.Connect(cfg.DBPath); err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := models.AutoMigrate(database.GetDB()); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	sender := mailer.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser,
		cfg.SMTPPassword, cfg.MailFrom)

	job := schedules.NewJob(database.GetDB(), sender, logger)
	sent, err := job.Run()
	switch {
	case errors.Is(err, schedules.ErrSentDateInFuture):
		// Clock or data corruption; the only condition the job contract
		// treats as fatal.
		logger.Error("schedule job failed", zap.Error(err))
		os.Exit(1)
	case errors.Is(err, schedules.ErrAlreadyRunning):
		logger.Error("schedule job already in progress, nothing sent")
	case err != nil:
		logger.Error("schedule job failed", zap.Int("sent", sent), zap.Error(err))
	default:
		logger.Info("schedule job finished", zap.Int("sent", sent))
	}
}
