package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/andreivl23/TaskBot/internal/bot"
	"github.com/andreivl23/TaskBot/internal/config"
	"github.com/andreivl23/TaskBot/internal/llm"
	"github.com/andreivl23/TaskBot/internal/repository"
	"github.com/andreivl23/TaskBot/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("config")
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("db")
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	taskSvc := service.NewTaskService(taskRepo)
	categorySvc := service.NewCategoryService(categoryRepo)
	digestSvc := service.NewDigestService(taskRepo, categoryRepo)

	extractor := llm.NewClient(cfg.LLMEndpoint, cfg.LLMModel)

	telegramBot, err := bot.New(cfg.TelegramToken, extractor, userRepo, taskSvc, categorySvc, digestSvc, log)
	if err != nil {
		log.WithError(err).Fatal("bot")
	}

	if cfg.DigestInterval > 0 {
		scheduler := service.NewSchedulerService(time.Local)
		if _, err := scheduler.ScheduleInterval(cfg.DigestInterval, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := telegramBot.SendDigests(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("digest")
			}
		}); err != nil {
			log.WithError(err).Fatal("schedule digests")
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	log.Info("task bot started")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("bot stopped with error")
	}
	log.Info("shutdown complete")
}
