package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/trezcool/mazungumzo/core"
	"github.com/trezcool/mazungumzo/core/chat"
	logsvc "github.com/trezcool/mazungumzo/services/logger"
	notifsvc "github.com/trezcool/mazungumzo/services/notification"
	sendgridnotif "github.com/trezcool/mazungumzo/services/notification/sendgrid"
	"github.com/trezcool/mazungumzo/storage/database"
	sqlxrepos "github.com/trezcool/mazungumzo/storage/database/sqlx"
)

// notifier polls the shared event store for freshly submitted chat requests
// and pushes trainer-facing notifications. Polling stands in for a push
// channel; the interval comes from config.
func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "NOTIFIER : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	defer func() { _ = db.Close() }()

	var notifSvc core.NotificationService
	if conf.Debug {
		notifSvc = notifsvc.NewConsoleService(conf)
	} else {
		notifSvc = sendgridnotif.NewService(conf, logger)
	}

	core.ParseNotificationTemplates(conf, logger)

	store := sqlxrepos.NewEventStore(db, conf.Database.Engine)
	watcher := chat.NewRequestWatcher(store, notifSvc, logger)
	poller := chat.NewPoller(conf.Chat.RequestPollInterval, conf.Chat.PollJitter, watcher.Check, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
		sig := <-shutdown
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))
		cancel()
	}()

	logger.Info("notifier started")
	poller.Run(ctx)
	logger.Info("notifier stopped")
}
