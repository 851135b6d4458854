package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/angelmondragon/tunedash-backend/internal/notifications"
	"github.com/angelmondragon/tunedash-backend/pkg/config"
	"github.com/angelmondragon/tunedash-backend/pkg/enums"
	"github.com/angelmondragon/tunedash-backend/pkg/logger"
	"github.com/angelmondragon/tunedash-backend/pkg/pubsub"
)

// announce publishes a system.announcement or admin.message event for one
// account onto the notifications topic.
func main() {
	account := flag.String("account", "", "target account id")
	title := flag.String("title", "", "notification title")
	message := flag.String("message", "", "notification body")
	link := flag.String("link", "", "optional dashboard link")
	admin := flag.Bool("admin", false, "send as admin.message instead of system.announcement")
	priority := flag.String("priority", "", "priority for admin messages: urgent|high|normal|low")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "announce"})
	_ = godotenv.Load()

	accountID, err := uuid.Parse(strings.TrimSpace(*account))
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid -account:", err)
		os.Exit(2)
	}
	eventType := enums.EventSystemAnnouncement
	if *admin {
		eventType = enums.EventAdminMessage
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	ctx := logg.WithFields(context.Background(), map[string]any{
		"account_id": accountID.String(),
		"event_type": string(eventType),
	})
	psClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, false, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer psClient.Close()

	publisher, err := notifications.NewEventPublisher(psClient.NotificationPublisher(), 0)
	if err != nil {
		logg.Error(ctx, "failed to create publisher", err)
		os.Exit(1)
	}
	defer publisher.Stop()

	serverID, err := publisher.Publish(ctx, eventType, notifications.MessagePayload{
		AccountID: accountID,
		Title:     *title,
		Message:   *message,
		Link:      *link,
		Priority:  *priority,
	})
	if err != nil {
		logg.Error(ctx, "failed to publish announcement", err)
		os.Exit(1)
	}
	logg.Info(logg.WithField(ctx, "server_id", serverID), "announcement published")
}
