package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/isdelr/blog-be/internal/models"
	"github.com/isdelr/blog-be/internal/mq"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect the activity stream",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Print activity events as they arrive on the broker",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadCLIConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		broker, err := mq.Open(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		if broker == nil {
			return errors.New("no message broker configured, set MQ_BACKEND")
		}
		defer broker.Close()

		out := cmd.OutOrStdout()
		log.Info().Str("channel", cfg.EventsChannel).Msg("Tailing events")
		err = broker.Subscribe(ctx, cfg.EventsChannel, func(ctx context.Context, msg mq.Message) error {
			var event models.Event
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				// Malformed payloads are acknowledged so they are not redelivered.
				log.Warn().Err(err).Str("message_id", msg.ID).Msg("Skipping malformed event")
				return nil
			}
			_, err := fmt.Fprintf(out, "%s  %-14s %s\n", event.CreatedAt.Format("2006-01-02 15:04:05"), event.Type, event.Message)
			return err
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsTailCmd)
}
