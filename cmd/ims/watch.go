package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/ims/internal/events"
	"github.com/alfredjeanlab/ims/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:         "watch [topic]",
	Short:       "Stream session and inventory events",
	GroupID:     "system",
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{annotationLocal: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		topic := events.TopicAll
		if len(args) == 1 {
			topic = args[0]
		}
		natsURL := cfg.NATSURL
		if natsURL == "" {
			natsURL = activeRemote(cfg).NATSURL
		}
		if natsURL == "" {
			return fmt.Errorf("no event bus configured: set IMS_NATS_URL or add --nats to the active remote")
		}

		logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
		sub, err := events.NewNATSSubscriber(natsURL,
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				logger.Warn("nats disconnected", "error", err)
			}),
			nats.ReconnectHandler(func(_ *nats.Conn) {
				logger.Info("nats reconnected")
			}),
		)
		if err != nil {
			return err
		}
		defer sub.Close()

		ch, cancel, err := sub.Subscribe(topic)
		if err != nil {
			return fmt.Errorf("subscribing to events: %w", err)
		}
		defer cancel()

		ctx := cmd.Context()
		for {
			select {
			case <-ctx.Done():
				return nil
			case msg, ok := <-ch:
				if !ok {
					return nil
				}
				at := msg.PublishedAt
				if at.IsZero() {
					at = time.Now()
				}
				printEvent(cmd.OutOrStdout(), msg, at.Local())
			}
		}
	},
}

// printEvent writes one line per event, or the raw payload with --json.
func printEvent(w io.Writer, msg events.Message, at time.Time) {
	if jsonOutput {
		fmt.Fprintln(w, string(msg.Data))
		return
	}
	fmt.Fprintf(w, "%s  %s  %s\n", ui.RenderMuted(at.Format("15:04:05")), ui.RenderAccent(msg.Topic), summarizeEvent(msg))
}

func summarizeEvent(msg events.Message) string {
	var ev struct {
		Reason  string `json:"reason"`
		ID      int64  `json:"id"`
		Product *struct {
			ID       int64  `json:"id"`
			Name     string `json:"name"`
			Quantity int    `json:"quantity"`
		} `json:"product"`
		Category *struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"category"`
		Stock *struct {
			Product         int64  `json:"product"`
			Type            string `json:"type"`
			QuantityChanged int    `json:"quantity_changed"`
		} `json:"stock"`
	}
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		return string(msg.Data)
	}
	switch {
	case ev.Product != nil:
		return fmt.Sprintf("product %d %q qty=%d", ev.Product.ID, ev.Product.Name, ev.Product.Quantity)
	case ev.Category != nil:
		return fmt.Sprintf("category %d %q", ev.Category.ID, ev.Category.Name)
	case ev.Stock != nil:
		return fmt.Sprintf("%s %d for product %d", ev.Stock.Type, ev.Stock.QuantityChanged, ev.Stock.Product)
	case ev.Reason != "":
		return ev.Reason
	case ev.ID != 0:
		return fmt.Sprintf("id %d", ev.ID)
	}
	return string(msg.Data)
}
