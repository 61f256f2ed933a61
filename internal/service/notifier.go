package service

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/trooth-app/assessment-api/config"
)

// Notifier is the fire-and-forget hook invoked once per terminal
// transition. Delivery failures are logged and never roll back the
// transition.
type Notifier interface {
	RecordFinished(recordID string, status string)
}

const notifyTimeout = 5 * time.Second

type webhookNotifier struct {
	url    string
	client *http.Client
}

func NewNotifier(cfg *config.Config) Notifier {
	return &webhookNotifier{
		url:    cfg.Notify.WebhookURL,
		client: &http.Client{Timeout: notifyTimeout},
	}
}

func (n *webhookNotifier) RecordFinished(recordID string, status string) {
	if n.url == "" {
		log.Debug().Str("recordID", recordID).Str("status", status).Msg("No notify webhook configured; skipping")
		return
	}
	body, err := json.Marshal(map[string]string{
		"record_id": recordID,
		"status":    status,
	})
	if err != nil {
		log.Error().Err(err).Str("recordID", recordID).Msg("Failed to marshal notification payload")
		return
	}
	resp, err := n.client.Post(n.url, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Warn().Err(err).Str("recordID", recordID).Msg("Notification webhook delivery failed")
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		log.Warn().Int("status_code", resp.StatusCode).Str("recordID", recordID).Msg("Notification webhook returned non-success")
		return
	}
	log.Info().Str("recordID", recordID).Str("status", status).Msg("Terminal notification delivered")
}
