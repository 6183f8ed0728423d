package es

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/animerch/internal/config"
)

// NewClient returns nil, nil when ES_URL is not configured.
func NewClient(cfg config.Config, l *slog.Logger) (*elasticsearch.Client, error) {
	if cfg.ESURL == "" {
		l.Info("elasticsearch disabled, product search falls back to the database")
		return nil, nil
	}
	l.Info("connecting to elasticsearch", "url", cfg.ESURL, "user", cfg.ESUser)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.ESURL},
		Username:  cfg.ESUser,
		Password:  cfg.ESPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch error %s: %s", res.Status(), body)
	}

	l.Info("connected to elasticsearch")
	return client, nil
}
