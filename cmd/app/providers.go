package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/assessment-portal/internal/domain/assessment"
	"github.com/yanqian/assessment-portal/internal/domain/session"
	"github.com/yanqian/assessment-portal/internal/infra/config"
	"github.com/yanqian/assessment-portal/internal/infra/docstore"
	"github.com/yanqian/assessment-portal/internal/infra/formdoc"
	"github.com/yanqian/assessment-portal/internal/infra/sessionstore"
	"github.com/yanqian/assessment-portal/internal/infra/tokenstore"
)

func provideFormTemplate() (*formdoc.Template, error) {
	return formdoc.DefaultTemplate()
}

// provideValkeyClient returns nil when valkey is disabled or unreachable so
// the stores fall back to memory.
func provideValkeyClient(cfg *config.Config, logger *slog.Logger) valkey.Client {
	if !cfg.Valkey.Enabled {
		return nil
	}
	opt, err := buildValkeyOptions(cfg)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to memory stores", "error", err)
		return nil
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to memory stores", "error", err)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to memory stores", "error", err)
		client.Close()
		return nil
	}
	logger.Info("valkey enabled", "addr", cfg.Valkey.Addr)
	return client
}

func provideSessionStore(cfg *config.Config, client valkey.Client) session.Store {
	if client == nil {
		return sessionstore.NewMemoryStore()
	}
	return sessionstore.NewValkeyStore(client, cfg.Valkey.Prefix)
}

func provideTokenProvider(cfg *config.Config, client valkey.Client, logger *slog.Logger) (tokenstore.Provider, error) {
	if client == nil {
		return tokenstore.NewMemoryStore(), nil
	}
	sealer, err := tokenstore.NewSealer(cfg.Tokens.SealingSecret)
	if err != nil {
		return nil, err
	}
	return tokenstore.NewValkeyStore(client, cfg.Valkey.Prefix, cfg.Session.TTL, sealer, logger), nil
}

func provideDocumentStore(cfg *config.Config, logger *slog.Logger) assessment.DocumentStore {
	if !cfg.Storage.Enabled {
		logger.Info("document storage disabled, keeping uploads in memory")
		return docstore.NewMemoryStorage()
	}
	storage, err := docstore.NewS3Storage(
		cfg.Storage.Endpoint,
		cfg.Storage.AccessKey,
		cfg.Storage.SecretKey,
		cfg.Storage.Bucket,
		cfg.Storage.Region,
		logger,
	)
	if err != nil {
		logger.Error("failed to initialize document storage, keeping uploads in memory", "error", err)
		return docstore.NewMemoryStorage()
	}
	logger.Info("document storage enabled", "bucket", cfg.Storage.Bucket)
	return storage
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	if strings.Contains(cfg.Valkey.Addr, "://") {
		return valkey.ParseURL(cfg.Valkey.Addr)
	}
	return valkey.ClientOption{InitAddress: []string{cfg.Valkey.Addr}}, nil
}
