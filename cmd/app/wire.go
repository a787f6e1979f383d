//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/assessment-portal/internal/bootstrap"
	"github.com/yanqian/assessment-portal/internal/infra/config"
	httpiface "github.com/yanqian/assessment-portal/internal/interface/http"
	"github.com/yanqian/assessment-portal/pkg/logger"
	"github.com/yanqian/assessment-portal/pkg/metrics"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		metrics.NewPortal,
		provideFormTemplate,
		provideValkeyClient,
		provideSessionStore,
		provideTokenProvider,
		provideDocumentStore,
		httpiface.NewSessions,
		httpiface.NewHandler,
		httpiface.NewRouter,
		wire.Bind(new(bootstrap.Janitor), new(*httpiface.Sessions)),
		bootstrap.NewApp,
	)
	return nil, nil
}
