package main

import (
	"go.uber.org/fx"

	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/catalog"
	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/clock"
	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/config"
	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/devis"
	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/devis/render"
	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/media"
	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/migration"
	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/observability"
	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/ratelimit"
	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/server"
	"github.com/JunelAmelon/Saas-aximotravo-sub000/pkg/docstore"
)

func main() {
	// The backend decides which storage modules are assembled, so it is
	// resolved before the graph is built.
	backend := config.Load().DocstoreBackend

	options := []fx.Option{
		// Core Infrastructure
		config.Module,
		observability.Module,
		clock.Module,
		docstore.Module(backend),

		// Functional Domains
		catalog.Module,
		media.Module,
		devis.Module,
		render.Module,
		server.Module,
	}
	switch backend {
	case config.DocstoreGorm:
		options = append(options, migration.Module)
	case config.DocstoreRedis:
		options = append(options, ratelimit.Module)
	}

	fx.New(options...).Run()
}
