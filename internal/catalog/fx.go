package catalog

import (
	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("catalog",
	fx.Provide(NewCatalog),
)

type Params struct {
	fx.In

	Config *config.DevisConfigHolder
	Log    *zap.Logger
}

// NewCatalog loads the catalog once at startup. A path change in devis.yml
// takes effect on restart.
func NewCatalog(p Params) (*Catalog, error) {
	path := p.Config.Get().CatalogPath
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	source := path
	if source == "" {
		source = "embedded"
	}
	p.Log.Named("catalog").Info("catalog loaded",
		zap.String("source", source),
		zap.Int("lots", len(c.Lots)),
		zap.Int("rooms", len(c.Rooms)),
	)
	return c, nil
}
