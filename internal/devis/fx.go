package devis

import (
	devisdomain "github.com/JunelAmelon/Saas-aximotravo-sub000/internal/devis/domain"
	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/devis/repository"
	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/devis/service"
	"go.uber.org/fx"
)

var Module = fx.Module("devis",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.New),
	fx.Provide(func(s *service.Service) devisdomain.Service { return s }),
)
