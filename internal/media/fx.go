package media

import (
	devisdomain "github.com/JunelAmelon/Saas-aximotravo-sub000/internal/devis/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("media",
	fx.Provide(
		NewCloudinaryUploader,
		func(u *CloudinaryUploader) devisdomain.Uploader { return u },
	),
)
