package setup

import (
	"github.com/blxryer/haste-server/internal/commands"
	"github.com/blxryer/haste-server/internal/queries"

	"github.com/The127/ioc"
	"github.com/The127/mediatr"
)

func Mediator(dc *ioc.DependencyCollection) {
	mediator := mediatr.NewMediator()

	mediatr.RegisterHandler(mediator, commands.HandleSetDocument)
	mediatr.RegisterHandler(mediator, commands.HandlePurgeExpiredDocuments)
	mediatr.RegisterHandler(mediator, queries.HandleGetDocument)

	ioc.RegisterSingleton(dc, func(_ *ioc.DependencyProvider) mediatr.Mediator {
		return mediator
	})
}
