package setup

import (
	"github.com/blxryer/haste-server/internal/config"
	"github.com/blxryer/haste-server/internal/database"
	"github.com/blxryer/haste-server/internal/services/clock"
	"github.com/blxryer/haste-server/internal/services/documents"

	"github.com/The127/ioc"
)

func Clock(dc *ioc.DependencyCollection) {
	ioc.RegisterSingleton(dc, func(_ *ioc.DependencyProvider) clock.Service {
		return clock.NewClockService()
	})
}

func Documents(dc *ioc.DependencyCollection, c config.DocumentsConfig) {
	ioc.RegisterSingleton(dc, func(dp *ioc.DependencyProvider) *documents.Store {
		return documents.NewStore(
			ioc.GetDependency[database.Database](dp).Documents(),
			ioc.GetDependency[clock.Service](dp),
			c.TTL(),
		)
	})
}
