package setup

import (
	"fmt"

	"github.com/blxryer/haste-server/internal/config"
	"github.com/blxryer/haste-server/internal/database"
	"github.com/blxryer/haste-server/internal/database/inmemory"
	"github.com/blxryer/haste-server/internal/database/redisdb"
	"github.com/blxryer/haste-server/internal/database/sqldb"

	"github.com/The127/ioc"
)

func Database(dc *ioc.DependencyCollection, c config.DatabaseConfig) database.Database {
	db := connectToDatabase(c)

	ioc.RegisterSingleton(dc, func(_ *ioc.DependencyProvider) database.Database {
		return db
	})

	return db
}

func connectToDatabase(c config.DatabaseConfig) database.Database {
	var db database.Database
	var err error

	switch c.Mode {
	case config.DatabaseModeInMemory:
		db, err = inmemory.NewInMemoryDatabase()

	case config.DatabaseModeMySql:
		db, err = sqldb.NewMySqlDatabase(c.MySql, c.MaxConnections)

	case config.DatabaseModePostgres:
		db, err = sqldb.NewPostgresDatabase(c.Postgres, c.MaxConnections)

	case config.DatabaseModeRedis:
		db, err = redisdb.NewRedisDatabase(c.Redis, c.MaxConnections)

	default:
		panic(fmt.Errorf("unsupported database mode: %s", c.Mode))
	}

	if err != nil {
		panic(fmt.Errorf("failed to connect to database: %w", err))
	}

	return db
}
