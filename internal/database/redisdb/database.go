package redisdb

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/blxryer/haste-server/internal/config"
	db "github.com/blxryer/haste-server/internal/database"
	"github.com/blxryer/haste-server/internal/logging"
	"github.com/blxryer/haste-server/internal/repositories"
	"github.com/blxryer/haste-server/internal/repositories/redisdb"

	"github.com/redis/go-redis/v9"
)

type database struct {
	client    *redis.Client
	documents *redisdb.DocumentRepository
}

func NewRedisDatabase(rc config.RedisConfig, maxConnections int) (db.Database, error) {
	logging.Logger.Infof("Connecting to redis database %d via %s:%d",
		rc.Database,
		rc.Host,
		rc.Port)

	client := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(rc.Host, strconv.Itoa(rc.Port)),
		Username: rc.Username,
		Password: rc.Password,
		DB:       rc.Database,
		PoolSize: maxConnections,
	})

	return &database{
		client:    client,
		documents: redisdb.NewRedisDocumentRepository(client, rc.Prefix),
	}, nil
}

// Migrate has no schema to provision, it only checks the server is reachable.
func (d *database) Migrate() error {
	err := d.client.Ping(context.Background()).Err()
	if err != nil {
		return fmt.Errorf("pinging redis: %w", err)
	}

	return nil
}

func (d *database) Documents() repositories.DocumentRepository {
	return d.documents
}

func (d *database) Close() error {
	return d.client.Close()
}
