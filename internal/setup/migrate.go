package setup

import (
	"github.com/blxryer/haste-server/internal/config"
	"github.com/blxryer/haste-server/internal/database"
	"github.com/blxryer/haste-server/internal/logging"

	"github.com/avast/retry-go"
)

// Migrate provisions the schema, retrying while the database comes up.
// The caller decides whether a final failure is fatal.
func Migrate(db database.Database, c config.MigrateConfig) error {
	return retry.Do(
		func() error {
			return db.Migrate()
		},
		retry.Attempts(c.Attempts),
		retry.Delay(c.Delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logging.Logger.Warnf("failed to migrate database: %s, retrying in %s", err, c.Delay)
		}),
	)
}
