package sqldb

import (
	"database/sql"
	"embed"
	"fmt"
	"net"
	"strconv"

	"github.com/blxryer/haste-server/internal/config"
	db "github.com/blxryer/haste-server/internal/database"
	"github.com/blxryer/haste-server/internal/logging"
	"github.com/blxryer/haste-server/internal/repositories"
	"github.com/blxryer/haste-server/internal/repositories/sqldb"

	"github.com/go-sql-driver/mysql"
	"github.com/huandu/go-sqlbuilder"
	_ "github.com/lib/pq"
	"github.com/rubenv/sql-migrate"
)

//go:embed migrations
var migrations embed.FS

type dialect struct {
	driver  string
	migrate string
	flavor  sqlbuilder.Flavor
}

var (
	mySqlDialect    = dialect{driver: "mysql", migrate: "mysql", flavor: sqlbuilder.MySQL}
	postgresDialect = dialect{driver: "postgres", migrate: "postgres", flavor: sqlbuilder.PostgreSQL}
)

type database struct {
	db        *sql.DB
	dialect   dialect
	documents *sqldb.DocumentRepository
}

func NewMySqlDatabase(mc config.MySqlConfig, maxConnections int) (db.Database, error) {
	logging.Logger.Infof("Connecting to database %s via %s:%d",
		mc.Database,
		mc.Host,
		mc.Port)

	return open(mySqlDialect, mySqlDsn(mc), maxConnections)
}

func NewPostgresDatabase(pc config.PostgresConfig, maxConnections int) (db.Database, error) {
	logging.Logger.Infof("Connecting to database %s via %s:%d",
		pc.Database,
		pc.Host,
		pc.Port)

	return open(postgresDialect, postgresDsn(pc), maxConnections)
}

func mySqlDsn(mc config.MySqlConfig) string {
	mysqlConfig := mysql.NewConfig()
	mysqlConfig.Net = "tcp"
	mysqlConfig.Addr = net.JoinHostPort(mc.Host, strconv.Itoa(mc.Port))
	mysqlConfig.User = mc.User
	mysqlConfig.Passwd = mc.Password
	mysqlConfig.DBName = mc.Database

	return mysqlConfig.FormatDSN()
}

func postgresDsn(pc config.PostgresConfig) string {
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		pc.Host,
		pc.Port,
		pc.Database,
		pc.Username,
		pc.Password,
		pc.SslMode)
}

// open does not connect, the pool dials on the first statement.
func open(d dialect, dsn string, maxConnections int) (db.Database, error) {
	dbConnection, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database connection: %w", err)
	}

	dbConnection.SetMaxOpenConns(maxConnections)
	dbConnection.SetMaxIdleConns(maxConnections)

	return &database{
		db:        dbConnection,
		dialect:   d,
		documents: sqldb.NewDocumentRepository(dbConnection, d.flavor),
	}, nil
}

func (d *database) Migrate() error {
	migrations := migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrations,
		Root:       "migrations/" + d.dialect.migrate,
	}

	logging.Logger.Infof("Applying migrations...")

	n, err := migrate.Exec(d.db, d.dialect.migrate, migrations, migrate.Up)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	logging.Logger.Infof("Applied %d migrations", n)
	return nil
}

func (d *database) Documents() repositories.DocumentRepository {
	return d.documents
}

func (d *database) Close() error {
	return d.db.Close()
}
