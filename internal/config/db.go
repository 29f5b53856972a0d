package config

// Supported gorm engines.
const (
	EngineSQLite   = "sqlite"
	EngineMySQL    = "mysql"
	EnginePostgres = "postgres"
)

// DB holds the database configuration settings.
// For sqlite Name is the database file, ":memory:" keeps it in memory.
type DB struct {
	Extras     string
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	GormEngine string
}
