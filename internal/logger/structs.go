package logger

// Console implements a console based logger.
type Console struct {
	Enabled          bool `mapstructure:"enabled"          toml:"enabled"          json:"enabled"`
	UseConsoleWriter bool `mapstructure:"useConsoleWriter" toml:"useConsoleWriter" json:"useConsoleWriter"`
}

// RollingFile configures one lumberjack rotated log file.
type RollingFile struct {
	Name       string `mapstructure:"name"       toml:"name"       json:"name"`
	MaxSize    int    `mapstructure:"maxSize"    toml:"maxSize"    json:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups" toml:"maxBackups" json:"maxBackups"`
	MaxAge     int    `mapstructure:"maxAge"     toml:"maxAge"     json:"maxAge"`
}

// LogFile implements a file based logger, one rolling file per level group.
type LogFile struct {
	Enabled bool   `mapstructure:"enabled" toml:"enabled" json:"enabled"`
	Path    string `mapstructure:"path"    toml:"path"    json:"path"`

	Access RollingFile `mapstructure:"access" toml:"access" json:"access"`
	Error  RollingFile `mapstructure:"error"  toml:"error"  json:"error"`
	Info   RollingFile `mapstructure:"info"   toml:"info"   json:"info"`
	Trace  RollingFile `mapstructure:"trace"  toml:"trace"  json:"trace"`
	Warn   RollingFile `mapstructure:"warn"   toml:"warn"   json:"warn"`
}

// Log implements the logger config.
type Log struct {
	LogLevel string `mapstructure:"logLevel" toml:"logLevel" json:"logLevel"` // trace, debug, info, warn, error.
	LogEnv   string `mapstructure:"logEnv"   toml:"logEnv"   json:"logEnv"`

	// EnableAccessLogToConsole writes the access log to stdout when Console.Enabled is set too.
	EnableAccessLogToConsole bool `mapstructure:"enableAccessLogToConsole" toml:"enableAccessLogToConsole" json:"enableAccessLogToConsole"`
	ReportCaller             bool `mapstructure:"reportCaller"             toml:"reportCaller"             json:"reportCaller"`
	DisableCheckAlive        bool `mapstructure:"disableCheckAlive"        toml:"disableCheckAlive"        json:"disableCheckAlive"` // do not log /checkalive calls

	AppName     string `mapstructure:"appName"     toml:"appName"     json:"appName"`
	ServiceName string `mapstructure:"serviceName" toml:"serviceName" json:"serviceName"`

	Console Console `mapstructure:"console" toml:"console" json:"console"`
	File    LogFile `mapstructure:"file"    toml:"file"    json:"file"`
}
