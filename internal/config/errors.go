package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrEmptyTokenSecret error if config tokens.secret is empty.
	ErrEmptyTokenSecret = errors.New("toml config tokens.secret can not be empty")

	// ErrUnsupportedEngine error if config db.gormEngine is not one of sqlite, mysql or postgres.
	ErrUnsupportedEngine = errors.New("toml config db.gormEngine is not supported")
)
