package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/erm/internal/flagx"
	"github.com/dmitrijs2005/erm/internal/timex"
)

// JSONConfig is the on-disk shape of the config file. Durations accept
// either "10s" or integer nanoseconds.
type JSONConfig struct {
	EndpointAddrHTTP  string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC  string         `json:"endpoint_addr_grpc"`
	StorageDriver     string         `json:"storage_driver"`
	DatabaseDSN       string         `json:"database_dsn"`
	DBMaxOpenConns    int            `json:"db_max_open_conns"`
	DBMaxIdleConns    int            `json:"db_max_idle_conns"`
	DBConnMaxLifetime timex.Duration `json:"db_conn_max_lifetime"`
	BootstrapEmail    string         `json:"bootstrap_email"`
	BootstrapPassword string         `json:"bootstrap_password"`
	HashAlgorithm     string         `json:"hash_algorithm"`
	BcryptCost        int            `json:"bcrypt_cost"`
	DefaultPageSize   int            `json:"default_page_size"`
	MaxPageSize       int            `json:"max_page_size"`
	LogLevel          string         `json:"log_level"`
	LogFormat         string         `json:"log_format"`
	ShutdownTimeout   timex.Duration `json:"shutdown_timeout"`
	RequestTimeout    timex.Duration `json:"request_timeout"`
}

// parseJSON overlays the values present in the JSON file onto config.
// Zero values in the file leave the current setting untouched.
func parseJSON(config *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var c JSONConfig
	if err := json.Unmarshal(data, &c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.StorageDriver, c.StorageDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setInt(&config.DBMaxOpenConns, c.DBMaxOpenConns)
	setInt(&config.DBMaxIdleConns, c.DBMaxIdleConns)
	if c.DBConnMaxLifetime.Duration > 0 {
		config.DBConnMaxLifetime = c.DBConnMaxLifetime.Duration
	}
	setString(&config.BootstrapEmail, c.BootstrapEmail)
	setString(&config.BootstrapPassword, c.BootstrapPassword)
	setString(&config.HashAlgorithm, c.HashAlgorithm)
	setInt(&config.BcryptCost, c.BcryptCost)
	setInt(&config.DefaultPageSize, c.DefaultPageSize)
	setInt(&config.MaxPageSize, c.MaxPageSize)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)
	if c.ShutdownTimeout.Duration > 0 {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	if c.RequestTimeout.Duration > 0 {
		config.RequestTimeout = c.RequestTimeout.Duration
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
