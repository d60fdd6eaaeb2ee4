package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/erm/internal/flagx"
)

var knownFlags = []string{"-a", "-g", "-d", "-s", "-e", "-p", "-l", "-f"}

// parseFlags overlays command-line flags onto config:
//
//	-a string   HTTP bind address (e.g. ":8080")
//	-g string   gRPC health bind address
//	-d string   PostgreSQL DSN
//	-s string   storage driver (postgres|memory)
//	-e string   bootstrap admin email
//	-p string   bootstrap admin password
//	-l string   log level
//	-f string   log format (json|text|zap)
//
// Unknown arguments are filtered out first so other components (the
// migrate subcommand, -c) do not break parsing.
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("erm", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC health address")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.StorageDriver, "s", config.StorageDriver, "storage driver")
	fs.StringVar(&config.BootstrapEmail, "e", config.BootstrapEmail, "bootstrap admin email")
	fs.StringVar(&config.BootstrapPassword, "p", config.BootstrapPassword, "bootstrap admin password")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "f", config.LogFormat, "log format")

	return fs.Parse(flagx.FilterArgs(args, knownFlags))
}
