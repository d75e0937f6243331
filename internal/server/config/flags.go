package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/flagx"
)

var serverFlags = []string{"-a", "-g", "-b", "-d", "-s", "-t", "-w", "-k", "-p", "-l"}

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g. ":8080")
//	-g string   gRPC bind address, empty disables gRPC
//	-b string   storage driver: memory, postgres or sqlite
//	-d string   database DSN
//	-s string   token signing secret
//	-t int      token validity, minutes
//	-w string   password algorithm: bcrypt or argon2id
//	-k int      bcrypt cost
//	-p string   comma-separated public paths
//	-l string   log level
func parseFlags(config *Config) error {
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port to run server")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC address and port, empty to disable")
	fs.StringVar(&config.StorageDriver, "b", config.StorageDriver, "storage driver")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "token signing secret")
	ttlMinutes := fs.Int("t", 0, "token validity (in minutes)")
	fs.StringVar(&config.PasswordAlgorithm, "w", config.PasswordAlgorithm, "password algorithm")
	fs.IntVar(&config.BcryptCost, "k", config.BcryptCost, "bcrypt cost")
	publicPaths := fs.String("p", "", "comma-separated public paths")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	if *ttlMinutes < 0 {
		return fmt.Errorf("parse flags: -t must not be negative")
	}
	if *ttlMinutes > 0 {
		config.TokenTTL = time.Duration(*ttlMinutes) * time.Minute
	}
	if paths := flagx.SplitList(*publicPaths); paths != nil {
		config.PublicPaths = paths
	}
	return nil
}
