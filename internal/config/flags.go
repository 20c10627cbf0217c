package config

import (
	"flag"
	"os"

	"windykator/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-f string   Fakturownia base URL
//	-k string   Fakturownia API token
//	-s string   JWT HMAC secret key
//	-o string   operator login
//	-r int      Fakturownia rate limit, requests per second
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components. Everything
// without a flag is covered by the environment and JSON overlays.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-f", "-k", "-s", "-o", "-r"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.FakturowniaBaseURL, "f", config.FakturowniaBaseURL, "invoicing API base URL")
	fs.StringVar(&config.FakturowniaAPIToken, "k", config.FakturowniaAPIToken, "invoicing API token")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.OperatorLogin, "o", config.OperatorLogin, "operator login")
	fs.IntVar(&config.FakturowniaRateLimitRPS, "r", config.FakturowniaRateLimitRPS, "invoicing API rate limit (requests per second)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
