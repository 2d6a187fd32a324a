package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/studynest/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":3000")
//	-d string   PostgreSQL DSN, or "memory"
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-m string   blob backend: inline, disk, s3
//	-f string   blob directory for the disk backend
//	-x int      max base64-encoded payload size, bytes
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-i int      reconcile interval, minutes (0 disables)
//	-w int      reconcile grace period, minutes
//	-r bool     privileged registration (admin credentials required)
//	-legacy bool accept legacy plaintext passwords
//	-l string   log level
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-d", "-s", "-t", "-m", "-f", "-x", "-u", "-p", "-b", "-g", "-e", "-i", "-w", "-r", "-legacy", "-l",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")

	fs.StringVar(&config.BlobBackend, "m", config.BlobBackend, "blob backend (inline, disk, s3)")
	fs.StringVar(&config.BlobDir, "f", config.BlobDir, "blob directory")
	fs.Int64Var(&config.MaxEncodedSize, "x", config.MaxEncodedSize, "max base64-encoded payload size (bytes)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 root bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 root region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	reconcileInterval := fs.Int("i", int(config.ReconcileInterval.Minutes()), "reconcile interval (in minutes, 0 disables)")
	reconcileGrace := fs.Int("w", int(config.ReconcileGracePeriod.Minutes()), "reconcile grace period (in minutes)")

	fs.BoolVar(&config.PrivilegedRegistration, "r", config.PrivilegedRegistration, "require admin credentials to register users")
	fs.BoolVar(&config.AllowLegacyPasswords, "legacy", config.AllowLegacyPasswords, "accept legacy plaintext passwords")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
	config.ReconcileInterval = time.Duration(*reconcileInterval) * time.Minute
	config.ReconcileGracePeriod = time.Duration(*reconcileGrace) * time.Minute
}
