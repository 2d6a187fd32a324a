package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/studynest/internal/flagx"
	"github.com/dmitrijs2005/studynest/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept both
// "10m"-style strings and integer nanoseconds. Fields left out of the file
// keep the value they already had.
type JsonConfig struct {
	EndpointAddrHTTP            *string         `json:"endpoint_addr_http"`
	DatabaseDSN                 *string         `json:"database_dsn"`
	SecretKey                   *string         `json:"secret_key"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	BlobBackend                 *string         `json:"blob_backend"`
	BlobDir                     *string         `json:"blob_dir"`
	MaxEncodedSize              *int64          `json:"max_encoded_size"`
	S3RootUser                  *string         `json:"s3_root_user"`
	S3RootPassword              *string         `json:"s3_root_password"`
	S3Bucket                    *string         `json:"s3_bucket"`
	S3Region                    *string         `json:"s3_region"`
	S3BaseEndpoint              *string         `json:"s3_base_endpoint"`
	ReconcileInterval           *timex.Duration `json:"reconcile_interval"`
	ReconcileGracePeriod        *timex.Duration `json:"reconcile_grace_period"`
	PrivilegedRegistration      *bool           `json:"privileged_registration"`
	AllowLegacyPasswords        *bool           `json:"allow_legacy_passwords"`
	LogLevel                    *string         `json:"log_level"`
}

// parseJson overlays values from the file named by -c/-config onto config.
// Without the flag nothing is loaded. An unreadable or malformed file panics,
// as does an invalid flag in parseFlags.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	setString(&config.BlobBackend, c.BlobBackend)
	setString(&config.BlobDir, c.BlobDir)
	if c.MaxEncodedSize != nil {
		config.MaxEncodedSize = *c.MaxEncodedSize
	}
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	if c.ReconcileInterval != nil {
		config.ReconcileInterval = c.ReconcileInterval.Duration
	}
	if c.ReconcileGracePeriod != nil {
		config.ReconcileGracePeriod = c.ReconcileGracePeriod.Duration
	}
	if c.PrivilegedRegistration != nil {
		config.PrivilegedRegistration = *c.PrivilegedRegistration
	}
	if c.AllowLegacyPasswords != nil {
		config.AllowLegacyPasswords = *c.AllowLegacyPasswords
	}
	setString(&config.LogLevel, c.LogLevel)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
