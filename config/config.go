// Package config implements the server's YAML configuration file,
// grounded on the teacher's database.parseGeneratorConfigFromBytes: a
// yaml.v3 decoder with KnownFields(true) so a typo in the config file is
// a startup error rather than a silently ignored field.
package config

import (
	"bytes"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/maixuanbach/dbcsv/dbcsverr"
)

// Config is the dbcsvd server's process configuration (spec.md §6's
// filesystem layout plus the ambient server settings the spec leaves
// implementation-defined: listen address, signing key, token lifetime,
// and the pipeline's batch sizes).
type Config struct {
	DataRoot        string        `yaml:"data_root"`
	AccountsFile    string        `yaml:"accounts_file"`
	ListenAddr      string        `yaml:"listen_addr"`
	JWTSigningKey   string        `yaml:"jwt_signing_key"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl"`
	ScanBatchSize   int           `yaml:"scan_batch_size"`
	NDJSONBatchSize int           `yaml:"ndjson_batch_size"`
}

// Default returns a Config with the defaults the server falls back to
// when a field is omitted from the YAML file.
func Default() Config {
	return Config{
		DataRoot:        "./data",
		AccountsFile:    "./accounts.json",
		ListenAddr:      ":8080",
		AccessTokenTTL:  15 * time.Minute,
		ScanBatchSize:   1024,
		NDJSONBatchSize: 1024,
	}
}

// Load reads and parses a YAML config file at path, filling in unset
// fields from Default.
func Load(path string) (Config, error) {
	cfg := Default()

	buf, err := os.ReadFile(path)
	if err != nil {
		return Config{}, dbcsverr.Wrap(dbcsverr.DataAccessError, "failed to read config file", err)
	}

	var overlay struct {
		DataRoot        *string        `yaml:"data_root"`
		AccountsFile    *string        `yaml:"accounts_file"`
		ListenAddr      *string        `yaml:"listen_addr"`
		JWTSigningKey   *string        `yaml:"jwt_signing_key"`
		AccessTokenTTL  *time.Duration `yaml:"access_token_ttl"`
		ScanBatchSize   *int           `yaml:"scan_batch_size"`
		NDJSONBatchSize *int           `yaml:"ndjson_batch_size"`
	}

	dec := yaml.NewDecoder(bytes.NewReader(buf))
	dec.KnownFields(true)
	if err := dec.Decode(&overlay); err != nil {
		return Config{}, dbcsverr.Wrap(dbcsverr.DataAccessError, "failed to parse config file", err)
	}

	if overlay.DataRoot != nil {
		cfg.DataRoot = *overlay.DataRoot
	}
	if overlay.AccountsFile != nil {
		cfg.AccountsFile = *overlay.AccountsFile
	}
	if overlay.ListenAddr != nil {
		cfg.ListenAddr = *overlay.ListenAddr
	}
	if overlay.JWTSigningKey != nil {
		cfg.JWTSigningKey = *overlay.JWTSigningKey
	}
	if overlay.AccessTokenTTL != nil {
		cfg.AccessTokenTTL = *overlay.AccessTokenTTL
	}
	if overlay.ScanBatchSize != nil {
		cfg.ScanBatchSize = *overlay.ScanBatchSize
	}
	if overlay.NDJSONBatchSize != nil {
		cfg.NDJSONBatchSize = *overlay.NDJSONBatchSize
	}

	if cfg.JWTSigningKey == "" {
		return Config{}, dbcsverr.New(dbcsverr.ValidationError, "jwt_signing_key is required")
	}

	return cfg, nil
}
