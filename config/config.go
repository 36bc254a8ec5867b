package config

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/packetxfer/crypto"
	"github.com/opd-ai/packetxfer/file"
	"github.com/opd-ai/packetxfer/limits"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PACKETXFER_"

// ErrInvalidConfig indicates a value that cannot be used.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the full xferctl configuration.
type Config struct {
	Transfer TransferConfig `toml:"transfer"`
	Log      LogConfig      `toml:"log"`
	Server   ServerConfig   `toml:"server"`
}

// TransferConfig maps onto file.Options.
type TransferConfig struct {
	PacketLength   uint32 `toml:"packet_length"`
	CountWidth     int    `toml:"count_width"`
	ChunksPerFrame int    `toml:"chunks_per_frame"`
	ByteOrder      string `toml:"byte_order"`
	HashAlgorithm  string `toml:"hash_algorithm"`
	StagingDir     string `toml:"staging_dir"`
	MaxRounds      int    `toml:"max_rounds"`
}

// LogConfig controls logrus level, format and rotation.
type LogConfig struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

// ServerConfig is where xferctl serve listens and where push/fetch dial.
type ServerConfig struct {
	Addr string `toml:"addr"`
	Path string `toml:"path"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	opts := file.DefaultOptions()
	return &Config{
		Transfer: TransferConfig{
			PacketLength:   opts.PacketLength,
			CountWidth:     int(opts.CountWidth),
			ChunksPerFrame: opts.ChunksPerFrame,
			ByteOrder:      "big",
			HashAlgorithm:  opts.Algorithm.String(),
			StagingDir:     opts.StagingDir,
			MaxRounds:      opts.MaxRounds,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Server: ServerConfig{
			Addr: ":8765",
			Path: "/xfer",
		},
	}
}

// Load overlays the TOML file at path (skipped when empty) and then the
// environment onto Default, and validates the result. A .env file in the
// working directory is loaded into the environment first if present.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		meta, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			logrus.WithFields(logrus.Fields{
				"function": "Load",
				"path":     path,
				"keys":     fmt.Sprint(undecoded),
			}).Warn("Ignoring unknown configuration keys")
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithFields(logrus.Fields{
			"function": "Load",
			"error":    err.Error(),
		}).Warn("Failed to read .env file")
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from PACKETXFER_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q", ErrInvalidConfig, EnvPrefix, key, v)
		}
		*dst = n
		return nil
	}

	if v, ok := lookup(EnvPrefix + "PACKET_LENGTH"); ok {
		n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 32)
		if err != nil {
			return fmt.Errorf("%w: %sPACKET_LENGTH=%q", ErrInvalidConfig, EnvPrefix, v)
		}
		c.Transfer.PacketLength = uint32(n)
	}
	for key, dst := range map[string]*int{
		"COUNT_WIDTH":      &c.Transfer.CountWidth,
		"CHUNKS_PER_FRAME": &c.Transfer.ChunksPerFrame,
		"MAX_ROUNDS":       &c.Transfer.MaxRounds,
		"LOG_MAX_SIZE_MB":  &c.Log.MaxSizeMB,
		"LOG_MAX_BACKUPS":  &c.Log.MaxBackups,
	} {
		if err := num(key, dst); err != nil {
			return err
		}
	}
	str("BYTE_ORDER", &c.Transfer.ByteOrder)
	str("HASH_ALGORITHM", &c.Transfer.HashAlgorithm)
	str("STAGING_DIR", &c.Transfer.StagingDir)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("LOG_FILE", &c.Log.File)
	str("SERVER_ADDR", &c.Server.Addr)
	str("SERVER_PATH", &c.Server.Path)
	return nil
}

// Validate rejects values the transfer layer cannot use. The packet length
// is clamped later rather than rejected.
func (c *Config) Validate() error {
	if w := c.Transfer.CountWidth; w < 0 || w > math.MaxUint8 || !file.CountWidth(w).Valid() {
		return fmt.Errorf("%w: count_width %d not one of 0, 1, 2, 4", ErrInvalidConfig, c.Transfer.CountWidth)
	}
	if c.Transfer.ChunksPerFrame < 1 {
		return fmt.Errorf("%w: chunks_per_frame must be at least 1", ErrInvalidConfig)
	}
	if c.Transfer.MaxRounds < 1 {
		return fmt.Errorf("%w: max_rounds must be at least 1", ErrInvalidConfig)
	}
	if _, err := c.ByteOrder(); err != nil {
		return err
	}
	if _, err := crypto.ParseAlgorithm(c.Transfer.HashAlgorithm); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log format %q", ErrInvalidConfig, c.Log.Format)
	}
	if c.Server.Path == "" || !strings.HasPrefix(c.Server.Path, "/") {
		return fmt.Errorf("%w: server path %q must start with /", ErrInvalidConfig, c.Server.Path)
	}

	if err := limits.ValidatePacketLength(c.Transfer.PacketLength); err != nil {
		logrus.WithFields(logrus.Fields{
			"function":      "Validate",
			"packet_length": c.Transfer.PacketLength,
			"clamped_to":    limits.ClampPacketLength(c.Transfer.PacketLength),
		}).Warn("Packet length out of range, clamping")
	}
	return nil
}

// ByteOrder resolves byte_order.
func (c *Config) ByteOrder() (binary.ByteOrder, error) {
	switch strings.ToLower(c.Transfer.ByteOrder) {
	case "", "big", "big-endian", "network":
		return binary.BigEndian, nil
	case "little", "little-endian":
		return binary.LittleEndian, nil
	default:
		return nil, fmt.Errorf("%w: byte order %q", ErrInvalidConfig, c.Transfer.ByteOrder)
	}
}

// Options builds the transfer manager options.
func (c *Config) Options() (file.Options, error) {
	order, err := c.ByteOrder()
	if err != nil {
		return file.Options{}, err
	}
	alg, err := crypto.ParseAlgorithm(c.Transfer.HashAlgorithm)
	if err != nil {
		return file.Options{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return file.Options{
		PacketLength:   limits.ClampPacketLength(c.Transfer.PacketLength),
		CountWidth:     file.CountWidth(c.Transfer.CountWidth),
		ChunksPerFrame: c.Transfer.ChunksPerFrame,
		ByteOrder:      order,
		Algorithm:      alg,
		StagingDir:     c.Transfer.StagingDir,
		MaxRounds:      c.Transfer.MaxRounds,
	}, nil
}
