package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/cloudcopper/mesher/lib"
	"github.com/cloudcopper/mesher/lib/types"
	"github.com/cloudcopper/mesher/ports"
	tpl "github.com/cloudcopper/misc/env/template"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

type Engine struct {
	// Command and Args of external converter.
	// Args may refer {input} and {output} placeholders.
	Command     string         `yaml:"command" validate:"required"`
	Args        []string       `yaml:"args"`
	Timeout     types.Duration `yaml:"timeout" validate:"gte=0"`
	Concurrency int            `yaml:"concurrency" validate:"min=1"`
}

type Config struct {
	TempFolder    string         `yaml:"temp_folder" validate:"required,abspath"`
	MaxUploadSize types.Size     `yaml:"max_upload_size" validate:"gte=0"`
	MaxAge        types.Duration `yaml:"max_age" validate:"gte=0"`
	Identity      string         `yaml:"identity" validate:"oneof=uuid ulid"`
	Engine        Engine         `yaml:"engine"`
	// Optional sqlite file for conversion history, in-memory if empty
	HistoryDB string `yaml:"history_db" validate:"omitempty,abspath"`
	// Optional drop folder
	Inbox  string `yaml:"inbox" validate:"omitempty,abspath"`
	Outbox string `yaml:"outbox" validate:"required_with=Inbox"`
}

func (c *Config) String() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err.Error()
	}
	return strings.TrimSuffix(string(b), "\n")
}

var (
	Listen                = ":3000"
	ConfigFileName        = "mesher.yml"
	TopRootFileSystemPath = ""
	SweepInterval         = 1 * time.Minute
	InboxSettle           = 2 * time.Second
	HistoryLimit          = 1000
)

const (
	ErrOutboxNotAbs  = lib.Error("outbox must be absolute path")
	ErrOutboxIsInbox = lib.Error("outbox must differ from inbox")
	ErrInboxInTemp   = lib.Error("inbox must not be inside temp folder")
	ErrInvalidConfig = lib.Error("invalid config")
)

func Default() *Config {
	return &Config{
		TempFolder:    "/tmp/mesher",
		MaxUploadSize: 64 * 1000 * 1000,
		MaxAge:        types.Duration(time.Hour),
		Identity:      "uuid",
		Engine: Engine{
			Timeout:     types.Duration(5 * time.Minute),
			Concurrency: 1,
		},
	}
}

func LoadConfig(log ports.Logger, f fs.ReadFileFS) (*Config, error) {
	cfg, err := loadConfig(log, f, ConfigFileName)
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	// dump effective config
	for _, s := range strings.Split(cfg.String(), "\n") {
		log.Debug(s)
	}
	return cfg, nil
}

// The loadConfig reads named config file from given fs,
// execute file as env template,
// and unmarshal result over the defaults
func loadConfig(log ports.Logger, f fs.ReadFileFS, fileName string) (*Config, error) {
	log.Info("loading config", slog.String("fileName", fileName))
	blob, err := os.ReadFile(fileName)
	if err != nil {
		blob, err = f.ReadFile(fileName)
		if err != nil {
			return nil, err
		}
	}
	return parseConfig(blob)
}

func parseConfig(blob []byte) (*Config, error) {
	// parse config as template
	t, err := tpl.Parse(string(blob))
	if err != nil {
		return nil, err
	}
	// execute template
	s, err := t.Execute()
	if err != nil {
		return nil, err
	}

	cfg := Default()
	dec := yaml.NewDecoder(strings.NewReader(s))
	dec.KnownFields(true)
	// empty document keeps defaults
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	val := lib.NewValidator(afero.NewOsFs())
	if err := val.Struct(c); err != nil {
		return err
	}
	if c.Inbox == "" {
		return nil
	}
	if !lib.IsAbs(c.Outbox) {
		return ErrOutboxNotAbs
	}
	if c.Outbox == c.Inbox {
		return ErrOutboxIsInbox
	}
	if c.Inbox == c.TempFolder || strings.HasPrefix(c.Inbox, c.TempFolder+"/") {
		return ErrInboxInTemp
	}
	return nil
}
