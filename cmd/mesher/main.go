package main

import (
	"embed"
	"errors"
	"flag"
	"log/slog"
	"os"

	"github.com/cloudcopper/mesher"
	"github.com/cloudcopper/mesher/infra/config"
	"github.com/cloudcopper/mesher/lib"
)

const (
	retNoErrorCode      = 0
	retGenericErrorCode = 1
)

//go:embed mesher.yml
var fs embed.FS

func main() {
	// Use config file name from env MESHER_CONFIG
	// or mesher.yml
	// Note the config file might be embedded!!!
	config.ConfigFileName = lib.GetEnvDefault("MESHER_CONFIG", config.ConfigFileName)

	// The first filesystem layer location (nothing if empty)
	config.TopRootFileSystemPath = lib.GetEnvDefault("MESHER_ROOT", config.TopRootFileSystemPath)
	// Second layer is current working dir
	// Last layer is this app embed fs
	config.SweepInterval = lib.GetEnvDuration("MESHER_SWEEP_INTERVAL", config.SweepInterval)

	// Handle command line arguments
	debug := false
	flag.StringVar(&config.Listen, "listen", config.Listen, "web server listen address")
	flag.StringVar(&config.ConfigFileName, "config", config.ConfigFileName, "config file name")
	flag.StringVar(&config.TopRootFileSystemPath, "root", config.TopRootFileSystemPath, "first layer of filesystem (optional)")
	flag.DurationVar(&config.SweepInterval, "sweep-interval", config.SweepInterval, "expired artifacts check interval")
	flag.DurationVar(&config.InboxSettle, "settle", config.InboxSettle, "inbox file settle time")
	flag.IntVar(&config.HistoryLimit, "history", config.HistoryLimit, "conversion records to keep")
	flag.BoolVar(&debug, "debug", debug, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	setDefaultLogger(level)
	log := slog.Default()
	log.Info("starting")

	err := mesher.App(log, fs)

	code := retNoErrorCode
	if err != nil {
		code = retGenericErrorCode
		var ec lib.ErrorCode
		if errors.As(err, &ec) {
			code = ec.Code()
		}
		log.Error("exit", slog.Int("code", code), slog.Any("err", err))
	} else {
		log.Info("exit")
	}

	os.Exit(code)
}
