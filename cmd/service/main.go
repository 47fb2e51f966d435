package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/rafsoh/workout-tracker/internal"
	"github.com/rafsoh/workout-tracker/internal/config"
	"github.com/rafsoh/workout-tracker/internal/logging"
	"github.com/rafsoh/workout-tracker/pkg"

	"github.com/sethvargo/go-envconfig"
	log "github.com/sirupsen/logrus"
)

type secrets struct {
	AdminUsername     string `env:"WT_ADMIN_USERNAME"`
	AdminPasswordHash string `env:"WT_ADMIN_PASSWORD_HASH"`
	IOSAppSecret      string `env:"WT_IOS_APP_SECRET"`
	RedisPassword     string `env:"WT_REDIS_PASS"`
	SentryDSN         string `env:"SENTRY_DSN"`
	OtelServiceName   string `env:"OTEL_SERVICE_NAME"`
	HoneycombEnabled  bool   `env:"HONEYCOMB_ENABLED"`
	HoneycombAPIKey   string `env:"HONEYCOMB_API_KEY"`
}

func main() {
	fmt.Println("starting ...")

	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	flag.Parse()

	log.Warnf("---->> running in [%s] environment", *env)

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		panic(err)
	}

	var sec secrets
	if err := envconfig.Process(context.Background(), &sec); err != nil {
		panic(err)
	}

	logging.Setup(logging.LoggerSetupParams{
		LogFileName:      cfg.LogsPath,
		LogToStdout:      cfg.LogToStdout,
		LogLevel:         cfg.LogLevel,
		LogFormatJSON:    cfg.LogFormatJSON,
		Environment:      cfg.Environment,
		SentryEnabled:    cfg.SentryEnabled,
		SentryDSN:        sec.SentryDSN,
		SentryServerName: "workout-tracker-service",
	})

	log.Debugf("using port: %d", cfg.Port)
	log.Debugf("using server logs path: [%s]", cfg.LogsPath)

	versionInfo, err := tryGetLastCommitHash()
	if err != nil {
		log.Tracef("failed to get last commit hash / version info: %s", err)
	} else {
		log.Tracef("running version: %s", versionInfo)
	}

	if sec.AdminUsername == "" || sec.AdminPasswordHash == "" {
		log.Errorf("admin username and password not set. use WT_ADMIN_USERNAME and WT_ADMIN_PASSWORD_HASH")
		sec.AdminUsername = "todo"
		sec.AdminPasswordHash = "$$2a$$14$$gPDY7P8qGduPi.OKoPKzM.N/MTyZpP.q2tmbprdHH.1jyw7fK3KfW"
	}

	if sec.IOSAppSecret == "" {
		log.Errorf("ios app secret not set. use WT_IOS_APP_SECRET")
	}

	if sec.RedisPassword == "" {
		log.Errorf("redis password not set. use WT_REDIS_PASS")
	}

	if sec.OtelServiceName == "" {
		log.Warnln("OTEL_SERVICE_NAME env var not set")
	}

	if sec.HoneycombEnabled {
		if sec.HoneycombAPIKey == "" {
			log.Warnln("HONEYCOMB_API_KEY env var not set")
		}
	} else {
		log.Debugln("honeycomb tracing disabled")
	}

	chOsInterrupt := make(chan os.Signal, 1)
	signal.Notify(chOsInterrupt, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())

	server, err := internal.NewServer(
		ctx,
		internal.NewServerParams{
			Config:                  cfg,
			IOSAppSecret:            sec.IOSAppSecret,
			VersionInfo:             versionInfo,
			AdminUsername:           sec.AdminUsername,
			AdminPasswordHash:       sec.AdminPasswordHash,
			RedisPassword:           sec.RedisPassword,
			HoneycombTracingEnabled: sec.HoneycombEnabled,
		},
	)
	if err != nil {
		log.Fatalf("new server: %s", err)
	}

	server.Serve(ctx, cfg.Host, cfg.Port)

	receivedSig := <-chOsInterrupt
	log.Warnf("signal [%s] received, killing everything ...", receivedSig)
	cancel()

	server.GracefulShutdown()
}

// tryGetLastCommitHash will try to get the last commit hash
// assumes that the built main executable is in project root
func tryGetLastCommitHash() (string, error) {
	cmd := exec.Command("/usr/bin/git", "rev-parse", "HEAD")
	stdout, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return pkg.BytesToString(stdout), nil
}
