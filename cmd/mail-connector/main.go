package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sternrassler/mail-connector/internal/config"
	"github.com/Sternrassler/mail-connector/pkg/actions"
	"github.com/Sternrassler/mail-connector/pkg/client"
	"github.com/Sternrassler/mail-connector/pkg/logging"
	"github.com/Sternrassler/mail-connector/pkg/pagination"
	"github.com/redis/go-redis/v9"
	"gopkg.in/alecthomas/kingpin.v2"
)

func main() {
	app := kingpin.New("mail-connector", "Actions over a transactional email provider's REST API")

	configFile := app.Flag("config", "Path to a YAML config file").Envar("MAIL_CONFIG").Short('c').String()
	verbose := app.Flag("verbose", "Enables debug logging").Short('v').Bool()
	pretty := app.Flag("pretty", "Enables pretty logging").Short('p').Bool()

	serveCmd := app.Command("serve", "Serve the actions over HTTP")
	listen := serveCmd.Flag("listen", "Listen address (overrides LISTEN_ADDR)").String()

	runCmd := app.Command("run", "Run one action over a JSON array of items")
	resource := runCmd.Arg("resource", "Resource: email, domain, template or webhook").Required().String()
	operation := runCmd.Arg("operation", "Operation: send, get or getAll").Required().String()
	input := runCmd.Flag("input", "Items file, a JSON array (default stdin)").Short('i').String()
	continueOnFail := runCmd.Flag("continue-on-fail", "Capture item failures as outputs").Bool()

	credsCmd := app.Command("test-credentials", "Check the API key against the provider")
	opsCmd := app.Command("operations", "List the supported resource/operation pairs")

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if command == opsCmd.FullCommand() {
		for _, op := range actions.Operations() {
			fmt.Println(op)
		}
		return
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mail-connector: %v\n", err)
		os.Exit(1)
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.LogLevel(cfg.Logging.Level)
	logCfg.Pretty = cfg.Logging.Pretty || *pretty
	if *verbose {
		logCfg.Level = logging.LevelDebug
	}
	logger := logging.Setup(logCfg)

	deps, err := newDependencies(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Error initializing connector.")
	}
	defer deps.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch command {
	case serveCmd.FullCommand():
		addr := cfg.Server.Listen
		if *listen != "" {
			addr = *listen
		}
		err = serve(ctx, addr, deps, logger)

	case runCmd.FullCommand():
		var in io.Reader = os.Stdin
		if *input != "" {
			f, openErr := os.Open(*input)
			if openErr != nil {
				logger.Fatal().Err(openErr).Msg("Error opening input.")
			}
			defer f.Close()
			in = f
		}
		err = runAction(ctx, deps.connector, *resource, *operation, *continueOnFail, in, os.Stdout)

	case credsCmd.FullCommand():
		err = deps.client.TestCredentials(ctx)
		if err == nil {
			fmt.Println("credentials OK")
		}
	}

	if err != nil {
		logger.Error().Err(err).Str("command", command).Msg("Command failed.")
		stop()
		deps.Close()
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// dependencies are the long-lived objects shared by all commands.
type dependencies struct {
	client    *client.Client
	connector *actions.Connector
	redis     *redis.Client
}

func newDependencies(cfg *config.Config) (*dependencies, error) {
	clientCfg := client.DefaultConfig(cfg.API.APIKey)
	clientCfg.BaseURL = cfg.API.BaseURL
	clientCfg.UserAgent = cfg.API.UserAgent
	clientCfg.Timeout = cfg.API.Timeout
	clientCfg.CacheablePaths = cfg.Cache.Paths

	deps := &dependencies{}
	if cfg.CacheEnabled() {
		deps.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		clientCfg.Redis = deps.redis
		clientCfg.CacheTTL = cfg.Cache.TTL
	}

	c, err := client.New(clientCfg)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.client = c

	pageCfg := pagination.DefaultConfig()
	pageCfg.MaxPages = cfg.Pagination.MaxPages
	deps.connector = actions.NewConnector(c, pageCfg)

	return deps, nil
}

func (d *dependencies) Close() {
	if d.redis != nil {
		d.redis.Close()
	}
}
