package main

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/micro"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/flarexio/pointgate"
	"github.com/flarexio/pointgate/embedding"
	"github.com/flarexio/pointgate/persistence/qdrant"
	"github.com/flarexio/pointgate/secrets"

	mcpE "github.com/flarexio/pointgate/mcp"
	httpT "github.com/flarexio/pointgate/transport/http"
	natsT "github.com/flarexio/pointgate/transport/nats"
)

func main() {
	cmd := &cli.Command{
		Name:  "pointgate",
		Usage: "Pointgate vector gateway",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "path",
				Usage: "Path to the pointgate config directory",
			},
			&cli.StringFlag{
				Name:  "http-addr",
				Usage: "HTTP server address",
				Value: ":8080",
			},
			&cli.StringFlag{
				Name:    "nats",
				Usage:   "NATS server URL, the NATS transport is disabled when empty",
				Sources: cli.EnvVars("NATS_URL"),
			},
			&cli.StringFlag{
				Name:    "nats-creds",
				Usage:   "NATS user credentials file",
				Sources: cli.EnvVars("NATS_CREDS"),
			},
			&cli.StringFlag{
				Name:    "topic",
				Usage:   "NATS subject prefix",
				Value:   "pointgate",
				Sources: cli.EnvVars("POINTGATE_TOPIC"),
			},
			&cli.StringFlag{
				Name:    "qdrant-url",
				Usage:   "Vector database base URL",
				Sources: cli.EnvVars(secrets.QdrantURL),
			},
			&cli.StringFlag{
				Name:    "qdrant-key",
				Usage:   "Vector database API key",
				Sources: cli.EnvVars(secrets.QdrantKey),
			},
			&cli.StringFlag{
				Name:    "embedding-url",
				Usage:   "Embedding endpoint URL",
				Sources: cli.EnvVars(secrets.EmbeddingURL),
			},
		},
		Action: run,
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		log.Fatal(err.Error())
	}
}

func loadConfig(path string) (pointgate.Config, error) {
	f, err := os.Open(filepath.Join(path, "config.yaml"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return pointgate.DefaultConfig(), nil
		}

		return pointgate.Config{}, err
	}
	defer f.Close()

	var cfg pointgate.Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return pointgate.Config{}, err
	}

	return cfg.Normalize(), nil
}

func loadSecrets(path string, cmd *cli.Command) (secrets.Store, error) {
	store, err := secrets.Load(filepath.Join(path, "secrets.yaml"))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return secrets.Store{}, err
		}

		store = secrets.New(nil)
	}

	return store.Merge(map[string]string{
		secrets.QdrantURL:    cmd.String("qdrant-url"),
		secrets.QdrantKey:    cmd.String("qdrant-key"),
		secrets.EmbeddingURL: cmd.String("embedding-url"),
	}), nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("path")
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return err
		}

		path = filepath.Join(homeDir, ".flarex", "pointgate")
	}

	log, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer log.Sync()

	zap.ReplaceGlobals(log)

	cfg, err := loadConfig(path)
	if err != nil {
		return err
	}

	store, err := loadSecrets(path, cmd)
	if err != nil {
		return err
	}

	client := &http.Client{}

	gateway := qdrant.NewGateway(store, client)
	embedder := embedding.NewHTTPEmbedder(store, client)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	svc := pointgate.NewService(cfg, gateway, embedder)
	svc = pointgate.LoggingMiddleware(log)(svc)
	svc = pointgate.InstrumentingMiddleware(pointgate.NewMetrics(reg))(svc)

	endpoints := pointgate.MakeEndpoints(svc)

	// Add NATS Transport
	if natsURL := cmd.String("nats"); natsURL != "" {
		opts := []nats.Option{
			nats.Name("Pointgate Server"),
		}

		if creds := cmd.String("nats-creds"); creds != "" {
			opts = append(opts, nats.UserCredentials(creds))
		}

		nc, err := nats.Connect(natsURL, opts...)
		if err != nil {
			return err
		}
		defer nc.Drain()

		srv, err := micro.AddService(nc, micro.Config{
			Name:    "pointgate",
			Version: "1.0.0",
		})

		if err != nil {
			return err
		}
		defer srv.Stop()

		root := srv.AddGroup(cmd.String("topic"))
		natsT.AddEndpoints(root, endpoints)

		log.Info("nats transport enabled", zap.String("url", natsURL))
	}

	// Add HTTP Transport
	{
		r := httpT.NewEngine(log)
		httpT.AddRouters(r, endpoints)

		mcpEndpoints := make(map[mcp.MCPMethod]mcpE.MCPEndpoint)
		mcpEndpoints[mcp.MethodInitialize] = mcpE.InitializeEndpoint(svc)
		mcpEndpoints[mcp.MethodPing] = mcpE.PingEndpoint(svc)
		mcpEndpoints[mcp.MethodToolsList] = mcpE.ListToolsEndpoint(svc)
		mcpEndpoints[mcp.MethodToolsCall] = mcpE.CallToolEndpoint(svc)
		httpT.AddStreamableRouters(r, mcpEndpoints)

		httpT.AddMetricsRouter(r, reg)

		httpAddr := cmd.String("http-addr")
		go func() {
			if err := r.Run(httpAddr); err != nil {
				log.Error(err.Error())
			}
		}()

		log.Info("http transport enabled", zap.String("addr", httpAddr))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sign := <-quit

	log.Info("graceful shutdown", zap.String("signal", sign.String()))
	return nil
}
