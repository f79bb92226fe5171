package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/nats-io/nats.go"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/flarexio/pointgate"

	mcpE "github.com/flarexio/pointgate/mcp"
	natsT "github.com/flarexio/pointgate/transport/nats"
)

// maxLineSize bounds a single JSON-RPC message read from stdin.
const maxLineSize = 4 << 20

type StdioMCPServer interface {
	AddEndpoint(method mcp.MCPMethod, endpoint mcpE.MCPEndpoint) error
	Listen(ctx context.Context) error
}

func NewStdioMCPServer(in io.Reader, out io.Writer) StdioMCPServer {
	return &stdioMCPServer{
		in:        in,
		out:       json.NewEncoder(out),
		endpoints: make(map[mcp.MCPMethod]mcpE.MCPEndpoint),
	}
}

type stdioMCPServer struct {
	in        io.Reader
	out       *json.Encoder
	endpoints map[mcp.MCPMethod]mcpE.MCPEndpoint
}

// Listen answers one JSON-RPC request per input line until the input ends
// or ctx is done. Unparseable lines and notifications get no reply.
func (s *stdioMCPServer) Listen(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		resp, ok := s.dispatch(ctx, scanner.Bytes())
		if !ok {
			continue
		}

		if err := s.out.Encode(resp); err != nil {
			return err
		}
	}

	return scanner.Err()
}

func (s *stdioMCPServer) dispatch(ctx context.Context, line []byte) (mcp.JSONRPCMessage, bool) {
	if len(bytes.TrimSpace(line)) == 0 {
		return nil, false
	}

	var req mcpE.JSONRPCRequest
	if err := json.Unmarshal(line, &req); err != nil {
		return nil, false
	}

	if req.ID.IsNil() {
		return nil, false
	}

	endpoint, ok := s.endpoints[req.Method]
	if !ok {
		return mcpE.MethodNotFound(req.ID), true
	}

	return endpoint(ctx, req), true
}

func (s *stdioMCPServer) AddEndpoint(method mcp.MCPMethod, endpoint mcpE.MCPEndpoint) error {
	if _, ok := s.endpoints[method]; ok {
		return fmt.Errorf("endpoint already exists: %s", method)
	}

	s.endpoints[method] = endpoint
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "pointgate_mcp_server",
		Usage: "Pointgate MCP Server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "nats",
				Usage:   "NATS server URL",
				Value:   nats.DefaultURL,
				Sources: cli.EnvVars("NATS_URL"),
			},
			&cli.StringFlag{
				Name:    "nats-creds",
				Usage:   "NATS user credentials file",
				Sources: cli.EnvVars("NATS_CREDS"),
			},
			&cli.StringFlag{
				Name:    "topic",
				Usage:   "NATS subject prefix of the pointgate service",
				Value:   "pointgate",
				Sources: cli.EnvVars("POINTGATE_TOPIC"),
			},
		},
		Action: run,
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		log.Fatal(err.Error())
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// stdout carries the protocol, so logs go to stderr
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}

	log, err := cfg.Build()
	if err != nil {
		return err
	}
	defer log.Sync()

	opts := []nats.Option{
		nats.Name("Pointgate MCP Server"),
	}

	if creds := cmd.String("nats-creds"); creds != "" {
		opts = append(opts, nats.UserCredentials(creds))
	}

	nc, err := nats.Connect(cmd.String("nats"), opts...)
	if err != nil {
		return err
	}
	defer nc.Drain()

	endpoints := natsT.MakeEndpoints(nc, cmd.String("topic"))

	var svc pointgate.Service
	svc = pointgate.ProxyMiddleware(endpoints)(svc)
	svc = pointgate.LoggingMiddleware(log)(svc)

	s := NewStdioMCPServer(os.Stdin, os.Stdout)
	s.AddEndpoint(mcp.MethodInitialize, mcpE.InitializeEndpoint(svc))
	s.AddEndpoint(mcp.MethodPing, mcpE.PingEndpoint(svc))
	s.AddEndpoint(mcp.MethodToolsList, mcpE.ListToolsEndpoint(svc))
	s.AddEndpoint(mcp.MethodToolsCall, mcpE.CallToolEndpoint(svc))

	go func() {
		if err := s.Listen(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error(err.Error())
		}

		cancel()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	select {
	case <-quit:
	case <-ctx.Done():
	}

	return nil
}
