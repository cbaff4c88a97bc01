package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matiasleandrokruk/boatsearch/internal/api"
	"github.com/matiasleandrokruk/boatsearch/internal/domain/dataset"
	"github.com/matiasleandrokruk/boatsearch/internal/domain/search"
	"github.com/matiasleandrokruk/boatsearch/internal/infra/config"
	"github.com/matiasleandrokruk/boatsearch/internal/mcp"
	"github.com/matiasleandrokruk/boatsearch/internal/server"
	"github.com/matiasleandrokruk/boatsearch/internal/version"
	pkgauth "github.com/matiasleandrokruk/boatsearch/pkg/auth"
)

// errAuthDisabled is returned by token when JWT_SECRET is unset.
var errAuthDisabled = errors.New("JWT_SECRET is not set; token auth is disabled")

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

func (c *cli) serveCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd)
			defer stop()

			if cmd.Flags().Changed("host") {
				c.cfg.HTTP.Host = host
			}
			if cmd.Flags().Changed("port") {
				c.cfg.HTTP.Port = port
			}

			handler, closeFn, err := c.buildHandler(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			srvCfg := server.DefaultConfig()
			srvCfg.Host = c.cfg.HTTP.Host
			srvCfg.Port = c.cfg.HTTP.Port
			if t := c.cfg.LLM.Timeout; t > 0 {
				srvCfg.WriteTimeout = t + srvCfg.ReadTimeout
			} else {
				srvCfg.WriteTimeout = 0
			}
			srv := server.NewServer(handler, srvCfg, c.logger)

			ln, err := net.Listen("tcp", srv.Addr())
			if err != nil {
				return fmt.Errorf("listen %s: %w", srv.Addr(), err)
			}
			return srv.Run(ctx, ln)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen host (overrides HTTP_HOST)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides HTTP_PORT)")
	return cmd
}

// buildHandler wires the full HTTP stack from configuration. The returned
// func releases the dataset store.
func (c *cli) buildHandler(ctx context.Context) (http.Handler, func(), error) {
	tokens, err := newTokenIssuer(c.cfg.Auth)
	if err != nil {
		return nil, nil, err
	}
	a, err := newApp(ctx, c.cfg, c.logger)
	if err != nil {
		return nil, nil, err
	}
	if tokens == nil {
		c.logger.Warn("JWT_SECRET not set; /api/v1 is unauthenticated")
	}

	router := api.NewRouter(api.Deps{
		Search:  a.service,
		Dataset: a.store,
		Tokens:  tokens,
		Credentials: pkgauth.Credentials{
			ClientID:   c.cfg.Auth.ClientID,
			SecretHash: c.cfg.Auth.ClientSecretHash,
		},
		Logger: c.logger,
	})
	return router, func() { _ = a.Close() }, nil
}

func (c *cli) loadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Materialise the dataset store from CSV_PATH if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds := c.cfg.Dataset
			if ds.Backend == config.BackendMemory {
				s, err := dataset.OpenMemory(ds.CSVPath)
				if err != nil {
					return err
				}
				n, _ := s.RowCount(cmd.Context())
				fmt.Fprintf(c.out, "memory backend: %s parsed, %d rows; nothing persisted\n", ds.CSVPath, n) //nolint:errcheck
				return nil
			}

			created, err := dataset.Materialize(cmd.Context(), dataset.SQLiteOptions{
				CSVPath: ds.CSVPath,
				DBPath:  ds.SQLitePath,
				Logger:  c.logger,
			})
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(c.out, "created %s from %s\n", ds.SQLitePath, ds.CSVPath) //nolint:errcheck
			} else {
				fmt.Fprintf(c.out, "%s already exists; left unchanged\n", ds.SQLitePath) //nolint:errcheck
			}
			return nil
		},
	}
}

func (c *cli) searchCmd() *cobra.Command {
	var topK int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run one search and print the JSON result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			req := search.Request{Query: args[0]}
			if cmd.Flags().Changed("top-k") {
				req.TopK = &topK
			}
			res, err := a.service.Search(cmd.Context(), req)
			if err != nil {
				return err
			}

			var pretty bytes.Buffer
			if err := json.Indent(&pretty, res.Value, "", "  "); err != nil {
				return fmt.Errorf("format result: %w", err)
			}
			pretty.WriteByte('\n')
			_, err = pretty.WriteTo(c.out)
			return err
		},
	}
	cmd.Flags().IntVar(&topK, "top-k", 0, "maximum number of results the model should return")
	return cmd
}

func (c *cli) mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve search as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd)
			defer stop()

			a, err := newApp(ctx, c.cfg, c.logger)
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			srv := mcp.NewServer(a.service, a.store, c.logger)
			return mcp.Serve(ctx, srv, cmd.InOrStdin(), c.out, c.logger)
		},
	}
}

func (c *cli) tokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token <client-id>",
		Short: "Issue a bearer token for client-id using JWT_SECRET",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			tokens, err := newTokenIssuer(c.cfg.Auth)
			if err != nil {
				return err
			}
			if tokens == nil {
				return errAuthDisabled
			}
			token, expiresAt, err := tokens.Generate(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, token) //nolint:errcheck
			c.logger.Info("token issued", "client_id", args[0], "expires_at", expiresAt.UTC())
			return nil
		},
	}
}

func (c *cli) hashSecretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-secret <secret>",
		Short: "Print the bcrypt hash to use as AUTH_CLIENT_SECRET_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			hash, err := pkgauth.HashSecret(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, hash) //nolint:errcheck
			return nil
		},
	}
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintln(c.out, version.String()) //nolint:errcheck
		},
	}
}
