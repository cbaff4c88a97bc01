package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/matiasleandrokruk/boatsearch/internal/infra/config"
	"github.com/matiasleandrokruk/boatsearch/internal/infra/logging"
	"github.com/matiasleandrokruk/boatsearch/internal/version"
)

// noConfigCommands run without loading configuration, so they work even
// when the environment is incomplete or invalid.
var noConfigCommands = map[string]bool{
	"boatsearch":  true,
	"version":     true,
	"hash-secret": true,
	"help":        true,
	"completion":  true,
}

// cli carries state set up by the root command for its subcommands.
type cli struct {
	out    io.Writer
	errOut io.Writer
	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	c := &cli{out: out, errOut: errOut, logger: logging.Discard()}

	root := &cobra.Command{
		Use:           "boatsearch",
		Short:         "LLM-backed natural-language search over a boat dataset",
		Long:          `Loads a boat CSV into a local store and answers questions about it by sending the whole table to a chat-completion model.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if noConfigCommands[topLevelCmdName(cmd)] {
				return nil
			}
			return c.init()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetVersionTemplate(version.String() + "\n")

	root.AddCommand(
		c.serveCmd(),
		c.loadCmd(),
		c.searchCmd(),
		c.mcpCmd(),
		c.tokenCmd(),
		c.hashSecretCmd(),
		c.versionCmd(),
	)
	return root
}

// init loads configuration and builds the logger.
func (c *cli) init() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(c.errOut, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.logger = logger
	return nil
}

// topLevelCmdName returns the name of the direct child of root in cmd's
// ancestry, or root's own name.
func topLevelCmdName(cmd *cobra.Command) string {
	for cmd.HasParent() && cmd.Parent().HasParent() {
		cmd = cmd.Parent()
	}
	return cmd.Name()
}
