// Command xferctl moves files between two endpoints with the packetized
// transfer protocol, over websockets or raw TCP.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/opd-ai/packetxfer/config"
)

// app carries what every subcommand needs once the root command has loaded
// configuration.
type app struct {
	configPath string
	cfg        *config.Config
	logCloser  io.Closer
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "xferctl",
		Short:         "Packetized file transfer client and server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("staging-dir") {
				dir, _ := cmd.Flags().GetString("staging-dir")
				cfg.Transfer.StagingDir = dir
			}
			closer, err := config.ConfigureLogging(cfg.Log)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logCloser = closer
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.logCloser != nil {
				return a.logCloser.Close()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to xferctl.toml")
	root.PersistentFlags().String("staging-dir", "", "override [transfer] staging_dir")

	root.AddCommand(
		newChecksumCommand(a),
		newServeCommand(a),
		newPushCommand(a),
		newFetchCommand(a),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "main",
			"error":    err.Error(),
		}).Debug("Command failed")
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}
