package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/opd-ai/packetxfer/file"
	"github.com/opd-ai/packetxfer/transport"
)

// dialFlags selects the server a push or fetch talks to.
type dialFlags struct {
	url string
	tcp string
}

func (d *dialFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&d.url, "url", "", "websocket URL of the server (default ws://<server.addr><server.path>)")
	cmd.Flags().StringVar(&d.tcp, "tcp", "", "connect to a raw TCP server at this address instead")
}

func (d *dialFlags) dial(ctx context.Context, a *app) (transport.Transport, error) {
	if d.tcp != "" {
		var dialer net.Dialer
		conn, err := dialer.DialContext(ctx, "tcp", d.tcp)
		if err != nil {
			return nil, err
		}
		return transport.NewStreamTransport(conn), nil
	}
	url := d.url
	if url == "" {
		host := a.cfg.Server.Addr
		if strings.HasPrefix(host, ":") {
			host = "localhost" + host
		}
		url = "ws://" + host + a.cfg.Server.Path
	}
	return transport.DialWebSocket(ctx, url)
}

type transferFunc func(m *file.Manager, ctx context.Context, tr transport.Transport, name string) (*file.Context, error)

func runTransfers(cmd *cobra.Command, a *app, d *dialFlags, names []string, verb string, fn transferFunc) error {
	opts, err := a.cfg.Options()
	if err != nil {
		return err
	}
	m := file.NewManager(opts)

	tr, err := d.dial(cmd.Context(), a)
	if err != nil {
		return err
	}
	defer tr.Close()

	for _, name := range names {
		c, err := fn(m, cmd.Context(), tr, name)
		if err != nil {
			return fmt.Errorf("%s %s: %w", verb, name, err)
		}
		printResult(cmd.OutOrStdout(), verb, c)
	}
	return nil
}

func printResult(out io.Writer, verb string, c *file.Context) {
	h := c.Header()
	switch c.Status() {
	case file.StatusNoNeedDownload:
		fmt.Fprintf(out, "%s %s %s\n", color.YellowString("unchanged"), h.LogicalName, h.FormatChecksum())
	default:
		fmt.Fprintf(out, "%s %s %s %d bytes in %d packets\n",
			color.GreenString(verb), h.LogicalName, h.FormatChecksum(), h.TotalLength, c.PacketCount())
	}
}

func newPushCommand(a *app) *cobra.Command {
	var d dialFlags
	cmd := &cobra.Command{
		Use:   "push NAME...",
		Short: "Send staged files to a server",
		Long:  "Send files, named relative to the staging directory, to a server.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransfers(cmd, a, &d, args, "pushed", (*file.Manager).Push)
		},
	}
	d.register(cmd)
	return cmd
}

func newFetchCommand(a *app) *cobra.Command {
	var d dialFlags
	cmd := &cobra.Command{
		Use:   "fetch NAME...",
		Short: "Download files from a server into the staging directory",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransfers(cmd, a, &d, args, "fetched", (*file.Manager).Fetch)
		},
	}
	d.register(cmd)
	return cmd
}
