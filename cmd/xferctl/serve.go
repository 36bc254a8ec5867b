package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/opd-ai/packetxfer/file"
	"github.com/opd-ai/packetxfer/transport"
)

func newServeCommand(a *app) *cobra.Command {
	var tcpAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Accept pushes and answer fetches from the staging directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.cfg.Options()
			if err != nil {
				return err
			}
			m := file.NewManager(opts)
			ctx := cmd.Context()

			if tcpAddr != "" {
				ln, err := net.Listen("tcp", tcpAddr)
				if err != nil {
					return err
				}
				color.Green("serving %s over tcp on %s", opts.StagingDir, ln.Addr())
				return serveTCP(ctx, m, ln)
			}

			srv := &http.Server{
				Addr:              a.cfg.Server.Addr,
				Handler:           websocketHandler(m, a.cfg.Server.Path),
				ReadHeaderTimeout: 10 * time.Second,
			}
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(shutdownCtx)
			}()

			color.Green("serving %s over websocket on %s%s", opts.StagingDir, a.cfg.Server.Addr, a.cfg.Server.Path)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&tcpAddr, "tcp", "", "listen for raw TCP connections on this address instead of websockets")
	return cmd
}

func websocketHandler(m *file.Manager, path string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		tr, err := transport.UpgradeWebSocket(w, r)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "websocketHandler",
				"remote":   r.RemoteAddr,
				"error":    err.Error(),
			}).Warn("Websocket upgrade failed")
			return
		}
		defer tr.Close()
		servePeer(r.Context(), m, tr, r.RemoteAddr)
	})
	return mux
}

func serveTCP(ctx context.Context, m *file.Manager, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		go func() {
			tr := transport.NewStreamTransport(conn)
			defer tr.Close()
			servePeer(ctx, m, tr, conn.RemoteAddr().String())
		}()
	}
}

func servePeer(ctx context.Context, m *file.Manager, tr transport.Transport, remote string) {
	logrus.WithFields(logrus.Fields{
		"function": "servePeer",
		"remote":   remote,
	}).Info("Peer connected")

	if err := m.Serve(ctx, tr); err != nil && !errors.Is(err, context.Canceled) {
		logrus.WithFields(logrus.Fields{
			"function": "servePeer",
			"remote":   remote,
			"error":    err.Error(),
		}).Error("Peer session failed")
		return
	}

	logrus.WithFields(logrus.Fields{
		"function": "servePeer",
		"remote":   remote,
	}).Info("Peer disconnected")
}
