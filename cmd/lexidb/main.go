// Command lexidb is the server binary spec.md §6 names as a CLI
// collaborator: it opens a keyspace data directory and listens for framed
// command-plane connections (§6). The request taxonomy's wire encoding is
// out of scope (§1); each connection is served by reading and logging
// frames, which is as much of the command plane as this spec fixes.
package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lexidb/lexidb/internal/bootstrap"
	"github.com/lexidb/lexidb/internal/clirun"
	"github.com/lexidb/lexidb/internal/config"
	"github.com/lexidb/lexidb/protocol"
)

type serverFlags struct {
	configPath string
	keyspace   string
	listenAddr string
}

func main() {
	flags := &serverFlags{}
	cmd := &cobra.Command{
		Use:   "lexidb",
		Short: "lexidb keyspace server",
		RunE: func(_ *cobra.Command, _ []string) error {
			return clirun.Runtime(runServer(flags))
		},
	}
	cmd.Flags().StringVar(&flags.configPath, "config", "", "path to a TOML configuration file")
	cmd.Flags().StringVar(&flags.keyspace, "keyspace", "", "keyspace to register at startup if absent")
	cmd.Flags().StringVar(&flags.listenAddr, "server", "", "command-plane listen address (overrides config)")
	var port int
	cmd.Flags().IntVar(&port, "port", 0, "unused; the listen port is part of --server or the config's listen_addr")

	clirun.Execute(cmd)
}

func runServer(flags *serverFlags) error {
	cfg := config.Default()
	if flags.configPath != "" {
		loaded, err := config.Load(flags.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if flags.listenAddr != "" {
		cfg.Server.ListenAddr = flags.listenAddr
	}

	eng, err := bootstrap.Open(cfg)
	if err != nil {
		return err
	}
	defer eng.Close()

	if flags.keyspace != "" {
		if _, err := eng.Registry.Register(flags.keyspace); err != nil {
			return fmt.Errorf("register keyspace %q: %w", flags.keyspace, err)
		}
	}

	ln, err := net.Listen("tcp", cfg.Server.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Server.ListenAddr, err)
	}
	defer ln.Close()
	eng.Log.Infow("lexidb listening", "addr", cfg.Server.ListenAddr)

	go acceptLoop(ln, eng)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	eng.Log.Infow("lexidb shutting down")
	return nil
}

func acceptLoop(ln net.Listener, eng *bootstrap.Engine) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			eng.Log.Warnw("accept failed", "err", err)
			return
		}
		go serveConn(conn, eng)
	}
}

// serveConn reads command-plane frames off conn until one fails to
// decode, per spec.md §7: "Protocol errors fail all pending requests on
// that connection and close it."
func serveConn(conn net.Conn, eng *bootstrap.Engine) {
	defer conn.Close()
	for {
		frame, err := protocol.ReadFrame(conn)
		if err != nil {
			eng.Log.Warnw("command-plane frame error, closing connection", "err", err)
			return
		}
		eng.Log.Debugw("command-plane frame received", "request_id", frame.RequestID, "len", len(frame.Payload))
	}
}
