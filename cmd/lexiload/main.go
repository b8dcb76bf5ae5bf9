// Command lexiload is spec.md §6's "load" CLI collaborator: it reads a
// dump file produced by lexidump and writes it into a (possibly fresh)
// keyspace via backup.Load, inside a single transaction per spec.md §8's
// testable property 10 ("load(dump(ks)) into a fresh keyspace produces a
// byte-identical slice enumeration").
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lexidb/lexidb/backup"
	"github.com/lexidb/lexidb/internal/bootstrap"
	"github.com/lexidb/lexidb/internal/clirun"
	"github.com/lexidb/lexidb/internal/config"
	"github.com/lexidb/lexidb/txn"
)

type loadFlags struct {
	dir      string
	keyspace string
	in       string
}

func main() {
	flags := &loadFlags{}
	cmd := &cobra.Command{
		Use:   "lexiload --keyspace NAME --dir DATADIR --in FILE",
		Short: "Load a dump file into a keyspace",
		RunE: func(_ *cobra.Command, _ []string) error {
			return clirun.Runtime(runLoad(flags))
		},
	}
	cmd.Flags().StringVar(&flags.dir, "dir", "", "path to the lexidb data directory")
	cmd.Flags().StringVar(&flags.keyspace, "keyspace", "", "keyspace to load into, registered if absent")
	cmd.Flags().StringVar(&flags.in, "in", "", "dump file produced by lexidump")
	cmd.Flags().String("server", "", "unused in local load mode; accepted for §6 flag compatibility")
	cmd.Flags().Int("port", 0, "unused in local load mode; accepted for §6 flag compatibility")
	cmd.MarkFlagRequired("dir")
	cmd.MarkFlagRequired("keyspace")
	cmd.MarkFlagRequired("in")

	clirun.Execute(cmd)
}

func runLoad(flags *loadFlags) error {
	cfg := config.Default()
	cfg.Storage.Dir = flags.dir
	eng, err := bootstrap.Open(cfg)
	if err != nil {
		return err
	}
	defer eng.Close()

	ksID, err := eng.Registry.Register(flags.keyspace)
	if err != nil {
		return fmt.Errorf("lexiload: register keyspace %q: %w", flags.keyspace, err)
	}

	f, err := os.Open(flags.in)
	if err != nil {
		return fmt.Errorf("lexiload: open %s: %w", flags.in, err)
	}
	defer f.Close()
	data, err := backup.ReadAllCompressed(f)
	if err != nil {
		return fmt.Errorf("lexiload: %w", err)
	}

	ctx := context.Background()
	tx, err := eng.Txn.Begin(ctx, ksID, txn.ReadCommitted)
	if err != nil {
		return fmt.Errorf("lexiload: begin: %w", err)
	}
	if err := backup.Load(tx, data); err != nil {
		tx.Abort(err)
		return fmt.Errorf("lexiload: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("lexiload: commit: %w", err)
	}

	eng.Log.Infow("load complete", "keyspace", flags.keyspace, "bytes", len(data))
	return nil
}
