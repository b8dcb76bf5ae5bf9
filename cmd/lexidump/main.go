// Command lexidump is spec.md §6's "dump" CLI collaborator: it streams a
// keyspace's full backup.Dump chunk sequence to a file, carrying a
// backup.Cursor from one Dump call to the next within a run. Each run
// starts from the beginning of the keyspace and overwrites the output file.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lexidb/lexidb/backup"
	"github.com/lexidb/lexidb/internal/bootstrap"
	"github.com/lexidb/lexidb/internal/clirun"
	"github.com/lexidb/lexidb/internal/config"
)

type dumpFlags struct {
	dir      string
	keyspace string
	out      string
}

func main() {
	flags := &dumpFlags{}
	cmd := &cobra.Command{
		Use:   "lexidump --keyspace NAME --dir DATADIR --out FILE",
		Short: "Dump a keyspace to a file",
		RunE: func(_ *cobra.Command, _ []string) error {
			return clirun.Runtime(runDump(flags))
		},
	}
	cmd.Flags().StringVar(&flags.dir, "dir", "", "path to the lexidb data directory")
	cmd.Flags().StringVar(&flags.keyspace, "keyspace", "", "keyspace to dump")
	cmd.Flags().StringVar(&flags.out, "out", "", "output dump file")
	cmd.Flags().String("server", "", "unused in local dump mode; accepted for §6 flag compatibility")
	cmd.Flags().Int("port", 0, "unused in local dump mode; accepted for §6 flag compatibility")
	cmd.MarkFlagRequired("dir")
	cmd.MarkFlagRequired("keyspace")
	cmd.MarkFlagRequired("out")

	clirun.Execute(cmd)
}

func runDump(flags *dumpFlags) error {
	cfg := config.Default()
	cfg.Storage.Dir = flags.dir
	eng, err := bootstrap.Open(cfg)
	if err != nil {
		return err
	}
	defer eng.Close()

	ksID, ok := eng.Registry.Lookup(flags.keyspace)
	if !ok {
		return fmt.Errorf("lexidump: unknown keyspace %q", flags.keyspace)
	}

	f, err := os.Create(flags.out)
	if err != nil {
		return fmt.Errorf("lexidump: create %s: %w", flags.out, err)
	}
	defer f.Close()
	cw := backup.NewChunkWriter(f)

	var cur backup.Cursor
	chunks := 0
	for {
		chunk, next, done, err := backup.Dump(eng.Bolt, ksID, cur, backup.MaxChunk)
		if err != nil {
			return fmt.Errorf("lexidump: %w", err)
		}
		if len(chunk) > 0 {
			if err := cw.WriteChunk(chunk); err != nil {
				return fmt.Errorf("lexidump: %w", err)
			}
			chunks++
		}
		if done {
			break
		}
		cur = next
	}
	if err := cw.Close(); err != nil {
		return fmt.Errorf("lexidump: %w", err)
	}
	eng.Log.Infow("dump complete", "keyspace", flags.keyspace, "chunks", chunks)
	return nil
}
