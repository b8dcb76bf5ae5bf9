// Command lexirepl is spec.md §6's "repl" CLI collaborator: an
// interactive shell over one keyspace's transaction engine and planner,
// for ad hoc inspection of a data directory without writing a client.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lexidb/lexidb/internal/bootstrap"
	"github.com/lexidb/lexidb/internal/clirun"
	"github.com/lexidb/lexidb/internal/config"
	"github.com/lexidb/lexidb/planner"
	"github.com/lexidb/lexidb/txn"
)

type replFlags struct {
	dir      string
	keyspace string
}

func main() {
	flags := &replFlags{}
	cmd := &cobra.Command{
		Use:   "lexirepl --keyspace NAME --dir DATADIR",
		Short: "Interactive shell over a keyspace",
		RunE: func(_ *cobra.Command, _ []string) error {
			return clirun.Runtime(runRepl(flags))
		},
	}
	cmd.Flags().StringVar(&flags.dir, "dir", "", "path to the lexidb data directory")
	cmd.Flags().StringVar(&flags.keyspace, "keyspace", "", "keyspace to open")
	cmd.Flags().String("server", "", "unused in local repl mode; accepted for §6 flag compatibility")
	cmd.Flags().Int("port", 0, "unused in local repl mode; accepted for §6 flag compatibility")
	cmd.MarkFlagRequired("dir")
	cmd.MarkFlagRequired("keyspace")

	clirun.Execute(cmd)
}

// session holds the one open transaction a repl command may be operating
// against; begin/commit/abort manage its lifetime explicitly, the same
// "no ambient current transaction" discipline txn.BeginNested documents.
type session struct {
	eng *bootstrap.Engine
	ks  uint32
	tx  *txn.Transaction
}

func runRepl(flags *replFlags) error {
	cfg := config.Default()
	cfg.Storage.Dir = flags.dir
	eng, err := bootstrap.Open(cfg)
	if err != nil {
		return err
	}
	defer eng.Close()

	ksID, err := eng.Registry.Register(flags.keyspace)
	if err != nil {
		return fmt.Errorf("lexirepl: register keyspace %q: %w", flags.keyspace, err)
	}
	sess := &session{eng: eng, ks: ksID}

	fmt.Fprintf(os.Stdout, "lexirepl: keyspace %q (id %d). Commands: begin [rr], put TABLE KEY COL=VAL..., get TABLE KEY COL, slice TABLE, count TABLE, stats, commit, abort, quit\n", flags.keyspace, ksID)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(os.Stdout, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}
		if err := sess.dispatch(line); err != nil {
			fmt.Fprintf(os.Stdout, "error: %v\n", err)
		}
	}
	return nil
}

func (s *session) dispatch(line string) error {
	fields := strings.Fields(line)
	ctx := context.Background()
	switch fields[0] {
	case "begin":
		isolation := txn.ReadCommitted
		if len(fields) > 1 && fields[1] == "rr" {
			isolation = txn.RepeatableRead
		}
		tx, err := s.eng.Txn.Begin(ctx, s.ks, isolation)
		if err != nil {
			return err
		}
		s.tx = tx
		fmt.Fprintf(os.Stdout, "began %s transaction\n", isolation)
		return nil
	case "commit":
		if s.tx == nil {
			return fmt.Errorf("no open transaction")
		}
		err := s.tx.Commit(ctx)
		s.tx = nil
		return err
	case "abort":
		if s.tx == nil {
			return fmt.Errorf("no open transaction")
		}
		err := s.tx.Abort(nil)
		s.tx = nil
		return err
	case "put":
		if s.tx == nil || len(fields) < 4 {
			return fmt.Errorf("usage: put TABLE KEY COL=VAL [COL=VAL...] (need an open transaction)")
		}
		cols := make(map[string]txn.ColumnValue, len(fields)-3)
		for _, kv := range fields[3:] {
			parts := strings.SplitN(kv, "=", 2)
			if len(parts) != 2 {
				return fmt.Errorf("malformed column assignment %q", kv)
			}
			cols[parts[0]] = txn.ColumnValue{Value: []byte(parts[1])}
		}
		s.tx.PutColumns(fields[1], fields[2], cols)
		return nil
	case "get":
		if s.tx == nil || len(fields) != 4 {
			return fmt.Errorf("usage: get TABLE KEY COLUMN (need an open transaction)")
		}
		value, ok, err := s.tx.GetColumn(ctx, fields[1], fields[2], fields[3])
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(os.Stdout, "(none)")
			return nil
		}
		fmt.Fprintf(os.Stdout, "%s\n", value)
		return nil
	case "slice":
		if s.tx == nil || len(fields) != 2 {
			return fmt.Errorf("usage: slice TABLE (need an open transaction)")
		}
		result, err := planner.GetSlice(ctx, s.tx, fields[1], planner.Range(nil, nil), planner.SelectAll(), 0, 0, true, s.eng.Metrics)
		if err != nil {
			return err
		}
		for _, row := range result.Rows {
			fmt.Fprintf(os.Stdout, "%s:\n", row.Key)
			for _, col := range row.Columns {
				fmt.Fprintf(os.Stdout, "  %s = %s (ts=%d)\n", col.Name, col.Value, col.TSMicros)
			}
		}
		return nil
	case "count":
		if s.tx == nil || len(fields) != 2 {
			return fmt.Errorf("usage: count TABLE (need an open transaction)")
		}
		n, err := planner.CountKeys(ctx, s.tx, fields[1], planner.Range(nil, nil))
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, n)
		return nil
	case "stats":
		stats, err := s.eng.Stats(s.ks)
		if err != nil {
			return err
		}
		for _, st := range stats {
			fmt.Fprintf(os.Stdout, "%s: keys=%d approx_bytes=%d\n", st.Table, st.KeyCount, st.ApproxBytes)
		}
		return nil
	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}
}
