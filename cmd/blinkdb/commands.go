package main

import (
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"blinkdb/pkg/common"
	"blinkdb/pkg/core"
	"blinkdb/pkg/core/blink"
	"blinkdb/pkg/core/memory"
	"blinkdb/pkg/monitor"
)

const progressEvery = 100_000

func keyAt(i int) common.KeyType {
	return common.KeyType(fmt.Sprintf("key-%010d", i))
}

func (e *env) newTree(reg prometheus.Registerer) (*blink.Tree, error) {
	opts := []blink.Option{blink.WithLogger(e.log.With().Str("module", "blink").Logger())}
	if reg != nil {
		opts = append(opts, blink.WithMetrics(monitor.NewMetrics(reg)))
	}
	return blink.NewTree(e.cfg.Tree, opts...)
}

func queryCommand(e *env) *cobra.Command {
	var seed int
	cmd := &cobra.Command{
		Use:   "query <key>",
		Short: "Query one key, optionally after loading generated records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := e.newTree(nil)
			if err != nil {
				return err
			}
			for i := 0; i < seed; i++ {
				if err := tree.Upsert(keyAt(i), []byte(fmt.Sprint(i))); err != nil {
					return err
				}
			}
			res, err := tree.Query(common.KeyType(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Size of the result set=%d\n", len(res))
			return nil
		},
	}
	cmd.Flags().IntVar(&seed, "seed", 0, "number of generated records (key-0000000000, ...) to load first")
	return cmd
}

func loadCommand(e *env) *cobra.Command {
	var (
		count   int
		workers int
		verify  bool
		dotPath string
	)
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Upsert generated keys from concurrent workers and report tree metrics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if workers < 1 {
				workers = 1
			}
			reg := prometheus.NewRegistry()
			tree, err := e.newTree(reg)
			if err != nil {
				return err
			}

			order := rand.New(rand.NewSource(int64(count))).Perm(count)
			var (
				wg       sync.WaitGroup
				mu       sync.Mutex
				firstErr error
			)
			start := time.Now()
			for w := 0; w < workers; w++ {
				wg.Add(1)
				go func(w int) {
					defer wg.Done()
					for j := w; j < count; j += workers {
						i := order[j]
						if err := tree.Upsert(keyAt(i), []byte(fmt.Sprint(i))); err != nil {
							mu.Lock()
							if firstErr == nil {
								firstErr = err
							}
							mu.Unlock()
							return
						}
						if w == 0 && j > 0 && j%progressEvery == 0 {
							var m runtime.MemStats
							runtime.ReadMemStats(&m)
							e.log.Info().Msgf("entries=%s height=%d dur=%s alloc=%s",
								humanize.Comma(int64(tree.Len())),
								tree.Height(),
								time.Since(start),
								humanize.Bytes(m.Alloc),
							)
						}
					}
				}(w)
			}
			wg.Wait()
			if firstErr != nil {
				return firstErr
			}
			elapsed := time.Since(start)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "loaded %s keys with %d workers in %s (%s upserts/s)\n",
				humanize.Comma(int64(tree.Len())), workers, elapsed.Round(time.Millisecond),
				humanize.Comma(int64(float64(count)/elapsed.Seconds())))
			fmt.Fprintf(out, "height=%d\n", tree.Height())
			if err := printMetrics(cmd, reg); err != nil {
				return err
			}

			if verify {
				if err := verifyTree(tree, count); err != nil {
					return err
				}
				fmt.Fprintln(out, "verify: ok")
			}
			if dotPath != "" {
				graph, err := tree.RenderDot()
				if err != nil {
					return err
				}
				if err := os.WriteFile(dotPath, []byte(graph), 0o644); err != nil {
					return err
				}
				e.log.Info().Str("path", dotPath).Msg("wrote graphviz")
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 1_000_000, "number of distinct keys")
	cmd.Flags().IntVar(&workers, "workers", runtime.NumCPU(), "concurrent writers")
	cmd.Flags().BoolVar(&verify, "verify", false, "validate the structure and read back every key")
	cmd.Flags().StringVar(&dotPath, "dot", "", "write a Graphviz rendering of the tree to this file")
	return cmd
}

func verifyTree(tree *blink.Tree, count int) error {
	if err := tree.Validate(); err != nil {
		return err
	}
	if tree.Len() != count {
		return fmt.Errorf("tree holds %d keys, loaded %d", tree.Len(), count)
	}
	for i := 0; i < count; i++ {
		val, ok, err := tree.Get(keyAt(i))
		if err != nil {
			return err
		}
		if !ok || string(val) != fmt.Sprint(i) {
			return fmt.Errorf("key %s: got %q, found=%v", keyAt(i), val, ok)
		}
	}
	return nil
}

func printMetrics(cmd *cobra.Command, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var v float64
			switch {
			case m.GetCounter() != nil:
				v = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				v = m.GetGauge().GetValue()
			default:
				continue
			}
			name := mf.GetName()
			for _, lp := range m.GetLabel() {
				name += fmt.Sprintf("{%s=%q}", lp.GetName(), lp.GetValue())
			}
			fmt.Fprintf(out, "%s %s\n", name, humanize.Comma(int64(v)))
		}
	}
	return nil
}

func benchCommand(e *env) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Compare the B-link tree against the single-lock B-tree baseline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tree, err := e.newTree(nil)
			if err != nil {
				return err
			}
			indexes := []core.Index{tree, memory.NewMemTable(e.cfg.MemTable.Degree)}
			order := rand.New(rand.NewSource(1)).Perm(count)

			out := cmd.OutOrStdout()
			for _, idx := range indexes {
				upserts, queries, err := benchIndex(idx, order)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%-6s upsert %s ops/s  query %s ops/s  (%s keys)\n",
					idx.Type(),
					humanize.Comma(int64(float64(count)/upserts.Seconds())),
					humanize.Comma(int64(float64(count)/queries.Seconds())),
					humanize.Comma(int64(idx.Len())),
				)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 200_000, "number of distinct keys")
	return cmd
}

func benchIndex(idx core.Index, order []int) (time.Duration, time.Duration, error) {
	start := time.Now()
	for _, i := range order {
		if err := idx.Upsert(keyAt(i), []byte("bench")); err != nil {
			return 0, 0, err
		}
	}
	upserts := time.Since(start)

	start = time.Now()
	for _, i := range order {
		res, err := idx.Query(keyAt(i))
		if err != nil {
			return 0, 0, err
		}
		if len(res) != 1 {
			return 0, 0, fmt.Errorf("%s lost key %s", idx.Type(), keyAt(i))
		}
	}
	return upserts, time.Since(start), nil
}

func dotCommand(e *env) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "dot",
		Short: "Print a Graphviz rendering of a generated tree",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tree, err := e.newTree(nil)
			if err != nil {
				return err
			}
			for _, i := range rand.New(rand.NewSource(int64(count))).Perm(count) {
				if err := tree.Upsert(keyAt(i), nil); err != nil {
					return err
				}
			}
			graph, err := tree.RenderDot()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), graph)
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 32, "number of generated keys")
	return cmd
}
