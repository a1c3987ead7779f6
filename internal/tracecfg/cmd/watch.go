package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/nxadm/tail"
	"github.com/spf13/cobra"

	"tracecfg/internal/trace"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [trace.jsonl]",
		Short: "Follow a JSON-lines trace and keep its export up to date",
		Long: `Follow a trace that is still being written, one record per line. The graph
is rebuilt and the output file rewritten every --every records and once more
when watching stops. Without --output only the final export is printed.`,
		Example: `
# Keep cfg.dot current while the tracer runs
tracecfg watch -o cfg.dot trace.jsonl
  `,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			every, _ := cmd.Flags().GetInt("every")
			follow, _ := cmd.Flags().GetBool("follow")
			poll, _ := cmd.Flags().GetBool("poll")
			if every <= 0 {
				return fmt.Errorf("--every must be positive")
			}
			conf, lg, err := setup(cmd)
			if err != nil {
				return err
			}
			p, err := newPipeline(conf, lg)
			if err != nil {
				return err
			}
			w := &watcher{
				p:      p,
				lg:     lg,
				source: args[0],
				every:  every,
				flush: func(r *result, final bool) error {
					if conf.Output == "" && !final {
						return nil
					}
					return writeOutput(cmd.OutOrStdout(), conf.Output, conf.NoColor, func(out io.Writer, color bool) error {
						return p.export(out, r, color)
					})
				},
			}
			return w.run(cmd.Context(), tail.Config{
				Follow:    follow,
				ReOpen:    follow,
				Poll:      poll,
				MustExist: true,
				Logger:    tail.DiscardingLogger,
			})
		},
	}
	cmd.Flags().Int("every", 1000, "Rebuild after this many new records")
	cmd.Flags().Bool("follow", true, "Keep waiting for new records at the end of the file")
	cmd.Flags().Bool("poll", false, "Poll for file changes instead of using inotify")
	return cmd
}

// watcher accumulates records from a followed file and periodically
// rebuilds the graph from everything seen so far.
type watcher struct {
	p      *pipeline
	lg     *log.Logger
	source string
	every  int
	flush  func(r *result, final bool) error

	stream  trace.Stream
	issues  []trace.Issue
	notes   []string
	line    int
	pending int
}

func (w *watcher) run(ctx context.Context, tc tail.Config) error {
	t, err := tail.TailFile(w.source, tc)
	if err != nil {
		return fmt.Errorf("watch %s: %w", w.source, err)
	}
	defer t.Cleanup()
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return w.rebuild(true)
		case line, ok := <-t.Lines:
			if !ok {
				if err := w.rebuild(true); err != nil {
					return err
				}
				return t.Wait()
			}
			if line.Err != nil {
				w.lg.Warn("Watch", "source", w.source, "error", line.Err)
				continue
			}
			w.add(line.Text)
			if w.pending >= w.every {
				if err := w.rebuild(false); err != nil {
					return err
				}
			}
		}
	}
}

// add decodes one line. Blank lines are skipped but still counted so that
// issue indices match line numbers.
func (w *watcher) add(text string) {
	w.line++
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	in, issues, ok := trace.ParseRecord(w.line, []byte(text))
	for _, is := range issues {
		w.lg.Warn("Trace record", "source", w.source, "issue", is.String())
	}
	w.issues = append(w.issues, issues...)
	if !ok {
		return
	}
	fresh := trace.Stream{in}
	w.notes = append(w.notes, w.p.prepare(fresh)...)
	w.stream = append(w.stream, fresh[0])
	w.pending++
}

func (w *watcher) rebuild(final bool) error {
	if w.pending == 0 && !final {
		return nil
	}
	w.pending = 0
	g, obs, notes, err := w.p.build(w.stream, nil)
	if err != nil {
		return err
	}
	w.lg.Debug("Rebuilt graph", "records", len(w.stream), "vertices", g.Len(), "final", final)
	r := &result{
		source:  w.source,
		records: len(w.stream),
		issues:  w.issues,
		notes:   append(summarize(w.notes), notes...),
		graph:   g,
		obs:     obs,
	}
	return w.flush(r, final)
}

// summarize collapses repeated per-record notes into one line each.
func summarize(notes []string) []string {
	counts := make(map[string]int)
	var order []string
	for _, n := range notes {
		if counts[n] == 0 {
			order = append(order, n)
		}
		counts[n]++
	}
	out := make([]string, 0, len(order))
	for _, n := range order {
		if c := counts[n]; c > 1 {
			out = append(out, fmt.Sprintf("%s (x%d)", n, c))
		} else {
			out = append(out, n)
		}
	}
	return out
}
