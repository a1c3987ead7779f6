package cmd

import (
	"fmt"
	"io"
	"os"
	pathpkg "path/filepath"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/term"

	"tracecfg/internal/cfg"
	"tracecfg/internal/config"
	"tracecfg/internal/disasm"
	"tracecfg/internal/logging"
	"tracecfg/internal/render"
	"tracecfg/internal/symbols"
	"tracecfg/internal/trace"
	"tracecfg/internal/tracecfg/styles"
	"tracecfg/internal/ui/colorize"
)

// pipeline carries the per-run settings from trace decoding to export.
type pipeline struct {
	conf   config.Config
	lg     *log.Logger
	arch   disasm.Arch
	symtab *symbols.Table
	dm     *symbols.Demangler
	merges map[uint64]uint64
	policy cfg.MergePolicy
}

// result is one built graph together with what happened on the way.
type result struct {
	source  string
	records int
	issues  []trace.Issue
	notes   []string
	graph   *cfg.Cfg
	obs     *logging.GraphObserver
}

func newPipeline(conf config.Config, lg *log.Logger) (*pipeline, error) {
	p := &pipeline{conf: conf, lg: lg, dm: &symbols.Demangler{}}

	arch, err := disasm.ParseArch(conf.Arch)
	if err != nil {
		return nil, err
	}
	p.arch = arch

	if conf.ELF != "" {
		base, err := conf.Base()
		if err != nil {
			return nil, err
		}
		tab, err := symbols.Open(conf.ELF, base)
		if err != nil {
			return nil, err
		}
		lg.Debug("Loaded symbols", "elf", conf.ELF, "base", fmt.Sprintf("%#x", base), "count", tab.Len())
		p.symtab = tab
	}

	if p.merges, err = config.ParseMerges(conf.Merge); err != nil {
		return nil, err
	}
	if conf.MergeUnion {
		p.policy = cfg.MergeUnion
	}
	return p, nil
}

// prepare recovers missing text and branch flags and names foreign
// targets, in place. It returns human readable notes for the report.
func (p *pipeline) prepare(stream trace.Stream) []string {
	var notes []string
	if p.arch != disasm.ArchNone {
		st := disasm.Annotate(stream, disasm.Options{Arch: p.arch, InferBranches: p.conf.InferBranches})
		p.lg.Debug("Annotated", "arch", p.arch, "filled", st.Filled, "inferred", st.Inferred, "failed", st.Failed)
		if st.Filled+st.Inferred+st.Failed > 0 {
			notes = append(notes, fmt.Sprintf("%s decoder filled %d texts, inferred %d branches, failed on %d records",
				p.arch, st.Filled, st.Inferred, st.Failed))
		}
	}
	st := symbols.Resolve(stream, p.symtab, p.dm)
	if st.Named+st.Demangled > 0 {
		notes = append(notes, fmt.Sprintf("named %d foreign targets, demangled %d", st.Named, st.Demangled))
	}
	if st.Unresolved > 0 {
		p.lg.Debug("Unnamed foreign targets", "count", st.Unresolved)
	}
	return notes
}

// build turns a prepared stream into a graph, applies the manual splits,
// then the configured merges and deduplication, and finally validates the
// graph when checking is enabled.
func (p *pipeline) build(stream trace.Stream, splits []uint64) (*cfg.Cfg, *logging.GraphObserver, []string, error) {
	obs := logging.NewGraphObserver(p.lg)
	g, err := cfg.FromStream(stream, cfg.WithObserver(obs), cfg.WithMergePolicy(p.policy))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("build: %w", err)
	}

	var notes []string
	for _, addr := range splits {
		out, err := g.Split(addr)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("split %#x: %w", addr, err)
		}
		p.lg.Info("Split", "addr", fmt.Sprintf("%#x", addr), "outcome", out)
		notes = append(notes, fmt.Sprintf("split at %#x: %s", addr, out))
	}

	if len(p.merges) > 0 {
		if err := g.Merge(p.merges); err != nil {
			return nil, nil, nil, fmt.Errorf("merge: %w", err)
		}
		notes = append(notes, fmt.Sprintf("merged %d vertices on request (%s)", len(p.merges), p.policy))
	}

	if p.conf.Dedup {
		dups := g.Duplicates()
		if len(dups) > 0 {
			if err := g.Merge(dups); err != nil {
				return nil, nil, nil, fmt.Errorf("dedup: %w", err)
			}
		}
		notes = append(notes, fmt.Sprintf("dedup merged %d vertices", len(dups)))
	}

	if p.conf.Check {
		if err := g.Validate(); err != nil {
			return nil, nil, nil, fmt.Errorf("check: %w", err)
		}
		notes = append(notes, "invariants checked")
	}
	return g, obs, notes, nil
}

// run is the whole pipeline over an encoded trace.
func (p *pipeline) run(source string, data []byte, splits []uint64) (*result, error) {
	stream, issues, err := trace.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	for _, is := range issues {
		p.lg.Warn("Trace record", "source", source, "issue", is.String())
	}
	p.lg.Debug("Parsed trace", "source", source, "records", len(stream), "issues", len(issues))

	notes := p.prepare(stream)
	g, obs, more, err := p.build(stream, splits)
	if err != nil {
		return nil, err
	}
	st := g.Stats()
	p.lg.Info("Built graph",
		"vertices", st.Vertices,
		"edges", st.Edges,
		"splits", obs.Splits.Load(),
		"collisions", obs.Collisions.Load(),
		"loops", st.Loops)

	return &result{
		source:  source,
		records: len(stream),
		issues:  issues,
		notes:   append(notes, more...),
		graph:   g,
		obs:     obs,
	}, nil
}

// name is the title used in exported graphs.
func (r *result) name() string {
	if r.source == "" || r.source == "-" {
		return "trace"
	}
	return pathpkg.Base(r.source)
}

func (r *result) reportInfo() render.ReportInfo {
	info := render.ReportInfo{
		Source:  r.name(),
		Records: r.records,
		Notes:   slices.Clone(r.notes),
	}
	for _, is := range r.issues {
		info.Issues = append(info.Issues, is.String())
	}
	if n := r.obs.Collisions.Load(); n > 0 {
		info.Notes = append(info.Notes, fmt.Sprintf("%d address collisions resolved", n))
	}
	if n := r.obs.Mismatches.Load(); n > 0 {
		info.Notes = append(info.Notes, fmt.Sprintf("%d merges discarded outgoing edges", n))
	}
	return info
}

// export writes r in the configured format. color enables terminal
// styling of the listing and report formats.
func (p *pipeline) export(w io.Writer, r *result, color bool) error {
	g := r.graph
	switch p.conf.Format {
	case config.FormatDOT:
		theme, err := render.ThemeByName(p.conf.Theme)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, render.DOT(g, render.DOTOptions{
			Title:         r.name(),
			Theme:         theme,
			MaxLabelLines: p.conf.MaxLabelLines,
		}))
		return err
	case config.FormatLattice:
		_, err := io.WriteString(w, render.LatticeDOT(g, r.name()))
		return err
	case config.FormatCalls:
		_, err := io.WriteString(w, render.CallGraphDOT(g, r.name()))
		return err
	case config.FormatListing:
		return render.Listing(w, g, colorize.New(color))
	case config.FormatJSON:
		return render.JSON(w, g, map[string]any{
			"source":  r.name(),
			"records": r.records,
			"issues":  len(r.issues),
			"stats":   g.Stats(),
		})
	case config.FormatReport:
		md := render.Report(g, r.reportInfo())
		if color {
			out, err := styles.RenderMarkdown(md, terminalWidth(), p.conf.ReportStyle)
			if err != nil {
				return err
			}
			md = out
		}
		_, err := io.WriteString(w, md)
		return err
	}
	return fmt.Errorf("unknown format %q", p.conf.Format)
}

// isTTY reports whether w is a terminal.
func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(f.Fd())
}

func terminalWidth() int {
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		return w - 2
	}
	return 100
}

// writeOutput writes through fn to conf.Output, atomically replacing the
// file, or to stdout when no output file is configured.
func writeOutput(stdout io.Writer, path string, noColor bool, fn func(w io.Writer, color bool) error) error {
	if path == "" {
		return fn(stdout, !noColor && isTTY(stdout))
	}
	tmp, err := os.CreateTemp(pathpkg.Dir(path), "."+pathpkg.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("create output: %w", err)
	}
	if err := fn(tmp, false); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
