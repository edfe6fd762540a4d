package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"github.com/teranos/mavgen/am"
	"github.com/teranos/mavgen/compiler"
	"github.com/teranos/mavgen/errors"
	"github.com/teranos/mavgen/layout"
	"github.com/teranos/mavgen/logger"
	"github.com/teranos/mavgen/sources"
	"github.com/teranos/mavgen/triggers"
	"github.com/teranos/mavgen/version"
)

// manifestOptions is the part of the configuration that shapes generated
// output. Changing any of it forces a rebuild.
type manifestOptions struct {
	Output am.OutputConfig `toml:"output"`
	Format am.FormatConfig `toml:"format"`
}

type generateReport struct {
	Skipped  bool
	Reasons  []string
	Result   *compiler.Result
	Stats    compiler.WriteStats
	Duration time.Duration
}

// generate is one refresh-compile-write cycle, shared by generate and watch.
func generate(ctx context.Context, cfg *am.Config, force, fetch bool) (*generateReport, error) {
	log := logger.ComponentLogger("generate")
	start := time.Now()

	if fetch {
		if err := sources.Refresh(ctx, cfg.Definitions, log); err != nil {
			return nil, err
		}
	}

	current, err := triggers.Snapshot(cfg.Definitions.Dir, version.Get().Semver(), manifestOptions{
		Output: cfg.Output,
		Format: cfg.Format,
	})
	if err != nil {
		return nil, err
	}
	previous, err := triggers.Load(cfg.Output.Dir)
	if err != nil {
		log.Warnw("ignoring unreadable trigger manifest", logger.FieldError, err)
		previous = nil
	}
	reasons := triggers.Changes(previous, current)
	for _, missing := range triggers.MissingOutputs(cfg.Output.Dir, previous) {
		reasons = append(reasons, "missing output "+missing)
	}
	if len(reasons) == 0 && !force {
		log.Debugw("output is current", logger.FieldOutput, cfg.Output.Dir)
		return &generateReport{Skipped: true, Duration: time.Since(start)}, nil
	}
	if force {
		reasons = append(reasons, "forced")
	}
	log.Infow("generating", "reasons", reasons)

	opts, err := compiler.FromConfig(cfg, log)
	if err != nil {
		return nil, err
	}
	res, err := compiler.Compile(ctx, opts)
	if err != nil {
		return nil, err
	}
	stats, err := compiler.Write(cfg.Output.Dir, res.Units, log)
	if err != nil {
		return nil, err
	}
	if previous != nil {
		if stats.Removed, err = compiler.Prune(cfg.Output.Dir, previous.Outputs, res.Units, log); err != nil {
			return nil, err
		}
	}

	for _, u := range res.Units {
		current.Outputs = append(current.Outputs, u.Path)
	}
	if err := triggers.Save(cfg.Output.Dir, current); err != nil {
		// Output is written; the next run just regenerates.
		log.Warnw("failed to save trigger manifest", logger.FieldError, err)
	}

	return &generateReport{
		Reasons:  reasons,
		Result:   res,
		Stats:    stats,
		Duration: time.Since(start),
	}, nil
}

func printReport(cfg *am.Config, r *generateReport) {
	if r.Skipped {
		pterm.Success.Printfln("Output in %s is up to date", cfg.Output.Dir)
		return
	}
	if logger.Shows(logger.OutputProgress) {
		pterm.Info.Printfln("Regenerated because: %s", strings.Join(r.Reasons, ", "))
	}

	data := pterm.TableData{{"Dialect", "Messages", "Enums", "Files"}}
	for _, d := range r.Result.Dialects {
		data = append(data, []string{
			d.Name(),
			strconv.Itoa(len(d.Messages)),
			strconv.Itoa(len(d.Set.Enums)),
			strings.Join(d.Set.Files, ", "),
		})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		logger.Warnw("failed to render summary", logger.FieldError, err)
	}
	if logger.Shows(logger.OutputLayout) {
		for _, d := range r.Result.Dialects {
			for _, line := range layoutLines(d) {
				pterm.Println(line)
			}
		}
	}

	summary := fmt.Sprintf("Generated %d dialects into %s: %d written, %d unchanged",
		len(r.Result.Dialects), cfg.Output.Dir, r.Stats.Written, r.Stats.Unchanged)
	if r.Stats.Removed > 0 {
		summary += fmt.Sprintf(", %d removed", r.Stats.Removed)
	}
	if logger.Shows(logger.OutputTiming) {
		summary += " (" + r.Duration.Round(time.Millisecond).String() + ")"
	}
	pterm.Success.Println(summary)
}

// layoutLines describes every message of d: id, crc_extra, payload length
// bounds and the fields in wire order with their offsets.
func layoutLines(d *layout.Dialect) []string {
	lines := make([]string, 0, len(d.Messages))
	for _, m := range d.Messages {
		fields := make([]string, len(m.WireOrder))
		for i, f := range m.WireOrder {
			fields[i] = f.Name + "@" + strconv.Itoa(m.Offsets[i])
		}
		lines = append(lines, fmt.Sprintf("%s.%s id=%d crc_extra=%d len=%d..%d: %s",
			d.Name(), m.Name, m.ID, m.CRCExtra, m.MinLength, m.MaxLength, strings.Join(fields, " ")))
	}
	return lines
}

// errStale is returned by check so the process exits non-zero.
var errStale = errors.New("generated output is out of date")
