package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/miretskiy/firn/column"
	"github.com/miretskiy/firn/config"
	"github.com/miretskiy/firn/executor"
	"github.com/miretskiy/firn/frame"
	"github.com/miretskiy/firn/plan"
	"github.com/miretskiy/firn/temporal"
	"github.com/miretskiy/firn/tzdata"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const wallClock = "%Y-%m-%d %H:%M:%S"

func addCommands(root *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "infer-format sample...",
		Short: "Guess the strftime format of datetime strings",
		Args:  cobra.MinimumNArgs(1),
		RunE:  inferFormat}
	root.AddCommand(cmd)

	cmd = &cobra.Command{
		Use:   "localize zone timestamp...",
		Short: "Localize naive timestamps to a time zone",
		Args:  cobra.MinimumNArgs(2),
		RunE:  localize}
	cmd.Flags().String("ambiguous", "NaT", "policy for ambiguous wall-clock times")
	cmd.Flags().String("nonexistent", "NaT", "policy for wall-clock times skipped by a transition")
	root.AddCommand(cmd)

	cmd = &cobra.Command{
		Use:   "transitions zone",
		Short: "List the offset transitions of a time zone",
		Args:  cobra.ExactArgs(1),
		RunE:  transitions}
	cmd.Flags().Int("from", 0, "first year to list (0: from the beginning)")
	cmd.Flags().Int("to", 0, "last year to list (0: to the end of the table)")
	root.AddCommand(cmd)

	cmd = &cobra.Command{
		Use:   "lower",
		Short: "Lower and run a sample partitioned plan over hourly readings",
		Args:  cobra.NoArgs,
		RunE:  lower}
	cmd.Flags().Int("rows", 10, "number of hourly readings")
	cmd.Flags().String("start", "2024-03-10 00:00:00", "first reading, naive wall-clock time")
	cmd.Flags().String("zone", "America/New_York", "time zone of the readings")
	cmd.Flags().Int("max-rows", 0, "rows per scan partition (overrides config)")
	cmd.Flags().String("fallback", "", "fallback mode: warn, raise or silent (overrides config)")
	cmd.Flags().String("scheduler", "", "scheduler: synchronous, threads or local-cluster (overrides config)")
	root.AddCommand(cmd)
}

// Action carries the loaded configuration and output of one command.
type Action struct {
	cmd  *cobra.Command
	opts config.Options
	out  io.Writer
}

func newAction(cmd *cobra.Command) (*Action, error) {
	path, _ := cmd.Flags().GetString("config")
	opts, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	opts.Apply()
	return &Action{cmd: cmd, opts: opts, out: cmd.OutOrStdout()}, nil
}

func (a *Action) getInt(name string) int {
	v, _ := a.cmd.Flags().GetInt(name)
	return v
}

func (a *Action) getString(name string) string {
	v, _ := a.cmd.Flags().GetString(name)
	return v
}

func (a *Action) changed(name string) bool { return a.cmd.Flags().Changed(name) }

func (a *Action) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func inferFormat(cmd *cobra.Command, args []string) error {
	a, err := newAction(cmd)
	if err != nil {
		return err
	}
	for _, sample := range args {
		f, err := temporal.InferFormat(sample)
		if err != nil {
			return err
		}
		a.printf("%s\t%s\n", sample, f)
	}
	return nil
}

func localize(cmd *cobra.Command, args []string) error {
	a, err := newAction(cmd)
	if err != nil {
		return err
	}
	ambiguous, err := temporal.ParsePolicy(a.getString("ambiguous"))
	if err != nil {
		return err
	}
	nonexistent, err := temporal.ParsePolicy(a.getString("nonexistent"))
	if err != nil {
		return err
	}

	zone, stamps := args[0], args[1:]
	ticks := make([]int64, len(stamps))
	for i, s := range stamps {
		if ticks[i], err = temporal.ParseTimestamp(s); err != nil {
			return err
		}
	}
	naive, err := temporal.Datetimes(temporal.Nanosecond, ticks, nil)
	if err != nil {
		return err
	}
	local, err := naive.TzLocalize(zone, ambiguous, nonexistent)
	if err != nil {
		return err
	}
	utc, err := local.TzConvert("")
	if err != nil {
		return err
	}
	localStrs, err := local.Strftime(wallClock)
	if err != nil {
		return err
	}
	utcStrs, err := utc.Strftime(wallClock)
	if err != nil {
		return err
	}

	a.printf("input\t%s\tUTC\n", zone)
	for i, s := range stamps {
		a.printf("%s\t%s\t%s\n", s, localStrs.String(i), utcStrs.String(i))
	}
	return nil
}

func formatOffset(seconds int64) string {
	sign := '+'
	if seconds < 0 {
		sign, seconds = '-', -seconds
	}
	return fmt.Sprintf("%c%02d:%02d", sign, seconds/3600, seconds%3600/60)
}

func transitions(cmd *cobra.Command, args []string) error {
	a, err := newAction(cmd)
	if err != nil {
		return err
	}
	tab, err := tzdata.Load(args[0])
	if err != nil {
		return err
	}
	from, to := a.getInt("from"), a.getInt("to")
	bounded := from > 0 || to > 0

	listed := 0
	for i, at := range tab.Transitions {
		when := "initial"
		if i > 0 {
			t := time.Unix(at, 0).UTC()
			if (from > 0 && t.Year() < from) || (to > 0 && t.Year() > to) {
				continue
			}
			when = t.Format(time.RFC3339)
		} else if bounded {
			continue
		}
		a.printf("%s\t%s\n", when, formatOffset(tab.Offsets[i]))
		listed++
	}
	if listed == 0 {
		a.printf("no transitions\n")
	}
	return nil
}

// readingsPlan builds scan -> hstack(hour) -> filter(hour not null) ->
// sort(id desc). The sort has no partitioned rule, so a multi-partition scan
// forces a fallback.
func readingsPlan(rows int, start int64, zone string) (*plan.Plan, plan.NodeID, error) {
	ids := make([]int64, rows)
	ticks := make([]int64, rows)
	for i := range ids {
		ids[i] = int64(i + 1)
		ticks[i] = start + int64(i)*int64(time.Hour)
	}
	ts, err := temporal.Datetimes(temporal.Nanosecond, ticks, nil)
	if err != nil {
		return nil, 0, err
	}
	if ts, err = ts.TzLocalize(zone, temporal.PolicyNaT, temporal.PolicyNaT); err != nil {
		return nil, 0, err
	}
	id, err := column.FromInt64s(column.Int64, ids, nil)
	if err != nil {
		return nil, 0, err
	}
	df, err := frame.New(&frame.Series{Name: "id", Data: id}, frame.FromTemporal("ts", ts))
	if err != nil {
		return nil, 0, err
	}

	p := plan.New()
	scan := p.Add(&plan.DataFrameScan{Frame: df})
	stacked := p.Add(&plan.HStack{Input: scan, Columns: []plan.Expr{func() *frame.ExprNode {
		return frame.Col("ts").DtHour().Alias("hour")
	}}})
	filtered := p.Add(&plan.Filter{Input: stacked, Predicate: func() *frame.ExprNode {
		return frame.Col("hour").IsNotNull()
	}})
	return p, p.Add(&plan.Sort{Input: filtered, By: []frame.SortField{frame.Desc("id")}}), nil
}

func lower(cmd *cobra.Command, _ []string) error {
	a, err := newAction(cmd)
	if err != nil {
		return err
	}
	opts := a.opts
	if a.changed("max-rows") {
		opts.Executor.MaxRowsPerPartition = a.getInt("max-rows")
	}
	if a.changed("fallback") {
		opts.Executor.FallbackMode = a.getString("fallback")
	}
	if a.changed("scheduler") {
		opts.Executor.Scheduler = a.getString("scheduler")
	}

	start, err := temporal.ParseTimestamp(a.getString("start"))
	if err != nil {
		return err
	}
	rows := a.getInt("rows")
	if rows <= 0 {
		return errors.Errorf("rows must be positive, got %d", rows)
	}
	p, root, err := readingsPlan(rows, start, a.getString("zone"))
	if err != nil {
		return err
	}

	ec, err := executor.FromConfig(opts)
	if err != nil {
		return err
	}
	defer ec.Close()

	lowered, g, key, err := ec.Lower(p, root)
	if err != nil {
		return err
	}
	a.printf("scheduler: %s\n", ec.Scheduler.Name())
	for _, d := range lowered.Diagnostics {
		a.printf("fallback: %s\n", d)
	}
	a.printf("graph:\n%s\n", strings.TrimRight(g.String(), "\n"))

	result, err := ec.Run(a.cmd.Context(), g, key)
	if err != nil {
		return err
	}
	a.printf("%s\n", result)
	return nil
}
