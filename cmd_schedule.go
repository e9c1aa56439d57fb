package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"devfestsched/provider"
	"devfestsched/schedule"
	"devfestsched/ui"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// saveDefault is what --save holds when given without a file name.
const saveDefault = "<default>"

var (
	fetchJSON    bool
	fetchSave    string
	fetchArchive bool

	showDetails bool

	exportOutput string

	historyLimit int
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <event>",
	Short: "Scrape an event schedule and print it",
	Long: `Scrapes the event's official schedule page and prints the normalized,
time-ordered schedule as text (or JSON with --json).

Examples:
  devfest fetch lagos
  devfest fetch nairobi --json
  devfest fetch lagos --save                   # devfest_lagos_schedule_<timestamp>.json
  devfest fetch lagos --save=lagos.json --archive`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

var showCmd = &cobra.Command{
	Use:   "show <event>",
	Short: "Display an event schedule in the terminal",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var exportCmd = &cobra.Command{
	Use:   "export <event>",
	Short: "Export an event schedule as an iCalendar file",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var historyCmd = &cobra.Command{
	Use:   "history <event>",
	Short: "List archived snapshots of an event schedule",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func init() {
	fetchCmd.Flags().BoolVar(&fetchJSON, "json", false, "Print the schedule as JSON")
	fetchCmd.Flags().StringVar(&fetchSave, "save", "", "Save the raw schedule as JSON (optionally to the given file)")
	fetchCmd.Flags().Lookup("save").NoOptDefVal = saveDefault
	fetchCmd.Flags().BoolVar(&fetchArchive, "archive", false, "Store the fetched schedule in the archive")

	showCmd.Flags().BoolVar(&showDetails, "details", false, "Include session descriptions")

	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to file instead of stdout")

	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Maximum number of snapshots (0 for all)")
}

func lookupProvider(event string) (*provider.Provider, error) {
	reg, err := newRegistry(cfg, logger)
	if err != nil {
		return nil, err
	}
	p, err := reg.Get(event)
	if err != nil {
		return nil, fmt.Errorf("%w (known events: %v)", err, reg.Locations())
	}
	return p, nil
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p, err := lookupProvider(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	c := p.Raw(ctx)
	if fetchJSON {
		data, err := schedule.MarshalJSON(c)
		if err != nil {
			return err
		}
		out.Write(data)
	} else {
		fmt.Fprintln(out, p.Text(ctx))
	}

	if fetchSave != "" {
		name := fetchSave
		if name == saveDefault {
			name = ""
		}
		path, saved, err := p.SaveJSON(ctx, name)
		if err != nil {
			return err
		}
		if saved {
			fmt.Fprintf(cmd.ErrOrStderr(), "Raw schedule saved to %s\n", path)
		} else {
			fmt.Fprintf(cmd.ErrOrStderr(), "No schedule data to save for %s.\n", p.Name())
		}
	}

	if fetchArchive && !c.IsEmpty() {
		store, err := openArchive(cfg)
		if err != nil {
			return err
		}
		defer store.Close()
		id, err := store.Save(ctx, p.Location(), time.Now(), c)
		if err != nil {
			return err
		}
		logger.Info("archived schedule", zap.String("event", p.Location()), zap.String("snapshot", id))
	}
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	p, err := lookupProvider(args[0])
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), ui.Render(p.Raw(cmd.Context()), p.Name(), showDetails))
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	p, err := lookupProvider(args[0])
	if err != nil {
		return err
	}
	c := p.Raw(cmd.Context())
	if c.IsEmpty() {
		return fmt.Errorf("%s", schedule.Unavailable(p.Name()))
	}
	cal, err := schedule.ToICS(c, calendarInfo(cfg, p, time.Now()))
	if err != nil {
		return err
	}
	if exportOutput == "" {
		fmt.Fprint(cmd.OutOrStdout(), cal)
		return nil
	}
	if err := os.WriteFile(exportOutput, []byte(cal), 0o644); err != nil {
		return fmt.Errorf("write calendar: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Calendar written to %s\n", exportOutput)
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := openArchive(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	snaps, err := store.List(cmd.Context(), strings.ToLower(args[0]), historyLimit)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No archived schedules for %s.\n", args[0])
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SNAPSHOT\tFETCHED\tSESSIONS")
	for _, s := range snaps {
		fmt.Fprintf(w, "%s\t%s\t%d\n", s.ID, s.FetchedAt.Local().Format(time.RFC3339), s.Sessions)
	}
	return w.Flush()
}
