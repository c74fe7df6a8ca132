package main

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dukerupert/backoffice/internal/archive"
	"github.com/dukerupert/backoffice/internal/haccp"
	"github.com/dukerupert/backoffice/internal/model"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var errNoArchive = errors.New("archive is not configured: set s3.endpoint, s3.bucket, s3.access_key and s3.secret_key")

func newHACCPCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "haccp",
		Short: "Food-safety dashboard",
	}
	svc := func() *haccp.Service { return haccp.NewService(a.client, a.logger.With("component", "haccp")) }

	tabNames := make([]string, len(haccp.Tabs))
	for i, t := range haccp.Tabs {
		tabNames[i] = string(t)
	}

	show := &cobra.Command{
		Use:       "show [tab]",
		Short:     "Show one dashboard tab",
		Long:      "show prints a dashboard tab: " + strings.Join(tabNames, ", ") + ". The overview is the default.",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: tabNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			tab := haccp.TabOverview
			if len(args) == 1 {
				if !slices.Contains(tabNames, args[0]) {
					return fmt.Errorf("unknown tab %q", args[0])
				}
				tab = haccp.ParseTab(args[0])
			}

			d, err := svc().Dashboard(cmd.Context())
			if err != nil {
				return a.fail(err)
			}
			if a.jsonOut {
				return a.printJSON(d.Tab(tab))
			}
			if d.Mock {
				fmt.Fprintln(a.out, "(demo data: the backend has no HACCP endpoints)")
			}
			return printTab(a, d, tab)
		},
	}

	save := &cobra.Command{
		Use:   "archive",
		Short: "Store a snapshot of the dashboard in the archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			arch := a.archiver()
			if !arch.Configured() {
				return errNoArchive
			}
			d, err := svc().Dashboard(cmd.Context())
			if err != nil {
				return a.fail(err)
			}
			obj, err := arch.Put(cmd.Context(), archive.HACCPKey(d.FetchedAt), d)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "archived %s (%s)\n", obj.Key, humanize.Bytes(uint64(obj.Size)))
			return nil
		},
	}

	history := &cobra.Command{
		Use:   "archives",
		Short: "List archived dashboard snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			arch := a.archiver()
			if !arch.Configured() {
				return errNoArchive
			}
			objs, err := arch.List(cmd.Context(), "haccp/")
			if err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(objs)
			}
			t := newTable(a.out, "KEY", "SIZE", "STORED")
			for _, o := range objs {
				t.row(o.Key, humanize.Bytes(uint64(o.Size)), humanize.Time(o.Modified))
			}
			return t.flush()
		},
	}

	snapshot := &cobra.Command{
		Use:   "snapshot <key> [tab]",
		Short: "Show an archived dashboard snapshot",
		Long:  "snapshot reads a key listed by `haccp archives` and prints it like show does.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tab := haccp.TabOverview
			if len(args) == 2 {
				if !slices.Contains(tabNames, args[1]) {
					return fmt.Errorf("unknown tab %q", args[1])
				}
				tab = haccp.ParseTab(args[1])
			}
			arch := a.archiver()
			if !arch.Configured() {
				return errNoArchive
			}
			var d haccp.Dashboard
			if err := arch.Get(cmd.Context(), args[0], &d); err != nil {
				return err
			}
			if a.jsonOut {
				return a.printJSON(d.Tab(tab))
			}
			fmt.Fprintf(a.out, "snapshot of %s\n", d.FetchedAt.Local().Format("2006-01-02 15:04"))
			return printTab(a, &d, tab)
		},
	}

	cmd.AddCommand(show, save, history, snapshot)
	return cmd
}

func printTab(a *app, d *haccp.Dashboard, tab haccp.Tab) error {
	names := make(map[model.ID]string, len(d.Equipment))
	for _, e := range d.Equipment {
		names[e.ID] = e.Name
	}

	switch tab {
	case haccp.TabEquipment:
		t := newTable(a.out, "ID", "NAME", "KIND", "LOCATION", "RANGE", "STATUS")
		for _, e := range d.Equipment {
			t.row(e.ID.String(), e.Name, e.Kind, orDash(e.Location), fmt.Sprintf("%g..%g °C", e.MinTemp, e.MaxTemp), orDash(e.Status))
		}
		return t.flush()

	case haccp.TabTemperatures:
		t := newTable(a.out, "EQUIPMENT", "VALUE", "RECORDED", "BY")
		for _, r := range d.Readings {
			t.row(names[r.EquipmentID], fmt.Sprintf("%.1f °C", r.Value), humanize.Time(r.RecordedAt), orDash(r.RecordedBy))
		}
		return t.flush()

	case haccp.TabAlerts:
		t := newTable(a.out, "SEVERITY", "EQUIPMENT", "MESSAGE", "RAISED", "RESOLVED")
		for _, al := range d.Alerts {
			eq := "-"
			if al.EquipmentID != nil {
				eq = names[*al.EquipmentID]
			}
			t.row(al.Severity, eq, al.Message, humanize.Time(al.RaisedAt), yesNo(al.Resolved))
		}
		return t.flush()
	}

	o := d.Overview()
	fmt.Fprintf(a.out, "compliance:  %.1f%%\n", o.Compliance)
	fmt.Fprintf(a.out, "equipment:   %d\n", o.Equipment)
	fmt.Fprintf(a.out, "readings:    %d\n", o.Readings)
	fmt.Fprintf(a.out, "excursions:  %d\n", o.Excursions)
	fmt.Fprintf(a.out, "open alerts: %d\n", o.OpenAlerts)
	for _, ex := range haccp.OutOfRange(d.Readings, d.Equipment) {
		fmt.Fprintf(a.out, "  %s %.1f °C (%+.1f) %s\n", ex.Equipment.Name, ex.Reading.Value, ex.Delta, humanize.Time(ex.Reading.RecordedAt))
	}
	return nil
}
