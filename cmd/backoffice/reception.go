package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dukerupert/backoffice/internal/archive"
	"github.com/dukerupert/backoffice/internal/console"
	"github.com/dukerupert/backoffice/internal/model"
	"github.com/dukerupert/backoffice/internal/reception"
	"github.com/spf13/cobra"
)

func newReceptionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reception",
		Aliases: []string{"receptions"},
		Short:   "Receive deliveries",
	}
	svc := func() *reception.Service { return reception.NewService(a.client) }

	var (
		params reception.ListParams
		status string
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List receptions, one page at a time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params.Status = model.ReceptionStatus(status)
			page, err := svc().List(cmd.Context(), params)
			if err != nil {
				return a.fail(err)
			}
			if a.jsonOut {
				return a.printJSON(page)
			}
			t := newTable(a.out, "ID", "DELIVERY", "CARRIER", "STATUS", "RECEIVED")
			for _, r := range page.Items {
				t.row(r.ID.String(), r.DeliveryNumber, orDash(r.CarrierName), string(r.Status), ago(r.ReceivedAt))
			}
			if err := t.flush(); err != nil {
				return err
			}
			fmt.Fprintln(a.out, pagerLine(console.PagerOf(*page)))
			return nil
		},
	}
	list.Flags().IntVar(&params.Page, "page", 1, "page number")
	list.Flags().IntVar(&params.Size, "size", reception.DefaultPageSize, "page size")
	list.Flags().StringVar(&status, "status", "", "filter by status: pending, in_progress, completed")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one reception",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := svc().Get(cmd.Context(), model.ID(args[0]))
			if err != nil {
				return a.fail(err)
			}
			return a.printJSON(r)
		},
	}

	items := &cobra.Command{
		Use:   "items <id>",
		Short: "List a reception's delivered lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			its, err := svc().Items(cmd.Context(), model.ID(args[0]))
			if err != nil {
				return a.fail(err)
			}
			if a.jsonOut {
				return a.printJSON(its)
			}
			t := newTable(a.out, "ITEM", "SKU", "PRODUCT", "EXPECTED", "RECEIVED", "BATCH", "DLC", "TEMP", "VALIDATED")
			for _, it := range its {
				t.row(it.ID.String(), orDash(it.ProductSKU), orDash(it.ProductName),
					fmt.Sprintf("%g", it.QuantityExpected), optFloat(it.QuantityReceived, ""),
					orDash(it.BatchNumber), orDash(it.DLC), optFloat(it.Temperature, "°C"), yesNo(it.IsValidated))
			}
			if err := t.flush(); err != nil {
				return err
			}
			s := reception.Progress(its)
			fmt.Fprintf(a.out, "%d/%d validated, %d pending, %d quality failures, %d discrepancies\n",
				s.Validated, s.Total, s.Pending, s.QualityFailed, s.Discrepancies)
			if s.Complete() {
				fmt.Fprintf(a.out, "all lines validated, run: reception complete %s\n", args[0])
			}
			return nil
		},
	}

	var file string
	create := &cobra.Command{
		Use:   "create",
		Short: "Open a reception for a purchase order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in reception.Input
			if err := readInput(cmd, file, &in); err != nil {
				return err
			}
			r, err := svc().Create(cmd.Context(), in)
			if err != nil {
				return a.fail(err)
			}
			fmt.Fprintf(a.out, "created reception %s (%s)\n", r.ID, r.DeliveryNumber)
			return nil
		},
	}
	addFileFlag(create, &file)

	var (
		check    reception.ItemValidation
		received float64
		temp     float64
	)
	validate := &cobra.Command{
		Use:   "validate-item <id> <item>",
		Short: "Record the check of one delivered line",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("received") {
				check.QuantityReceived = &received
			}
			if cmd.Flags().Changed("temperature") {
				check.Temperature = &temp
			}
			it, err := svc().ValidateItem(cmd.Context(), model.ID(args[0]), model.ID(args[1]), check)
			if err != nil {
				return a.fail(err)
			}
			fmt.Fprintf(a.out, "item %s validated: %s\n", it.ID, yesNo(it.IsValidated))
			return nil
		},
	}
	vf := validate.Flags()
	vf.Float64Var(&received, "received", 0, "quantity received (required, > 0)")
	vf.StringVar(&check.BatchNumber, "batch", "", "batch number")
	vf.StringVar(&check.DLC, "dlc", "", "best-before date, YYYY-MM-DD")
	vf.StringVar(&check.DLU, "dlu", "", "use-by date, YYYY-MM-DD")
	vf.Float64Var(&temp, "temperature", 0, "temperature at reception in °C")
	vf.BoolVar(&check.QualityCheckPassed, "quality-ok", true, "quality check passed")
	vf.StringVar(&check.Notes, "notes", "", "notes")

	batch := &cobra.Command{
		Use:   "batch-check <sku>",
		Short: "Check batch consistency for a SKU",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bc, err := svc().BatchCheck(cmd.Context(), args[0])
			if err != nil {
				return a.fail(err)
			}
			if a.jsonOut {
				return a.printJSON(bc)
			}
			verdict := "consistent"
			if !bc.IsConsistent {
				verdict = "INCONSISTENT"
			}
			fmt.Fprintf(a.out, "%s: %d batches, %s\n", bc.SKU, bc.BatchCount, verdict)
			if len(bc.Batches) > 0 {
				t := newTable(a.out, "BATCH", "QTY", "DLC")
				for _, b := range bc.Batches {
					t.row(b.BatchNumber, fmt.Sprintf("%g", b.Quantity), orDash(b.DLC))
				}
				t.flush()
			}
			for _, e := range bc.Errors {
				fmt.Fprintf(a.out, "  ! %s\n", e)
			}
			return nil
		},
	}

	var force bool
	complete := &cobra.Command{
		Use:   "complete <id>",
		Short: "Close a reception",
		Long:  "complete closes a reception. The backend decides whether unvalidated lines need --force; its refusal is printed as is.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := svc()
			r, err := s.Complete(cmd.Context(), model.ID(args[0]), force)
			if err != nil {
				return a.fail(err)
			}
			fmt.Fprintf(a.out, "reception %s is %s\n", r.ID, r.Status)

			arch := a.archiver()
			if !arch.Configured() {
				return nil
			}
			now := time.Now()
			record, err := s.Record(cmd.Context(), r, force, now)
			if err != nil {
				a.logger.Warn("archive reception: fetch items", "reception", r.ID, "error", err)
			}
			obj, err := arch.Put(cmd.Context(), archive.ReceptionKey(r.ID, now), record)
			if err != nil {
				return fmt.Errorf("reception completed but not archived: %w", err)
			}
			fmt.Fprintf(a.out, "archived as %s\n", obj.Key)
			return nil
		},
	}
	complete.Flags().BoolVar(&force, "force", false, "complete even with unvalidated lines")

	photo := &cobra.Command{
		Use:   "upload-photo <id> <file>",
		Short: "Attach a delivery photo",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := upload(cmd, args[1], func(name string, r io.Reader) error {
				_, err := svc().UploadPhoto(cmd.Context(), model.ID(args[0]), name, r)
				return err
			})
			if err != nil {
				return a.fail(err)
			}
			return nil
		},
	}

	cmd.AddCommand(list, get, items, create, validate, batch, complete, photo)
	return cmd
}

func pagerLine(p console.Pager) string {
	var b strings.Builder
	fmt.Fprintf(&b, "page %d of %d (%d total)", p.Page, max(p.Pages, 1), p.Total)
	if p.HasPrev() {
		fmt.Fprintf(&b, "  prev: --page %d", p.Prev())
	}
	if p.HasNext() {
		fmt.Fprintf(&b, "  next: --page %d", p.Next())
	}
	return b.String()
}

func optFloat(v *float64, unit string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%g%s", *v, unit)
}
