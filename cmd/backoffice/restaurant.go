package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dukerupert/backoffice/internal/model"
	"github.com/dukerupert/backoffice/internal/restaurant"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newRestaurantCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "restaurant",
		Aliases: []string{"restaurants"},
		Short:   "Manage restaurants",
	}
	svc := func() *restaurant.Service { return restaurant.NewService(a.client) }

	var (
		params restaurant.ListParams
		status string
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List restaurants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params.Status = model.RestaurantStatus(status)
			rs, err := svc().List(cmd.Context(), params)
			if err != nil {
				return a.fail(err)
			}
			if a.jsonOut {
				return a.printJSON(rs)
			}
			t := newTable(a.out, "ID", "NAME", "EMAIL", "SIRET", "STATUS", "CONFIGURED", "CREATED")
			for _, r := range rs {
				t.row(r.ID.String(), r.Name, r.Email, orDash(r.Siret), string(r.Status), yesNo(r.IsConfigured), ago(r.CreatedAt))
			}
			return t.flush()
		},
	}
	list.Flags().StringVar(&status, "status", "", "filter by status: active, suspended, closed")
	list.Flags().StringVar(&params.Search, "search", "", "search by name")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one restaurant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := svc().Get(cmd.Context(), model.ID(args[0]))
			if err != nil {
				return a.fail(err)
			}
			return a.printJSON(r)
		},
	}

	var file string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a restaurant from a JSON document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in restaurant.Input
			if err := readInput(cmd, file, &in); err != nil {
				return err
			}
			r, err := svc().Create(cmd.Context(), in)
			if err != nil {
				return a.fail(err)
			}
			fmt.Fprintf(a.out, "created restaurant %s\n", r.ID)
			return nil
		},
	}
	addFileFlag(create, &file)

	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace a restaurant's details from a JSON document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in restaurant.Input
			if err := readInput(cmd, file, &in); err != nil {
				return err
			}
			r, err := svc().Update(cmd.Context(), model.ID(args[0]), in)
			if err != nil {
				return a.fail(err)
			}
			fmt.Fprintf(a.out, "updated restaurant %s\n", r.ID)
			return nil
		},
	}
	addFileFlag(update, &file)

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a restaurant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := svc().Delete(cmd.Context(), model.ID(args[0])); err != nil {
				return a.fail(err)
			}
			fmt.Fprintf(a.out, "deleted restaurant %s\n", args[0])
			return nil
		},
	}

	var reason string
	suspend := &cobra.Command{
		Use:   "suspend <id>",
		Short: "Suspend a restaurant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := svc().Suspend(cmd.Context(), model.ID(args[0]), reason)
			if err != nil {
				return a.fail(err)
			}
			fmt.Fprintf(a.out, "restaurant %s is %s\n", r.ID, r.Status)
			return nil
		},
	}
	suspend.Flags().StringVar(&reason, "reason", "", "reason shown to the restaurant")

	activate := &cobra.Command{
		Use:   "activate <id>",
		Short: "Reactivate a suspended restaurant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := svc().Activate(cmd.Context(), model.ID(args[0]))
			if err != nil {
				return a.fail(err)
			}
			fmt.Fprintf(a.out, "restaurant %s is %s\n", r.ID, r.Status)
			return nil
		},
	}

	settings := &cobra.Command{
		Use:   "settings <id> [key value]",
		Short: "Show a restaurant's settings, or change one key",
		Long:  "With a key and a value, settings patches that single key. The value is parsed as JSON when possible and sent as a string otherwise.",
		Args: cobra.MatchAll(cobra.RangeArgs(1, 3), func(cmd *cobra.Command, args []string) error {
			if len(args) == 2 {
				return fmt.Errorf("missing value for %q", args[1])
			}
			return nil
		}),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := model.ID(args[0])
			var (
				raw map[string]any
				err error
			)
			if len(args) == 3 {
				raw, err = svc().UpdateSetting(cmd.Context(), id, args[1], settingValue(args[2]))
			} else {
				raw, err = svc().Settings(cmd.Context(), id)
			}
			if err != nil {
				return a.fail(err)
			}
			if a.jsonOut {
				return a.printJSON(raw)
			}

			keys := make([]string, 0, len(raw))
			for k := range raw {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			t := newTable(a.out, "KEY", "VALUE")
			for _, k := range keys {
				v, _ := json.Marshal(raw[k])
				t.row(k, string(v))
			}
			return t.flush()
		},
	}

	stats := &cobra.Command{
		Use:   "stats <id>",
		Short: "Show a restaurant's usage counters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := svc().Stats(cmd.Context(), model.ID(args[0]))
			if err != nil {
				return a.fail(err)
			}
			if a.jsonOut {
				return a.printJSON(s)
			}
			fmt.Fprintf(a.out, "users:         %s\n", humanize.Comma(int64(s.Users)))
			fmt.Fprintf(a.out, "products:      %s\n", humanize.Comma(int64(s.Products)))
			fmt.Fprintf(a.out, "recipes:       %s\n", humanize.Comma(int64(s.Recipes)))
			fmt.Fprintf(a.out, "receptions:    %s\n", humanize.Comma(int64(s.Receptions)))
			fmt.Fprintf(a.out, "last activity: %s\n", ago(s.LastActivity))
			return nil
		},
	}

	cmd.AddCommand(list, get, create, update, del, suspend, activate, settings, stats)
	return cmd
}

func settingValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v
	}
	return s
}
