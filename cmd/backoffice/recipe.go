package main

import (
	"fmt"
	"strings"

	"github.com/dukerupert/backoffice/internal/model"
	"github.com/dukerupert/backoffice/internal/recipe"
	"github.com/spf13/cobra"
)

func newRecipeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "recipe",
		Aliases: []string{"recipes"},
		Short:   "Manage recipe sheets",
	}
	svc := func() *recipe.Service { return recipe.NewService(a.client) }

	var params recipe.ListParams
	list := &cobra.Command{
		Use:   "list",
		Short: "List recipes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := svc().List(cmd.Context(), params)
			if err != nil {
				return a.fail(err)
			}
			if a.jsonOut {
				return a.printJSON(rs)
			}
			t := newTable(a.out, "ID", "CODE", "NAME", "TYPE", "CATEGORY", "YIELD", "TIME", "COST", "VALIDATED")
			for _, r := range rs {
				t.row(r.ID.String(), r.Code, r.Name, orDash(r.RecipeType), orDash(r.Category),
					fmt.Sprintf("%g %s", r.YieldQuantity, r.YieldUnit),
					fmt.Sprintf("%d min", r.TotalTime()),
					recipe.Cost(r).StringFixed(2), yesNo(r.IsValidated))
			}
			return t.flush()
		},
	}
	list.Flags().StringVar(&params.Category, "category", "", "filter by category")
	list.Flags().StringVar(&params.RecipeType, "type", "", "filter by recipe type")
	list.Flags().StringVar(&params.Search, "search", "", "search by name or code")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a recipe sheet with its costing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := svc().Get(cmd.Context(), model.ID(args[0]))
			if err != nil {
				return a.fail(err)
			}
			if a.jsonOut {
				return a.printJSON(r)
			}
			printRecipe(a, r)
			return nil
		},
	}

	var file string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a recipe from a JSON document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in recipe.Input
			if err := readInput(cmd, file, &in); err != nil {
				return err
			}
			r, err := svc().Create(cmd.Context(), in)
			if err != nil {
				return a.fail(err)
			}
			fmt.Fprintf(a.out, "created recipe %s (%s)\n", r.ID, r.Code)
			return nil
		},
	}
	addFileFlag(create, &file)

	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace a recipe from a JSON document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in recipe.Input
			if err := readInput(cmd, file, &in); err != nil {
				return err
			}
			r, err := svc().Update(cmd.Context(), model.ID(args[0]), in)
			if err != nil {
				return a.fail(err)
			}
			fmt.Fprintf(a.out, "updated recipe %s (%s)\n", r.ID, r.Code)
			return nil
		},
	}
	addFileFlag(update, &file)

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a recipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := svc().Delete(cmd.Context(), model.ID(args[0])); err != nil {
				return a.fail(err)
			}
			fmt.Fprintf(a.out, "deleted recipe %s\n", args[0])
			return nil
		},
	}

	validate := &cobra.Command{
		Use:   "validate <id>",
		Short: "Mark a recipe sheet as validated",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := svc().Validate(cmd.Context(), model.ID(args[0]))
			if err != nil {
				return a.fail(err)
			}
			fmt.Fprintf(a.out, "recipe %s validated: %s\n", r.ID, yesNo(r.IsValidated))
			return nil
		},
	}

	suggest := &cobra.Command{
		Use:       "suggest <kind>",
		Short:     "Ask the backend for recipe suggestions",
		Long:      "suggest fetches an AI suggestion report. Kinds: " + strings.Join(recipe.SuggestionKinds, ", ") + ".",
		Args:      cobra.ExactArgs(1),
		ValidArgs: recipe.SuggestionKinds,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := svc().Suggestions(cmd.Context(), args[0])
			if err != nil {
				return a.fail(err)
			}
			if a.jsonOut {
				return a.printJSON(report)
			}
			if report.Summary != "" {
				fmt.Fprintln(a.out, report.Summary)
				fmt.Fprintln(a.out)
			}
			for i, s := range report.Suggestions {
				fmt.Fprintf(a.out, "%d. %s", i+1, s.Title)
				if s.Impact != "" {
					fmt.Fprintf(a.out, " [%s]", s.Impact)
				}
				fmt.Fprintln(a.out)
				if s.Description != "" {
					fmt.Fprintf(a.out, "   %s\n", s.Description)
				}
			}
			if len(report.Suggestions) == 0 {
				fmt.Fprintln(a.out, "no suggestions")
			}
			return nil
		},
	}

	cmd.AddCommand(list, get, create, update, del, validate, suggest)
	return cmd
}

func printRecipe(a *app, r *model.Recipe) {
	fmt.Fprintf(a.out, "%s  %s\n", r.Code, r.Name)
	fmt.Fprintf(a.out, "type: %s  category: %s  yield: %g %s\n", orDash(r.RecipeType), orDash(r.Category), r.YieldQuantity, r.YieldUnit)
	fmt.Fprintf(a.out, "time: prep %d + cook %d + rest %d = %d min\n", r.PrepTime, r.CookTime, r.RestTime, r.TotalTime())
	fmt.Fprintf(a.out, "cost: %s  per portion: %s  validated: %s\n\n",
		recipe.Cost(*r).StringFixed(2), recipe.CostPerPortion(*r).StringFixed(2), yesNo(r.IsValidated))

	t := newTable(a.out, "INGREDIENT", "QTY", "UNIT", "COST")
	for _, ing := range r.Ingredients {
		name := ing.ItemName
		if name == "" {
			name = ing.ItemID.String()
		}
		cost := "-"
		if ing.Cost.Valid {
			cost = ing.Cost.Decimal.StringFixed(2)
		}
		t.row(name, fmt.Sprintf("%g", ing.Quantity), ing.Unit, cost)
	}
	t.flush()

	for i, step := range r.Instructions.Steps {
		if i == 0 {
			fmt.Fprintln(a.out)
		}
		fmt.Fprintf(a.out, "%d. %s\n", i+1, step)
	}
}
