package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/backoffice/internal/api"
	"github.com/dukerupert/backoffice/internal/store"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newLoginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login [token]",
		Short: "Store the bearer token used for every API request",
		Long:  "login stores a bearer token issued by the back-office API. With no argument the token is read from stdin.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var token string
			if len(args) == 1 {
				token = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("no token on stdin")
				}
				token = line
			}
			token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
			if token == "" {
				return errors.New("token is required")
			}

			if err := a.local.Set(store.TokenKey, token); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "signed in")
			return printTokenInfo(a, token)
		},
	}
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.local.Delete(store.TokenKey); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "signed out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := a.local.Token(cmd.Context())
			if err != nil {
				return err
			}
			if token == "" {
				return errors.New("not signed in")
			}
			fmt.Fprintf(a.out, "api:     %s\n", a.client.BaseURL())
			return printTokenInfo(a, token)
		},
	}
}

// printTokenInfo shows what an unverified read of the token reveals.
// Opaque tokens print nothing further.
func printTokenInfo(a *app, token string) error {
	info, err := api.InspectToken(token, time.Now())
	if err != nil {
		a.logger.Debug("token is not a JWT", "error", err)
		return nil
	}
	if a.jsonOut {
		return a.printJSON(info)
	}
	if info.Subject != "" {
		fmt.Fprintf(a.out, "subject: %s\n", info.Subject)
	}
	if info.Email != "" {
		fmt.Fprintf(a.out, "email:   %s\n", info.Email)
	}
	if info.ExpiresAt != nil {
		state := "expires"
		if info.Expired {
			state = "expired"
		}
		fmt.Fprintf(a.out, "%s: %s\n", state, humanize.Time(*info.ExpiresAt))
	}
	return nil
}
