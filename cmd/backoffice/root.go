package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dukerupert/backoffice/internal/api"
	"github.com/dukerupert/backoffice/internal/archive"
	"github.com/dukerupert/backoffice/internal/config"
	"github.com/dukerupert/backoffice/internal/database"
	"github.com/dukerupert/backoffice/internal/logging"
	"github.com/dukerupert/backoffice/internal/secret"
	"github.com/dukerupert/backoffice/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries what every subcommand needs once the root pre-run has
// loaded the configuration.
type app struct {
	v       *viper.Viper
	cfgFile string
	jsonOut bool

	cfg    *config.Config
	logger *slog.Logger
	db     *sql.DB
	sealer *secret.Sealer
	local  *store.LocalStore
	client *api.Client
	out    io.Writer
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:           "backoffice",
		Short:         "Restaurant back-office console",
		Long:          `backoffice manages restaurants, products, recipes, receptions, HACCP records and the assistant chat against the back-office REST API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.db != nil {
				a.db.Close()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.backoffice.yaml)")
	flags.String("api-url", "", "back-office API base URL")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.BoolVar(&a.jsonOut, "json", false, "print raw JSON instead of tables")
	a.v.BindPFlag("api_url", flags.Lookup("api-url"))
	a.v.BindPFlag("log_level", flags.Lookup("log-level"))

	root.AddCommand(
		newServeCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newRestaurantCmd(a),
		newProductCmd(a),
		newRecipeCmd(a),
		newReceptionCmd(a),
		newHACCPCmd(a),
		newChatCmd(a),
	)

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w\n\n%s", err, cmd.UsageString())
	})
	return root
}

// fail reduces err to the one-line message a page banner would show.
func (a *app) fail(err error) error {
	return errors.New(api.Message(err))
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.out = cmd.OutOrStdout()
	a.logger = logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if dir := filepath.Dir(cfg.DBPath); dir != "" && cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}
	a.db, err = database.Open(cfg.DBPath)
	if err != nil {
		return err
	}

	a.sealer = secret.NewSealer(cfg.Secret)
	a.local = store.NewLocalStore(a.db, a.sealer)
	a.client = api.NewClient(cfg.APIURL,
		api.WithTokenSource(a.local),
		api.WithTimeout(cfg.Timeout),
		api.WithLogger(a.logger.With("component", "api")),
	)
	return nil
}

func (a *app) archiver() *archive.Archiver {
	return archive.New(a.cfg.S3, a.sealer)
}

// printJSON writes v indented, for --json and for detail views.
func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readInput decodes a JSON document from path, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string, v any) error {
	var r io.Reader
	switch path {
	case "":
		return errors.New("--file is required")
	case "-":
		r = cmd.InOrStdin()
	default:
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func addFileFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "file", "f", "", `JSON input file, "-" for stdin`)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
