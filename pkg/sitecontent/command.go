package sitecontent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Main runs the sitecontent command line with args.
func Main(ctx context.Context, args []string, stdout io.Writer, opts ...Option) error {
	root := NewCommand(stdout, opts...)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// NewCommand builds the root command. opts are passed to every App the
// subcommands create.
func NewCommand(stdout io.Writer, opts ...Option) *cobra.Command {
	var cfgFile string
	v := viper.New()

	// withApp loads the configuration, opens the App for the duration of fn
	// and closes it afterwards.
	withApp := func(cmd *cobra.Command, fn func(ctx context.Context, app *App) error) error {
		config, err := LoadConfig(v, cfgFile)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		app, err := New(ctx, config, opts...)
		if err != nil {
			return fmt.Errorf("failed to create application: %w", err)
		}
		defer app.Close(context.WithoutCancel(ctx))
		return fn(ctx, app)
	}

	root := &cobra.Command{
		Use:           "sitecontent",
		Short:         "Content repository and admin API for the marketing site",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./sitecontent.yaml)")
	flags.String("store", "", "document store: memory, surrealdb, postgres or sqlite")
	flags.Duration("timeout", 0, "timeout of each store call")
	flags.Bool("read-only", false, "reject every write")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("log-format", "", "log format: json or console")
	flags.String("snapshot-dir", "", "local snapshot directory")
	bindFlag(v, "store", flags.Lookup("store"))
	bindFlag(v, "timeout", flags.Lookup("timeout"))
	bindFlag(v, "read_only", flags.Lookup("read-only"))
	bindFlag(v, "log.level", flags.Lookup("log-level"))
	bindFlag(v, "log.format", flags.Lookup("log-format"))
	bindFlag(v, "snapshot.dir", flags.Lookup("snapshot-dir"))

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the public and admin HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, app *App) error {
				if err := app.Serve(ctx); err != nil {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			})
		},
	}
	serve.Flags().String("addr", "", "listen address")
	bindFlag(v, "http.addr", serve.Flags().Lookup("addr"))

	var repairOpts RepairOptions
	repair := &cobra.Command{
		Use:   "repair",
		Short: "Rewrite every service isActive flag as a native boolean",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, app *App) error {
				report, err := app.Repair(ctx, repairOpts)
				if err != nil {
					return err
				}
				if err := printJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
				if report.Partial() {
					return fmt.Errorf("repair finished with %d failed documents", len(report.Failed))
				}
				return nil
			})
		},
	}
	repair.Flags().BoolVar(&repairOpts.DryRun, "dry-run", false, "report what would change without writing")
	repair.Flags().BoolVar(&repairOpts.Snapshot, "snapshot", false, "save a snapshot of the services before writing")
	repair.Flags().Int("concurrency", 0, "concurrent writes")
	bindFlag(v, "repair.concurrency", repair.Flags().Lookup("concurrency"))

	audit := &cobra.Command{
		Use:   "audit",
		Short: "Compare the store's native active filter with the coerced flag",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, app *App) error {
				report, err := app.Audit(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), report)
			})
		},
	}

	var reason string
	dump := &cobra.Command{
		Use:   "dump [collection...]",
		Short: "Save a snapshot of the content collections",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *App) error {
				name, err := app.Dump(ctx, reason, args...)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]string{"snapshot": name})
			})
		},
	}
	dump.Flags().StringVar(&reason, "reason", "manual", "reason recorded in the manifest")

	restore := &cobra.Command{
		Use:   "restore [snapshot]",
		Short: "Write a snapshot back to the store, the latest one by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return withApp(cmd, func(ctx context.Context, app *App) error {
				n, err := app.Restore(ctx, name)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]int{"restored": n})
			})
		},
	}

	root.AddCommand(serve, repair, audit, dump, restore)
	return root
}

func bindFlag(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
