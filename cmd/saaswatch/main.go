package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/saaswatch/saaswatch"
	cfgpkg "github.com/saaswatch/saaswatch/cmd/saaswatch/config"
	"github.com/saaswatch/saaswatch/internal/common"
)

var rootCmd = &cobra.Command{
	Use:   "saaswatch",
	Short: "Poll SaaS status endpoints and emit normalized health KPIs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the scheduler and poll configured apps on their cadence",
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		rt, err := buildRuntime(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = rt.Close() }()

		if len(rt.Settings.Schedule) == 0 {
			return fmt.Errorf("no schedule entries configured")
		}
		if err := rt.Watcher.Schedule(ctx, rt.Settings.Schedule); err != nil {
			return err
		}
		rt.Watcher.Run(ctx)
		return nil
	},
}

var pollCmd = &cobra.Command{
	Use:   "poll <appName>",
	Short: "Run a single execution for one app and exit",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		rt, err := buildRuntime(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = rt.Close() }()

		outcome, err := rt.Watcher.RunOnce(ctx, args[0])
		if err != nil {
			return fmt.Errorf("execution fault: %w", err)
		}
		common.GetLogger().Info("execution finished", "app", args[0], "outcome", string(outcome))
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent recorded executions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := context.Background()
		rt, err := buildRuntime(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = rt.Close() }()

		if rt.Store == nil {
			return fmt.Errorf("status requires store.enabled in settings")
		}
		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := rt.Store.ListRuns(ctx, limit)
		if err != nil {
			return err
		}
		for _, r := range runs {
			fmt.Printf("%s  %-20s %-10s status=%d attempts=%d elapsed=%dms %s\n",
				r.RanAt, r.AppName, r.Outcome, r.Status, r.Attempts, r.ElapsedMS, r.ErrorKind)
		}
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check every configured app decodes and names a known preprocess target",
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx := context.Background()
		rt, err := buildRuntime(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = rt.Close() }()
		return validateApps(ctx, rt)
	},
}

func buildRuntime(ctx context.Context) (*cfgpkg.Runtime, error) {
	path := viper.GetString("config")
	settings, err := cfgpkg.Load(path)
	if err != nil {
		return nil, err
	}
	settings.ConfigureLogging()
	return settings.Build(ctx)
}

func init() {
	v := viper.GetViper()
	v.SetDefault("config", "./config/saaswatch.yaml")
	v.SetDefault("limit", 20)

	// Environment variables support: SAASWATCH_CONFIG, ...
	v.SetEnvPrefix("SAASWATCH")
	v.AutomaticEnv()

	rootCmd.PersistentFlags().String("config", v.GetString("config"), "path to the settings yaml")
	statusCmd.Flags().Int("limit", v.GetInt("limit"), "number of recent runs to show")

	_ = v.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = v.BindPFlag("limit", statusCmd.Flags().Lookup("limit"))

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(pollCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(validateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		common.GetLogger().Error("command failed", "error", err)
		os.Exit(1)
	}
}

// validateApps resolves every known app config and checks its preprocess
// target is registered.
func validateApps(ctx context.Context, rt *cfgpkg.Runtime) error {
	names, err := rt.AppNames(ctx)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("no apps configured")
	}
	var failed int
	for _, name := range names {
		if err := validateApp(ctx, rt.Watcher, name); err != nil {
			common.GetLogger().Error("invalid app config", "app", name, "error", err)
			failed++
			continue
		}
		common.GetLogger().Info("app config ok", "app", name)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d app configs invalid", failed, len(names))
	}
	return nil
}

func validateApp(ctx context.Context, w *saaswatch.Watcher, name string) error {
	return w.Validate(ctx, name)
}
