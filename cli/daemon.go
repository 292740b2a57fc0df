package cli

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/victorvelazquez/dev-orchestrator/internals/env"
	"github.com/victorvelazquez/dev-orchestrator/internals/timeouts"
	"github.com/victorvelazquez/dev-orchestrator/internals/version"
	"github.com/victorvelazquez/dev-orchestrator/orchd/server"
	"github.com/victorvelazquez/dev-orchestrator/sdk"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the orchestrator daemon in the foreground",
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.New().Start()
	},
}

var shutdownCmd = &cobra.Command{
	Use:   "shutdown",
	Short: "Stop the running daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := sdk.NewClient()
		ctx, cancel := context.WithTimeout(cmd.Context(), timeouts.Request)
		defer cancel()

		err := client.Shutdown(ctx)
		if errors.Is(err, sdk.ErrShutdownUnsupported) {
			return errors.New("daemon does not support remote shutdown")
		}
		if err != nil {
			return err
		}
		fmt.Println(styleLabel.Render("daemon shutting down"))
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"v"},
	Short:   "Show client and daemon versions",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("  %s %s\n", styleBrand.Render("orch"), styleValue.Render(version.Version()))
		fmt.Printf("    %s %s\n", styleLabel.Render("OS/Arch"), styleValue.Render(runtime.GOOS+"/"+runtime.GOARCH))
		fmt.Printf("    %s      %s\n", styleLabel.Render("Go"), styleValue.Render(runtime.Version()))

		ctx, cancel := context.WithTimeout(cmd.Context(), timeouts.Probe)
		defer cancel()
		daemonVersion, err := sdk.NewClient().Version(ctx)
		if err != nil {
			fmt.Printf("    %s  %s\n", styleLabel.Render("Daemon"), styleWarn.Render("not running at "+env.Get().BASE_URL))
			return
		}
		fmt.Printf("    %s  %s\n", styleLabel.Render("Daemon"), styleValue.Render(daemonVersion))
	},
}
