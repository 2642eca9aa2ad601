// adminctl is the operator tool for the skincare admin backend.
//
// Usage:
//
//	adminctl <command> <subcommand> [flags]
//
// Commands:
//
//	migrate  Apply or roll back schema migrations
//	admin    Create admins and hash legacy plaintext passwords
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/glowscan/skincare-admin/internal/cli"
)

// version is set with -ldflags at build time.
var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "adminctl",
		Short:         "Skincare admin maintenance tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var env *cli.Env
	envFn := func() (*cli.Env, error) {
		if env != nil {
			return env, nil
		}
		loaded, err := cli.LoadEnv()
		if err != nil {
			return nil, err
		}
		env = loaded
		return env, nil
	}

	rootCmd.AddCommand(
		cli.NewMigrateCmd(envFn),
		cli.NewAdminCmd(envFn, cli.OpenAdminStore),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if env != nil {
		_ = env.Logger.Sync()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
