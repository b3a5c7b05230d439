package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/healthmap/healthmap/internal/cli/commands"
)

var version = "dev" // Will be set during build

// NewRootCmd builds the command tree around env. The session is set up in
// PersistentPreRunE, then the command's route guard decides whether it runs.
func NewRootCmd(env *commands.Env) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "healthmap",
		Short: "HealthMap - Directory of health structures",
		Long: `HealthMap CLI - Browse hospitals, clinics, pharmacies and laboratories,
and manage them once signed in as an administrator or a structure member.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			if err := commands.ValidateOutput(env.Flags.Output); err != nil {
				return err
			}
			if env.Auth == nil {
				if err := env.Init(cmd.OutOrStdout(), cmd.ErrOrStderr()); err != nil {
					return err
				}
			}
			return env.Enter(cmd, args)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&env.Flags.APIURL, "api-url", "", "API base URL (or set HEALTHMAP_API_URL)")
	flags.StringVar(&env.Flags.Store, "store", "", "Session store: keyring, file, memory (or set HEALTHMAP_STORE)")
	flags.StringVarP(&env.Flags.Output, "output", "o", commands.OutputTable, "Output format: table, json, yaml")
	flags.StringVar(&env.Flags.LogLevel, "log-level", "", "Log level (or set LOG_LEVEL, default warn)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "healthmap version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewLoginCmd(env))
	rootCmd.AddCommand(commands.NewLogoutCmd(env))
	rootCmd.AddCommand(commands.NewWhoamiCmd(env))
	rootCmd.AddCommand(commands.NewRegisterCmd(env))
	rootCmd.AddCommand(commands.NewStructuresCmd(env))
	rootCmd.AddCommand(commands.NewMembersCmd(env))
	rootCmd.AddCommand(commands.NewAdminsCmd(env))

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCmd(&commands.Env{})
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
