package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kobzarvs/cypherpad/internal/app"
)

// passwordEnv is read when --password is not given.
const passwordEnv = "CYPHERPAD_PASSWORD"

func NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cypherpad",
		Short: "Terminal Cypher editor with live server-side linting",
		Long: `cypherpad is an interactive Cypher prompt. While you type, each
statement is sent to the server as EXPLAIN and the notifications it
returns are shown inline at the offending range.

Enter runs a single-line query, Alt+Enter always runs the buffer.
Lines starting with ':' are client commands (:use, :history, :multi,
:clear, :quit).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          runRoot,
	}
	rootCmd.Flags().String("uri", "", "Bolt URI (default from config, neo4j://localhost:7687)")
	rootCmd.Flags().StringP("user", "u", "", "Username")
	rootCmd.Flags().StringP("password", "p", "", "Password (or $"+passwordEnv+")")
	rootCmd.Flags().StringP("database", "d", "", "Database to run queries against")
	rootCmd.Flags().Bool("multi-statement", false, "Accept several ';'-separated statements per buffer")
	rootCmd.Flags().Bool("debug", false, "Write debug logs")
	return rootCmd
}

// Execute runs the root command with args and reports a failure on stderr
// as "cypherpad: <err>". It returns the process exit code.
func Execute(version string, args []string, stderr io.Writer) int {
	cmd := NewRootCommand(version)
	cmd.SetArgs(args)
	cmd.SetErr(stderr)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(stderr, "cypherpad:", err)
		return 1
	}
	return 0
}

func runRoot(cmd *cobra.Command, _ []string) error {
	opts, err := optionsFromFlags(cmd)
	if err != nil {
		return err
	}
	return app.New(opts).Run()
}

// optionsFromFlags maps flags onto app options. Flags left unset keep the
// config file value.
func optionsFromFlags(cmd *cobra.Command) (app.Options, error) {
	flags := cmd.Flags()
	var opts app.Options
	var err error
	if opts.URI, err = flags.GetString("uri"); err != nil {
		return opts, err
	}
	if opts.Username, err = flags.GetString("user"); err != nil {
		return opts, err
	}
	if opts.Password, err = flags.GetString("password"); err != nil {
		return opts, err
	}
	if opts.Password == "" {
		opts.Password = os.Getenv(passwordEnv)
	}
	if opts.Database, err = flags.GetString("database"); err != nil {
		return opts, err
	}
	if flags.Changed("multi-statement") {
		multi, err := flags.GetBool("multi-statement")
		if err != nil {
			return opts, err
		}
		opts.MultiStatement = &multi
	}
	if opts.Debug, err = flags.GetBool("debug"); err != nil {
		return opts, err
	}
	return opts, nil
}
