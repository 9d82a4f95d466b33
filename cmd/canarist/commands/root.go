// Package commands implements the CLI commands for canarist.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.trai.ch/canarist/internal/build"
	"go.trai.ch/canarist/internal/core/domain"
)

// CLI represents the command line interface for canarist.
type CLI struct {
	app     Application
	logs    LogSettings
	rootCmd *cobra.Command
	args    []string
	flags   rootFlags
}

// Application represents the application logic interface.
type Application interface {
	Run(ctx context.Context, cwd string, args domain.Arguments) error
}

// LogSettings adjusts the logger from the command line flags.
type LogSettings interface {
	SetJSON(enabled bool)
	SetDebug(enabled bool)
}

type rootFlags struct {
	repositories  []string
	rootManifest  string
	yarnArguments string
	project       string
	unpin         bool
	jobs          int
	json          bool
	debug         bool
}

// New creates a new CLI instance with the given app. logs may be nil.
func New(a Application, logs LogSettings) *CLI {
	c := &CLI{
		app:  a,
		logs: logs,
	}

	rootCmd := &cobra.Command{
		Use:   "canarist [flags] [target-directory]",
		Short: "Test the repositories of a yarn workspace forest against each other",
		Long: `canarist clones the given repositories into one directory, combines them into a
single yarn workspace with aligned versions, installs it and runs each repository's
commands.

Repositories accept sub-arguments in brackets:

  canarist -r [https://github.com/xing/hops.git -b next -c "yarn lint" -c "yarn test"]`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
		RunE:          c.run,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	flags := rootCmd.Flags()
	flags.StringArrayVarP(&c.flags.repositories, "repository", "r", nil,
		"Repository URL or local path, optionally [url -b branch -c command -d directory]")
	flags.StringVarP(&c.flags.rootManifest, "root-manifest", "m", "", "JSON merged into the root package.json")
	flags.StringVarP(&c.flags.yarnArguments, "yarn-arguments", "y", "", "Arguments passed to yarn install")
	flags.StringVarP(&c.flags.project, "project", "p", "", "Project to select from the config file")
	flags.BoolVarP(&c.flags.unpin, "unpin", "u", false, "Loosen external dependencies to the lowest shared version")
	flags.IntVarP(&c.flags.jobs, "jobs", "j", 0, "Number of repositories cloned in parallel")
	flags.BoolVar(&c.flags.json, "json", false, "Write logs as JSON")
	flags.BoolVar(&c.flags.debug, "debug", false, "Log debug output including command output")

	c.rootCmd = rootCmd
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

func (c *CLI) run(cmd *cobra.Command, positional []string) error {
	if c.logs != nil {
		c.logs.SetJSON(c.flags.json)
		c.logs.SetDebug(c.flags.debug)
	}

	repositories, err := parseRepositoryFlags(c.flags.repositories)
	if err != nil {
		return err
	}

	args := domain.Arguments{
		Repositories:  repositories,
		RootManifest:  c.flags.rootManifest,
		YarnArguments: c.flags.yarnArguments,
		Project:       c.flags.project,
		Unpin:         c.flags.unpin,
		Jobs:          c.flags.jobs,
	}
	if len(positional) > 0 {
		args.Target = positional[0]
	}

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	return c.app.Run(cmd.Context(), cwd, args)
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	if c.args == nil {
		c.args = os.Args[1:]
	}
	args, err := collapseSubArguments(c.args)
	if err != nil {
		return err
	}
	c.rootCmd.SetArgs(args)
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command.
func (c *CLI) SetArgs(args []string) {
	c.args = args
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
