package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"karmatch/internal/screen"
	"karmatch/internal/shared/config"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func errorText(msg string) string {
	return red(msg)
}

// streams are the terminal handles a command talks to.
type streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

func defaultStreams() streams {
	return streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// isTTY reports whether both ends of s are terminals.
func (s streams) isTTY() bool {
	in, ok := s.In.(*os.File)
	if !ok {
		return false
	}
	out, ok := s.Out.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(in.Fd())) && term.IsTerminal(int(out.Fd()))
}

// flag names double as viper keys.
const (
	flagConfig             = "config"
	flagAPIBaseURL         = "api-base-url"
	flagStateDir           = "state-dir"
	flagLogLevel           = "log-level"
	flagNoTUI              = "no-tui"
	flagRegistrationPolicy = "registration-policy"
	flagMetricsAddr        = "metrics-addr"
)

// cliOptions carries what every subcommand needs to build its container.
type cliOptions struct {
	streams streams
	viper   *viper.Viper
}

// loadOptions turns the flags the user actually set into config options.
func (o *cliOptions) loadOptions() []config.Option {
	var overrides config.Overrides
	str := func(key string) *string {
		if !o.viper.IsSet(key) {
			return nil
		}
		v := o.viper.GetString(key)
		return &v
	}
	overrides.APIBaseURL = str(flagAPIBaseURL)
	overrides.StateDir = str(flagStateDir)
	overrides.LogLevel = str(flagLogLevel)
	overrides.RegistrationPolicy = str(flagRegistrationPolicy)
	overrides.MetricsAddr = str(flagMetricsAddr)
	if o.viper.IsSet(flagNoTUI) {
		v := o.viper.GetBool(flagNoTUI)
		overrides.DisableTUI = &v
	}

	opts := []config.Option{config.WithOverrides(overrides)}
	if path := strings.TrimSpace(o.viper.GetString(flagConfig)); path != "" {
		opts = append(opts, config.WithConfigPath(path))
	}
	return opts
}

// NewRootCommand builds the karmatch command tree.
func NewRootCommand(s streams) *cobra.Command {
	return newRootCommand(&cliOptions{streams: s, viper: viper.New()})
}

func newRootCommand(opts *cliOptions) *cobra.Command {
	s := opts.streams
	root := &cobra.Command{
		Use:   "karmatch",
		Short: "Karmatch in your terminal",
		Long: fmt.Sprintf(`%s

Sign in with a one-time password, build your profile and chat with the
Karmatch AI without leaving the terminal.

%s
  karmatch                 # resume where you left off
  karmatch login           # sign in again
  karmatch onboard         # create your profile
  karmatch chat --no-tui   # plain line-mode chat
  karmatch config show     # show resolved configuration`,
			bold("Karmatch"), bold("EXAMPLES:")),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(cmd.Context(), opts, screen.RouteNone)
		},
	}
	root.SetIn(s.In)
	root.SetOut(s.Out)
	root.SetErr(s.Err)

	flags := root.PersistentFlags()
	flags.String(flagConfig, "", "path to config.yaml")
	flags.String(flagAPIBaseURL, "", "backend base URL")
	flags.String(flagStateDir, "", "directory for session and chat history")
	flags.String(flagLogLevel, "", "log level (debug, info, warn, error)")
	flags.Bool(flagNoTUI, false, "use line mode instead of the full-screen UI")
	flags.String(flagRegistrationPolicy, "", "what to do when registration fails: block or proceed")
	flags.String(flagMetricsAddr, "", "serve Prometheus metrics on this address")
	_ = opts.viper.BindPFlags(flags)

	root.AddCommand(
		newRouteCommand(opts, "login", "Sign in with an emailed one-time password", screen.RouteLogin),
		newRouteCommand(opts, "onboard", "Create your profile", screen.RouteOnboarding),
		newRouteCommand(opts, "chat", "Chat with the Karmatch AI", screen.RouteChat),
		newLogoutCommand(opts),
		newConfigCommand(opts),
	)
	return root
}

func newRouteCommand(opts *cliOptions, use, short string, route screen.Route) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(cmd.Context(), opts, route)
		},
	}
}

func newLogoutCommand(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := buildContainer(opts.loadOptions()...)
			if err != nil {
				return err
			}
			defer container.Cleanup()
			if err := container.Session.SignOut(); err != nil {
				return err
			}
			fmt.Fprintln(opts.streams.Out, green("Signed out."))
			return nil
		},
	}
}
