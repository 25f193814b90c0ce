package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/coneko/stack/pkg/changeset"
	"github.com/coneko/stack/pkg/config"
	"github.com/coneko/stack/pkg/credential"
	"github.com/coneko/stack/pkg/github"
	"github.com/coneko/stack/pkg/log"
	"github.com/coneko/stack/pkg/stack"
)

// These variables are set via ldflags during build
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

const envPrefix = "STACK"

var errNoCommand = errors.New("a command is required")

// rootOptions is shared by the root command and its subcommands.
type rootOptions struct {
	logLevel string
	config   *config.ProjectConfig
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "stack",
		Short: "Upload the commit at HEAD as a stacked GitHub pull request",
		Long: `stack turns the commit at HEAD into a pull request that only contains
that commit: it pushes a branch at the commit's parent and a branch at the
commit, then opens a pull request between the two.`,
		Version:       versionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := bindEnv(cmd.Root().PersistentFlags()); err != nil {
				return err
			}
			cfg, err := config.LoadFromCurrentDir()
			if err != nil {
				return err
			}
			opts.config = cfg

			level, source := cfg.ResolveLogLevel(opts.logLevel, "info")
			if err := log.Setup(level); err != nil {
				return fmt.Errorf("invalid log level from %s: %w", source, err)
			}
			log.Debug("configured logging", "level", level, "source", source)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return errNoCommand
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.SetVersionTemplate("stack version {{.Version}}\n")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (env STACK_LOG_LEVEL)")

	cmd.AddCommand(newUpCmd(opts))
	return cmd
}

func versionString() string {
	v := Version
	if Commit != "" && Commit != "unknown" {
		v += " (commit " + Commit + ")"
	}
	if BuildDate != "" && BuildDate != "unknown" {
		v += " built at " + BuildDate
	}
	return v
}

// bindEnv fills flags the user did not set from STACK_* environment variables.
func bindEnv(flags *pflag.FlagSet) error {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return err
	}

	var setErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Changed || setErr != nil || !v.IsSet(f.Name) {
			return
		}
		val := fmt.Sprintf("%v", v.Get(f.Name))
		if val == "" {
			return
		}
		if err := f.Value.Set(val); err != nil {
			setErr = fmt.Errorf("invalid %s_%s: %w", envPrefix, strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_")), err)
		}
	})
	return setErr
}

// handleError prints err with a hint for the failures users can fix themselves.
func handleError(w io.Writer, err error) {
	if err == nil || errors.Is(err, pflag.ErrHelp) {
		return
	}
	message := err.Error()
	if hint := hintFor(err); hint != "" {
		message = fmt.Sprintf("%s\nHint: %s", message, hint)
	}
	color.New(color.FgRed).Fprintf(w, "Error: %s\n", message)
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, errNoCommand):
		return "run 'stack up' to upload the commit at HEAD."
	case errors.Is(err, stack.ErrMissingUser):
		return "export USER; its value prefixes every branch stack creates."
	case errors.Is(err, stack.ErrNotARepository):
		return "run stack inside a git working tree."
	case errors.Is(err, stack.ErrNoOriginRemote):
		return "add it with 'git remote add origin git@github.com:<owner>/<repo>.git' or set 'remote' in " + config.ConfigPath + "."
	case errors.Is(err, stack.ErrNoRemoteURL), errors.Is(err, stack.ErrUnrecognizedRemoteURL):
		return "the remote must be an SSH url of the form git@github.com:<owner>/<repo>.git."
	case errors.Is(err, stack.ErrNoHead):
		return "commit something first."
	case errors.Is(err, stack.ErrNoParent):
		return "the first commit of a repository cannot be stacked; push it directly."
	case errors.Is(err, stack.ErrMultipleParents):
		return "merge commits cannot be stacked; check out a single-parent commit."
	case errors.Is(err, stack.ErrBranchAlreadyExists):
		return "this commit was already uploaded. Amend it to get a new commit id, or delete the old branches with 'git branch -D'."
	case errors.Is(err, stack.ErrMissingToken):
		return "export GITHUB_TOKEN (or GH_TOKEN) with access to the repository."
	case errors.Is(err, changeset.ErrEditorAborted):
		return "nothing was pushed. Save and quit the editor normally to continue."
	case errors.Is(err, changeset.ErrMissingTitle):
		return "the first line that is not a comment or a field becomes the pull request title."
	case errors.Is(err, credential.ErrNoHomeDirectory):
		return "set HOME so ~/.ssh/id_rsa can be found, or load your key with 'ssh-add'."
	case errors.Is(err, credential.ErrNoAuthenticationAvailable):
		return "configure an SSH key or a git credential helper for the remote."
	case github.IsRateLimitError(err):
		return "GitHub rate limit reached; the branches were pushed, retry opening the pull request later."
	case github.IsAuthenticationError(err):
		return "GitHub rejected the token. Check that it has the 'repo' scope."
	case github.IsNotFoundError(err):
		return "GitHub could not find the repository. Check the remote URL and that the token can see the repository."
	case github.IsValidationError(err):
		if details := github.ErrorDetails(err); details != "" {
			return details
		}
		return "GitHub rejected the pull request."
	case errors.Is(err, context.Canceled):
		return "interrupted."
	}
	return ""
}

func main() {
	cmd := newRootCmd()
	err := cmd.ExecuteContext(context.Background())
	log.Sync()
	if err != nil {
		handleError(os.Stderr, err)
		os.Exit(1)
	}
}
