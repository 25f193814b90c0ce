package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/coneko/stack/pkg/stack"
)

func newUpCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Push the commit at HEAD and open a pull request for it",
		Long: `Push the commit at HEAD as a stacked pull request.

Two branches are created and pushed to origin:

  $USER-stack-<sha>-base   at the parent of HEAD
  $USER-stack-<sha>-pr     at HEAD

and a pull request is opened from the second into the first. The pull
request title and body are read from your editor ($VISUAL, $EDITOR, vi).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get current directory: %w", err)
			}
			result, err := stack.NewPipeline(opts.config, dir).Run(cmd.Context())
			printResult(cmd.OutOrStdout(), result)
			return err
		},
	}
}

// printResult lists what a run did. After a failure this is what was left behind.
func printResult(w io.Writer, result *stack.Result) {
	if result == nil || len(result.Actions) == 0 {
		return
	}
	for _, a := range result.Actions {
		fmt.Fprintf(w, "  %s\n", a.Description)
	}
	if result.PullRequest != nil {
		color.New(color.FgGreen).Fprintf(w, "Pull request: %s\n", result.PullRequest.URL)
	}
	if !result.Success && result.HasAction(stack.ActionPushedBranch) {
		color.New(color.FgYellow).Fprintln(w, "Pushed branches were left on the remote.")
	}
}
