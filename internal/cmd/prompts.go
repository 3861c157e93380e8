package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppgdev/ppg/internal/errs"
	"github.com/ppgdev/ppg/internal/ops"
	"github.com/ppgdev/ppg/internal/prompt"
	"github.com/ppgdev/ppg/internal/style"
)

var listCmd = &cobra.Command{
	Use:     "list (templates|prompts|swarms)",
	GroupID: GroupStatus,
	Short:   "List available templates, prompts, or swarms",
	Args:    cobra.ExactArgs(1),
	RunE:    runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	kind := args[0]
	switch kind {
	case "templates", "prompts", "swarms":
	default:
		return errs.New(errs.InvalidArgs, "list takes templates, prompts, or swarms, not %q", kind)
	}
	root, err := ops.ResolveProjectRoot(projectRootFlag)
	if err != nil {
		return err
	}
	names := prompt.ListNamed(root, kind)
	return emit(map[string]any{"kind": kind, "names": names}, func() {
		if len(names) == 0 {
			fmt.Println(style.Dim.Render("no " + kind + " found"))
			return
		}
		for _, name := range names {
			fmt.Println(" ", name)
		}
	})
}

var promptCmd = &cobra.Command{
	Use:     "prompt <name>",
	GroupID: GroupStatus,
	Short:   "Print a named prompt or template",
	Args:    cobra.ExactArgs(1),
	RunE:    runPrompt,
}

func init() {
	rootCmd.AddCommand(promptCmd)
}

func runPrompt(cmd *cobra.Command, args []string) error {
	root, err := ops.ResolveProjectRoot(projectRootFlag)
	if err != nil {
		return err
	}
	// Named prompts and templates share a namespace from the caller's
	// point of view; try both.
	path, err := prompt.FindNamed(root, "prompts", args[0])
	if err != nil {
		path, err = prompt.FindNamed(root, "templates", args[0])
		if err != nil {
			return err
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	text := string(data)
	return emit(map[string]any{"name": args[0], "path": path, "text": text}, func() {
		fmt.Print(text)
		if vars := prompt.Vars(text); len(vars) > 0 {
			fmt.Println(style.Dim.Render(fmt.Sprintf("\nvars: %v", vars)))
		}
	})
}
