package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/storyboard/pkg/graph"
	"github.com/matzehuels/storyboard/pkg/layout"
	"github.com/matzehuels/storyboard/pkg/story"
)

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate [board.yaml]",
		Short: "Check a storyboard (and optionally a layout config)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(args[0], configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "layout config file (TOML) to check")

	return cmd
}

func runValidate(input, configPath string) error {
	b, name, err := graph.ReadStoryboardFile(input)
	if err != nil {
		printError("%s is invalid", input)
		return err
	}
	if err := b.Validate(); err != nil {
		printError("%s is invalid", input)
		return err
	}
	if configPath != "" {
		cfg, err := layout.LoadConfig(configPath)
		if err == nil {
			err = cfg.Validate()
		}
		if err != nil {
			printError("%s is invalid", configPath)
			return err
		}
	}

	printSuccess("%s is valid", input)
	if name != "" {
		printKeyValue("name", name)
	}
	printKeyValue("nodes", fmt.Sprint(b.NodeCount()))
	printKeyValue("branches", fmt.Sprint(b.BranchCount()))
	printKeyValue("roots", fmt.Sprint(len(b.Roots())))
	printKeyValue("depth", fmt.Sprint(maxLevel(b)))

	if n := unplaced(b); n > 0 {
		printWarning("%d nodes belong to no branch and will not be laid out", n)
	}
	return nil
}

func maxLevel(b *story.Board) int {
	level := 0
	for _, br := range b.Branches() {
		level = max(level, br.Level)
	}
	return level
}

// unplaced counts nodes outside every branch.
func unplaced(b *story.Board) int {
	n := 0
	for _, node := range b.Nodes() {
		if node.BranchID == "" {
			n++
		}
	}
	return n
}
