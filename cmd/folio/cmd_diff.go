package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/odvcencio/folio/pkg/object"
)

func newDiffCmd(g *globals) *cobra.Command {
	var p string

	cmd := &cobra.Command{
		Use:   "diff <type> <id> <from> [to]",
		Short: "Show changes to a document resource between two versions",
		Args:  cobra.RangeArgs(3, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			to := object.Hash("")
			if len(args) == 4 {
				to = object.Hash(args[3])
			}
			return g.withEnv(func(e *env) error {
				doc, err := openDocument(e, args[0], args[1], to, false)
				if err != nil {
					return err
				}
				target := p
				if target == "" {
					target = doc.Type.IndexPath()
				}
				text, err := doc.Diff(object.Hash(args[2]), target)
				if err != nil {
					return err
				}
				writeColoredDiff(cmd, text)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&p, "path", "", "resource to compare (default: the type's index)")
	return cmd
}

func writeColoredDiff(cmd *cobra.Command, text string) {
	out := cmd.OutOrStdout()
	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			fmt.Fprint(out, color.New(color.Bold).Sprint(line))
		case strings.HasPrefix(line, "@@"):
			fmt.Fprint(out, color.CyanString("%s", line))
		case strings.HasPrefix(line, "+"):
			fmt.Fprint(out, color.GreenString("%s", line))
		case strings.HasPrefix(line, "-"):
			fmt.Fprint(out, color.RedString("%s", line))
		default:
			fmt.Fprint(out, line)
		}
	}
}
