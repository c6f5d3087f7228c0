package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dhamidi/cfnls/template"
	"github.com/dhamidi/cfnls/template/document"
	"github.com/dhamidi/cfnls/template/parser"
)

func newContextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "context <file> <line>:<character>",
		Short: "Show the cursor context at a position (zero-based)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read template: %w", err)
			}
			line, character, err := parsePoint(args[1])
			if err != nil {
				return err
			}

			tree := parser.Parse(data, parser.DetectFormat(data, ""))
			doc := documentFor(args[0], string(data))
			offset := doc.OffsetAt(document.Position{Line: line, Character: character})
			ctx := template.ResolveContext(tree, offset)
			if ctx == nil {
				return fmt.Errorf("no context at %s", args[1])
			}

			fmt.Printf("section:   %q\n", ctx.Section)
			fmt.Printf("logicalId: %q\n", ctx.LogicalID)
			fmt.Printf("path:      %s\n", strings.Join(ctx.Path, "."))
			fmt.Printf("topLevel:  %v\n", ctx.TopLevel)
			fmt.Printf("inKey:     %v  inValue: %v  noise: %v\n", ctx.InKey, ctx.InValue, ctx.Noise)
			if ctx.Entity != nil {
				fmt.Printf("entity:    %s %q type=%q\n", ctx.Entity.Kind, ctx.Entity.Name, ctx.Entity.Type)
			}
			return nil
		},
	}

	return cmd
}

func parsePoint(arg string) (int, int, error) {
	parts := strings.SplitN(arg, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("position must be <line>:<character>, got %q", arg)
	}
	line, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("bad line %q: %w", parts[0], err)
	}
	character, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("bad character %q: %w", parts[1], err)
	}
	return line, character, nil
}

func documentFor(path, text string) *document.Document {
	store := document.NewStore()
	return store.Open("file://"+path, "", text, 0)
}
