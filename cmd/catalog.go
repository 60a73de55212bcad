package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/knowgraph/knowgraph/internal/catalog"
	"github.com/knowgraph/knowgraph/internal/graphview"
	"github.com/knowgraph/knowgraph/internal/mastery"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and validate learning-path catalogs",
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a catalog file against the schema and graph rules",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, path, err := catalogFromArgs(args)
		if err != nil {
			return err
		}
		fmt.Printf("✓ %s: %q %s, %d capsules, %d questions, %d edges\n",
			path, cat.Title, cat.Version, cat.Len(), cat.QuestionCount(), len(cat.Edges))
		return nil
	},
}

var catalogShowCmd = &cobra.Command{
	Use:   "show [file]",
	Short: "Print the capsules of a catalog in path order",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, _, err := catalogFromArgs(args)
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		return showCatalog(os.Stdout, cat, format)
	},
}

var catalogGraphCmd = &cobra.Command{
	Use:   "graph [file]",
	Short: "Print the knowledge graph in Graphviz DOT format",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, _, err := catalogFromArgs(args)
		if err != nil {
			return err
		}
		writeDOT(os.Stdout, cat)
		return nil
	},
}

func init() {
	catalogShowCmd.Flags().String("format", "text", "Output format: text, yaml or json")

	catalogCmd.AddCommand(catalogValidateCmd)
	catalogCmd.AddCommand(catalogShowCmd)
	catalogCmd.AddCommand(catalogGraphCmd)
}

// catalogFromArgs loads the file named by args[0], then --catalog, then the
// built-in catalog.
func catalogFromArgs(args []string) (*catalog.Catalog, string, error) {
	path := cfg.Catalog.Path
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		return catalog.Default(), "built-in", nil
	}
	cat, err := catalog.Load(path)
	return cat, path, err
}

func showCatalog(w io.Writer, cat *catalog.Catalog, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(cat)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(cat)
	case "text":
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	fmt.Fprintf(w, "%s (%s)\n", cat.Title, cat.Version)
	fmt.Fprintln(w, strings.Repeat("─", 60))
	for i, c := range cat.Capsules {
		fmt.Fprintf(w, "%2d. %-28s %-12s %d questions\n", i+1, c.Title, c.ID, len(c.Questions))
		for _, q := range c.Questions {
			fmt.Fprintf(w, "      ? %s\n", q.Prompt)
		}
	}
	return nil
}

// writeDOT renders the graph as it looks at the start of a session: the
// first capsule viewed, the rest locked.
func writeDOT(w io.Writer, cat *catalog.Catalog) {
	states := make(map[string]mastery.MasteryState, cat.Len())
	for i, c := range cat.Capsules {
		if i == 0 {
			states[c.ID] = mastery.StateViewed
		} else {
			states[c.ID] = mastery.StateLocked
		}
	}
	v := graphview.Build(cat, states, 0)

	fmt.Fprintf(w, "digraph %q {\n", cat.Title)
	fmt.Fprintln(w, "  rankdir=LR;")
	fmt.Fprintln(w, "  node [shape=box, style=rounded];")
	for _, n := range v.Nodes {
		// Positions are percentages; neato reads pos in inches.
		fmt.Fprintf(w, "  %q [label=%q, pos=\"%.1f,%.1f!\"];\n", n.ID, n.Label, n.X/10, (100-n.Y)/10)
	}
	for _, e := range v.Edges {
		fmt.Fprintf(w, "  %q -> %q [color=%q, penwidth=%d];\n", e.From, e.To, e.Style.Color, e.Style.Width)
	}
	fmt.Fprintln(w, "}")
}
