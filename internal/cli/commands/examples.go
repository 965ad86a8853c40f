package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapshader/internal/cli/output"
	"github.com/leapstack-labs/leapshader/internal/examples"
)

// NewExamplesCommand creates the examples command.
func NewExamplesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "examples",
		Short: "List the available example shaders",
		Long: `List the builtin examples and any examples defined in the project's
examples directory. Project examples replace builtin ones with the same name.`,
		Example: `  # List examples
  leapshader examples

  # Print the source of an example
  leapshader examples show circle

  # Machine-readable list
  leapshader examples -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx := NewCommandContextWithoutEngine(cmd)
			catalog, err := examples.Load(cmdCtx.Cfg.ExamplesDir)
			if err != nil {
				return err
			}
			return renderExampleList(cmdCtx.Renderer, catalog)
		},
	}

	cmd.AddCommand(newExamplesShowCommand())
	return cmd
}

func newExamplesShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "show <name>",
		Short:             "Print the vertex and fragment source of an example",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeExamples,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx := NewCommandContextWithoutEngine(cmd)
			catalog, err := examples.Load(cmdCtx.Cfg.ExamplesDir)
			if err != nil {
				return err
			}
			return renderExampleSource(cmdCtx.Renderer, catalog, args[0])
		},
	}
}

// ExampleSource is the JSON output of examples show.
type ExampleSource struct {
	examples.Example
	VertexSource   string `json:"vertex_source"`
	FragmentSource string `json:"fragment_source"`
}

func renderExampleList(r *output.Renderer, catalog *examples.Catalog) error {
	list := catalog.List()
	if r.EffectiveMode() == output.ModeJSON {
		out := output.ExamplesOutput{Examples: make([]output.ExampleInfo, 0, len(list))}
		for _, ex := range list {
			out.Examples = append(out.Examples, output.ExampleInfo{
				Name:        ex.Name,
				Title:       ex.Title,
				Description: ex.Description,
				Builtin:     ex.Builtin,
				Default:     ex.Name == catalog.DefaultName(),
			})
		}
		return r.JSON(out)
	}

	r.Header(1, "Examples")
	rows := make([][]string, 0, len(list))
	for _, ex := range list {
		name := ex.Name
		if name == catalog.DefaultName() {
			name += " (default)"
		}
		origin := "project"
		if ex.Builtin {
			origin = "builtin"
		}
		rows = append(rows, []string{name, ex.Title, ex.Description, origin})
	}
	r.Table([]string{"Name", "Title", "Description", "Source"}, rows)
	return nil
}

func renderExampleSource(r *output.Renderer, catalog *examples.Catalog, name string) error {
	ex, err := catalog.Get(name)
	if err != nil {
		return err
	}
	pair, err := catalog.Source(name)
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(ExampleSource{Example: ex, VertexSource: pair.Vertex, FragmentSource: pair.Fragment})
	}

	title := ex.Title
	if title == "" {
		title = ex.Name
	}
	r.Header(1, title)
	if ex.Description != "" {
		r.Println(ex.Description)
		r.Println("")
	}
	r.Header(2, ex.Vertex)
	r.Println(output.FormatCodeBlock("wgsl", pair.Vertex))
	r.Println("")
	r.Header(2, ex.Fragment)
	r.Println(output.FormatCodeBlock("wgsl", pair.Fragment))
	return nil
}

// completeExamples completes example names for flags and arguments.
func completeExamples(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	catalog, err := examples.Load(getConfig().ExamplesDir)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var names []string
	for _, name := range catalog.Names() {
		if strings.HasPrefix(name, toComplete) {
			names = append(names, name)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
