package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leapshader/internal/cli/config"
	"github.com/leapstack-labs/leapshader/internal/cli/output"
	intconfig "github.com/leapstack-labs/leapshader/internal/config"
	"github.com/leapstack-labs/leapshader/internal/engine"
	"github.com/leapstack-labs/leapshader/internal/examples"
)

// projectFile is the leapshader.yaml written by init.
type projectFile struct {
	ShadersDir  string         `yaml:"shaders_dir"`
	ExamplesDir string         `yaml:"examples_dir"`
	StatePath   string         `yaml:"state_path"`
	Compile     compileSection `yaml:"compile"`
	Preview     previewSection `yaml:"preview"`
	UI          uiSection      `yaml:"ui"`
}

type compileSection struct {
	QuietPeriod  string `yaml:"quiet_period"`
	SPIRVVersion string `yaml:"spirv_version"`
	Validate     bool   `yaml:"validate"`
}

type previewSection struct {
	FPS         int    `yaml:"fps"`
	GLSLVersion string `yaml:"glsl_version"`
}

type uiSection struct {
	Port     int  `yaml:"port"`
	AutoOpen bool `yaml:"auto_open"`
	Watch    bool `yaml:"watch"`
}

const projectFileHeader = "# leapshader project configuration\n# Environment variables override these values, e.g. LEAPSHADER_COMPILE__QUIET_PERIOD=500ms\n"

func defaultProjectFile() projectFile {
	return projectFile{
		ShadersDir:  intconfig.DefaultShadersDir,
		ExamplesDir: intconfig.DefaultExamplesDir,
		StatePath:   config.DefaultStateFile,
		Compile: compileSection{
			QuietPeriod:  intconfig.DefaultQuietPeriod.String(),
			SPIRVVersion: intconfig.DefaultSPIRVVersion,
			Validate:     intconfig.DefaultIRValidate,
		},
		Preview: previewSection{
			FPS:         intconfig.DefaultFPS,
			GLSLVersion: intconfig.DefaultGLSLVersion,
		},
		UI: uiSection{
			Port:     config.DefaultUIPort,
			AutoOpen: true,
			Watch:    true,
		},
	}
}

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool
	var example string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new LeapShader project",
		Long: `Initialize a new LeapShader project with a shader pair and configuration.

This creates:
  - shaders/vertex.wgsl and shaders/fragment.wgsl from an example
  - leapshader.yaml configuration file
  - .gitignore entry for the history database`,
		Example: `  # Initialize in current directory
  leapshader init

  # Start from a specific example
  leapshader init --example waves

  # Initialize in a new directory
  leapshader init my-shader

  # Force overwrite existing files
  leapshader init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			cfg := getConfig()
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))
			return runInit(r, dir, example, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")
	cmd.Flags().StringVar(&example, "example", "", "Example to start from (default: the catalog default)")
	_ = cmd.RegisterFlagCompletionFunc("example", completeExamples)

	return cmd
}

func runInit(r *output.Renderer, dir, example string, force bool) error {
	if dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	configPath := filepath.Join(dir, intconfig.ConfigFileName)
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", intconfig.ConfigFileName)
	}

	catalog := examples.Builtin()
	if example == "" {
		example = catalog.DefaultName()
	}
	pair, err := catalog.Source(example)
	if err != nil {
		return err
	}

	shadersDir := filepath.Join(dir, intconfig.DefaultShadersDir)
	if engine.ShadersExist(shadersDir) && !force {
		r.StatusLine(intconfig.DefaultShadersDir+"/", "warning", "exists, kept")
	} else {
		if err := engine.WriteShaders(shadersDir, pair); err != nil {
			return fmt.Errorf("failed to write shaders: %w", err)
		}
		r.StatusLine(filepath.Join(intconfig.DefaultShadersDir, intconfig.VertexFile), "success", "from "+example)
		r.StatusLine(filepath.Join(intconfig.DefaultShadersDir, intconfig.FragmentFile), "success", "from "+example)
	}

	data, err := yaml.Marshal(defaultProjectFile())
	if err != nil {
		return err
	}
	if err := os.WriteFile(configPath, append([]byte(projectFileHeader), data...), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", intconfig.ConfigFileName, err)
	}
	r.StatusLine(intconfig.ConfigFileName, "success", "")

	added, err := ensureGitignore(filepath.Join(dir, ".gitignore"), filepath.Dir(config.DefaultStateFile)+"/")
	if err != nil {
		return err
	}
	if added {
		r.StatusLine(".gitignore", "success", "")
	}

	r.Println("")
	r.Success("LeapShader project initialized!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  leapshader serve    Open the live workbench")
	r.Println("  leapshader watch    Validate on every save from your editor")
	r.Println("  leapshader check    Validate once, e.g. in CI")
	return nil
}

// ensureGitignore appends entry to the file unless a line already matches.
func ensureGitignore(path, entry string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == entry {
			return false, nil
		}
	}
	content := string(data)
	if content != "" && content[len(content)-1] != '\n' {
		content += "\n"
	}
	content += entry + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return false, fmt.Errorf("failed to write .gitignore: %w", err)
	}
	return true, nil
}
