package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapshader/internal/cli/config"
	"github.com/leapstack-labs/leapshader/internal/cli/output"
	"github.com/leapstack-labs/leapshader/internal/engine"
	"github.com/leapstack-labs/leapshader/internal/examples"
	"github.com/leapstack-labs/leapshader/internal/state"
	"github.com/leapstack-labs/leapshader/pkg/core"
)

// Check statuses.
const (
	checkPass  = "pass"
	checkWarn  = "warn"
	checkError = "error"
)

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run a project health check",
		Long: `Check that the project is ready for a live session.

The doctor command checks the configuration file, the shader pair, the
examples catalog, the history database and the workbench port, and prints
a health score with recommendations.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Run health check
  leapshader doctor

  # Output as JSON
  leapshader doctor -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd)
		},
	}

	return cmd
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	Summary         ProjectSummary `json:"summary"`
	HealthChecks    []HealthCheck  `json:"health_checks"`
	Score           int            `json:"score"`
	Recommendations []string       `json:"recommendations"`
	IssueCount      int            `json:"issue_count"`
}

// ProjectSummary contains project-level facts.
type ProjectSummary struct {
	ProjectRoot string `json:"project_root"`
	ConfigFile  string `json:"config_file,omitempty"`
	ShadersDir  string `json:"shaders_dir"`
	Examples    int    `json:"examples"`
	Attempts    int    `json:"attempts"`
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Group   string   `json:"group"`
	Status  string   `json:"status"` // "pass", "warn", "error"
	Details []string `json:"details,omitempty"`
}

func runDoctor(cmd *cobra.Command) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	out := diagnose(cmd.Context(), cmdCtx.Cfg, config.GetConfigFileUsed())

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeMarkdown:
		return renderDoctorMarkdown(r, out)
	default:
		return renderDoctorText(r, out)
	}
}

// diagnose runs every health check against cfg.
func diagnose(ctx context.Context, cfg *config.Config, configFile string) *DoctorOutput {
	summary := ProjectSummary{
		ProjectRoot: cfg.ProjectRoot,
		ConfigFile:  configFile,
		ShadersDir:  cfg.ShadersDir,
	}

	var checks []HealthCheck

	cf := HealthCheck{ID: "CF01", Name: "Configuration file", Group: "project", Status: checkPass}
	if configFile == "" {
		cf.Status = checkWarn
		cf.Details = []string{"no leapshader.yaml found, using defaults"}
	}
	checks = append(checks, cf)

	checks = append(checks, checkShaders(ctx, cfg)...)

	ex := HealthCheck{ID: "EX01", Name: "Examples catalog", Group: "project", Status: checkPass}
	if catalog, err := examples.Load(cfg.ExamplesDir); err != nil {
		ex.Status = checkError
		ex.Details = []string{err.Error()}
	} else {
		summary.Examples = len(catalog.Names())
	}
	checks = append(checks, ex)

	st, attempts := checkHistory(cfg.StatePath)
	summary.Attempts = attempts
	checks = append(checks, st)

	checks = append(checks, checkPort(cfg.GetUIConfig().Port))

	sort.SliceStable(checks, func(i, j int) bool {
		return checks[i].Group < checks[j].Group
	})

	issues := 0
	for _, c := range checks {
		if c.Status != checkPass {
			issues++
		}
	}

	return &DoctorOutput{
		Summary:         summary,
		HealthChecks:    checks,
		Score:           calculateHealthScore(checks),
		Recommendations: generateRecommendations(checks),
		IssueCount:      issues,
	}
}

func checkShaders(ctx context.Context, cfg *config.Config) []HealthCheck {
	dir := HealthCheck{ID: "SH01", Name: "Shader files present", Group: "shaders", Status: checkPass}
	valid := HealthCheck{ID: "SH02", Name: "Shader pair validates", Group: "shaders", Status: checkPass}
	entry := HealthCheck{ID: "SH03", Name: "Entry points declared", Group: "shaders", Status: checkPass}

	pair, err := engine.ReadShaders(cfg.ShadersDir)
	if err != nil {
		dir.Status = checkError
		dir.Details = []string{err.Error()}
		valid.Status = checkWarn
		valid.Details = []string{"skipped: no shader pair"}
		entry.Status = checkWarn
		entry.Details = []string{"skipped: no shader pair"}
		return []HealthCheck{dir, valid, entry}
	}

	out, err := engine.Check(ctx, cfg.Compile, pair, nil)
	switch {
	case err != nil:
		valid.Status = checkError
		valid.Details = []string{err.Error()}
	case !out.Passed():
		valid.Status = checkError
		valid.Details = prettyReport(out.Report)
	}

	if !strings.Contains(pair.Vertex, "@vertex") {
		entry.Status = checkWarn
		entry.Details = append(entry.Details, core.StageVertex.String()+" shader has no @vertex entry point")
	}
	if !strings.Contains(pair.Fragment, "@fragment") {
		entry.Status = checkWarn
		entry.Details = append(entry.Details, core.StageFragment.String()+" shader has no @fragment entry point")
	}

	return []HealthCheck{dir, valid, entry}
}

func checkHistory(statePath string) (HealthCheck, int) {
	check := HealthCheck{ID: "ST01", Name: "History database", Group: "state", Status: checkPass}
	if statePath == "" {
		check.Details = []string{"history disabled"}
		return check, 0
	}
	if _, err := os.Stat(statePath); errors.Is(err, fs.ErrNotExist) {
		check.Details = []string{"not created yet"}
		return check, 0
	}

	store := state.NewSQLiteStore(nil)
	if err := store.Open(statePath); err != nil {
		check.Status = checkError
		check.Details = []string{err.Error()}
		return check, 0
	}
	defer func() { _ = store.Close() }()

	version, err := store.MigrationVersion()
	if err != nil {
		check.Status = checkWarn
		check.Details = []string{"schema version unknown: " + err.Error()}
		return check, 0
	}
	check.Details = []string{fmt.Sprintf("schema version %d", version)}

	attempts, err := store.ListAttempts(0)
	if err != nil {
		check.Status = checkWarn
		check.Details = append(check.Details, err.Error())
		return check, 0
	}
	return check, len(attempts)
}

func checkPort(port int) HealthCheck {
	check := HealthCheck{ID: "UI01", Name: fmt.Sprintf("Workbench port %d free", port), Group: "workbench", Status: checkPass}
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		check.Status = checkWarn
		check.Details = []string{err.Error()}
		return check
	}
	_ = ln.Close()
	return check
}

// calculateHealthScore deducts 25 points per error and 10 per warning.
func calculateHealthScore(checks []HealthCheck) int {
	score := 100
	for _, c := range checks {
		switch c.Status {
		case checkError:
			score -= 25
		case checkWarn:
			score -= 10
		}
	}
	return max(score, 0)
}

func generateRecommendations(checks []HealthCheck) []string {
	var recs []string
	for _, c := range checks {
		if c.Status == checkPass {
			continue
		}
		if rec := recommendationFor(c.ID); rec != "" {
			recs = append(recs, rec)
		}
	}
	return recs
}

func recommendationFor(id string) string {
	switch id {
	case "CF01":
		return "Run 'leapshader init' to write a leapshader.yaml"
	case "SH01":
		return "Run 'leapshader init' or point --shaders-dir at a directory with vertex.wgsl and fragment.wgsl"
	case "SH02":
		return "Run 'leapshader check' for diagnostics with locations"
	case "SH03":
		return "Declare @vertex and @fragment entry points so the preview can build a material"
	case "EX01":
		return "Fix examples.yaml in the examples directory"
	case "ST01":
		return "Delete the history database; it is recreated on the next serve"
	case "UI01":
		return "Pick another port with 'leapshader serve --port'"
	default:
		return ""
	}
}

func checkIcon(r *output.Renderer, status string) string {
	styles := r.Styles()
	switch status {
	case checkWarn:
		return styles.Warning.Render("!")
	case checkError:
		return styles.Error.Render("✗")
	default:
		return styles.Success.Render("✓")
	}
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) error {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header.Render("LeapShader Project Health Report"))
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	r.Println("")

	r.Println(styles.SubHeader.Render("Project Summary"))
	r.Printf("   Root: %s\n", out.Summary.ProjectRoot)
	if out.Summary.ConfigFile != "" {
		r.Printf("   Config: %s\n", out.Summary.ConfigFile)
	}
	r.Printf("   Examples: %d | Recorded attempts: %d\n", out.Summary.Examples, out.Summary.Attempts)
	r.Println("")

	r.Println(styles.SubHeader.Render("Health Checks"))
	r.Println("")

	currentGroup := ""
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println(styles.Bold.Render("   " + r.Title(currentGroup)))
			r.Println(styles.Muted.Render("   " + strings.Repeat("-", 40)))
		}
		r.Printf("   %s %s: %s\n", checkIcon(r, check.Status), check.ID, check.Name)

		for i, detail := range check.Details {
			if i >= 3 {
				r.Println(styles.Muted.Render(fmt.Sprintf("       ... and %d more", len(check.Details)-3)))
				break
			}
			r.Println(styles.Muted.Render("       - " + detail))
		}
	}
	r.Println("")

	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	scoreStyle := styles.Success
	if out.Score < 70 {
		scoreStyle = styles.Warning
	}
	if out.Score < 50 {
		scoreStyle = styles.Error
	}
	r.Printf("   Health Score: %s\n", scoreStyle.Render(fmt.Sprintf("%d/100", out.Score)))
	r.Println("")

	if len(out.Recommendations) > 0 {
		r.Println(styles.SubHeader.Render("Recommendations"))
		for i, rec := range out.Recommendations {
			r.Printf("   %d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}

func renderDoctorMarkdown(r *output.Renderer, out *DoctorOutput) error {
	r.Println("# LeapShader Project Health Report")
	r.Println("")

	r.Println("## Project Summary")
	r.Println("")
	r.Println(output.FormatKeyValue("Root", out.Summary.ProjectRoot))
	if out.Summary.ConfigFile != "" {
		r.Println(output.FormatKeyValue("Config", out.Summary.ConfigFile))
	}
	r.Println(output.FormatKeyValue("Examples", fmt.Sprint(out.Summary.Examples)))
	r.Println(output.FormatKeyValue("Recorded attempts", fmt.Sprint(out.Summary.Attempts)))
	r.Println("")

	r.Println("## Health Checks")
	r.Println("")

	currentGroup := ""
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println("### " + r.Title(currentGroup))
			r.Println("")
		}
		r.Printf("- **[%s]** %s: %s\n", strings.ToUpper(check.Status), check.ID, check.Name)
		for _, detail := range check.Details {
			r.Printf("  - %s\n", detail)
		}
	}
	r.Println("")

	r.Println("## Health Score")
	r.Println("")
	r.Printf("**%d/100**\n", out.Score)
	r.Println("")

	if len(out.Recommendations) > 0 {
		r.Println("## Recommendations")
		r.Println("")
		for i, rec := range out.Recommendations {
			r.Printf("%d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}
