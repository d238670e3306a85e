package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/Bishwas-py/fymo/internal/config"
	"github.com/Bishwas-py/fymo/internal/router"
)

var doctorFormat string

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose the project and its toolchain",
	Long: `Check the current project and development environment for common
problems:

- fymo.yml present and parseable
- routing table loads and every routed template exists
- the configured JavaScript runtime is installed
- svelte and esbuild resolve from node_modules
- the client runtime bundle has been built

Examples:
  fymo doctor                      # Full diagnosis
  fymo doctor --format json        # Output as JSON for tooling`,
	RunE:         runDoctor,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(doctorCmd)

	doctorCmd.Flags().StringVarP(&doctorFormat, "format", "f", "table", "Output format (table|json)")
}

// DiagnosticResult is the outcome of one doctor check.
type DiagnosticResult struct {
	Name       string `json:"name"`
	Status     string `json:"status"` // "ok", "warning", "error"
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// DoctorReport is the complete diagnosis.
type DoctorReport struct {
	Results []DiagnosticResult `json:"results"`
	Summary ReportSummary      `json:"summary"`
}

// ReportSummary counts results by status.
type ReportSummary struct {
	OK       int `json:"ok"`
	Warnings int `json:"warnings"`
	Errors   int `json:"errors"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	root, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolving project root: %w", err)
	}

	// Doctor must report on broken configurations rather than die on them,
	// so a failed load falls back to defaults for the toolchain checks.
	cfg, err := config.Load()
	if err != nil {
		cfg = fallbackConfig()
	}

	report := diagnose(root, cfg)

	if doctorFormat == "json" {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(report); err != nil {
			return err
		}
	} else {
		printReport(cmd.OutOrStdout(), report)
	}

	if report.Summary.Errors > 0 {
		return fmt.Errorf("doctor found %d problems", report.Summary.Errors)
	}
	return nil
}

func diagnose(root string, cfg *config.Config) *DoctorReport {
	report := &DoctorReport{}
	report.add(checkConfig(root))
	report.add(checkRoutes(root, cfg))
	report.add(checkCommand(cfg))
	report.add(checkNodePackage(root, "svelte", "the component compiler"))
	report.add(checkNodePackage(root, "esbuild", "runtime bundling"))
	report.add(checkRuntimeBundle(root, cfg))
	return report
}

func (r *DoctorReport) add(result DiagnosticResult) {
	r.Results = append(r.Results, result)
	switch result.Status {
	case "ok":
		r.Summary.OK++
	case "warning":
		r.Summary.Warnings++
	case "error":
		r.Summary.Errors++
	}
}

// checkConfig parses fymo.yml leniently, so unknown keys never fail the
// check the way a strict config load would.
func checkConfig(root string) DiagnosticResult {
	result := DiagnosticResult{Name: "config"}

	raw, err := os.ReadFile(filepath.Join(root, "fymo.yml"))
	if err != nil {
		result.Status = "error"
		result.Message = "fymo.yml not found"
		result.Suggestion = "run: fymo init"
		return result
	}

	var doc map[string]interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("fymo.yml is not valid YAML: %v", err)
		return result
	}

	result.Status = "ok"
	if name, ok := doc["name"].(string); ok && name != "" {
		result.Message = fmt.Sprintf("fymo.yml parsed (name: %s)", name)
	} else {
		result.Message = "fymo.yml parsed"
	}
	return result
}

func checkRoutes(root string, cfg *config.Config) DiagnosticResult {
	result := DiagnosticResult{Name: "routes"}

	routes, err := router.Load(filepath.Join(root, "fymo.yml"))
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("routing table failed to load: %v", err)
		return result
	}

	var missing []string
	for _, route := range routes.Routes() {
		templatePath := filepath.Join(root, cfg.Paths.Templates, filepath.FromSlash(route.Identity()))
		if _, err := os.Stat(templatePath); err != nil {
			missing = append(missing, route.Identity())
		}
	}

	total := len(routes.Routes())
	if len(missing) > 0 {
		result.Status = "warning"
		result.Message = fmt.Sprintf("%d of %d routed templates missing: %s", len(missing), total, strings.Join(missing, ", "))
		result.Suggestion = "run: fymo generate component <name>"
		return result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("%d routes, all templates present", total)
	return result
}

func checkCommand(cfg *config.Config) DiagnosticResult {
	result := DiagnosticResult{Name: "runtime"}

	path, err := exec.LookPath(cfg.Build.Command)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("%s not found in PATH", cfg.Build.Command)
		result.Suggestion = "install Node.js 18+ or set build.command in fymo.yml"
		return result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("%s found at %s", cfg.Build.Command, path)
	return result
}

func checkNodePackage(root, pkg, purpose string) DiagnosticResult {
	result := DiagnosticResult{Name: pkg}

	manifest := filepath.Join(root, "node_modules", pkg, "package.json")
	raw, err := os.ReadFile(manifest)
	if err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("%s not found in node_modules (%s)", pkg, purpose)
		result.Suggestion = "run: npm install"
		return result
	}

	var meta struct {
		Version string `json:"version"`
	}
	result.Status = "ok"
	if err := json.Unmarshal(raw, &meta); err == nil && meta.Version != "" {
		result.Message = fmt.Sprintf("%s %s installed", pkg, meta.Version)
	} else {
		result.Message = fmt.Sprintf("%s installed", pkg)
	}
	return result
}

func checkRuntimeBundle(root string, cfg *config.Config) DiagnosticResult {
	result := DiagnosticResult{Name: "bundle"}

	path := filepath.Join(root, cfg.Paths.RuntimeBundle)
	if _, err := os.Stat(path); err != nil {
		result.Status = "warning"
		result.Message = fmt.Sprintf("client runtime bundle missing at %s", filepath.ToSlash(cfg.Paths.RuntimeBundle))
		result.Suggestion = "run: fymo build-runtime"
		return result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("client runtime bundled at %s", filepath.ToSlash(cfg.Paths.RuntimeBundle))
	return result
}

func printReport(out io.Writer, report *DoctorReport) {
	fmt.Fprintln(out, "🔍 Fymo Environment Doctor")
	fmt.Fprintln(out, "==========================")
	fmt.Fprintln(out)

	for _, result := range report.Results {
		fmt.Fprintf(out, "  %s %-8s %s\n", statusIcon(result.Status), result.Name, result.Message)
		if result.Suggestion != "" {
			fmt.Fprintf(out, "      → %s\n", result.Suggestion)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Summary: %d ok, %d warnings, %d errors\n",
		report.Summary.OK, report.Summary.Warnings, report.Summary.Errors)
}

func statusIcon(status string) string {
	switch status {
	case "ok":
		return "✅"
	case "warning":
		return "⚠️"
	case "error":
		return "❌"
	default:
		return "•"
	}
}

// fallbackConfig supplies path and toolchain defaults when the real
// configuration cannot load.
func fallbackConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Build.Command = "node"
	cfg.Paths.Templates = filepath.Join("app", "templates")
	cfg.Paths.Static = filepath.Join("app", "static")
	cfg.Paths.Data = filepath.Join("app", "data")
	cfg.Paths.RuntimeBundle = filepath.Join("dist", "svelte-runtime.js")
	return cfg
}
