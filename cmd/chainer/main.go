package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ormasoftchile/chainer/pkg/engine"
	"github.com/ormasoftchile/chainer/pkg/schema"
	"github.com/ormasoftchile/chainer/pkg/state"
	"github.com/ormasoftchile/chainer/pkg/tui"
)

// Version is set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	// .env is gitignored so local server commands and paths never end up
	// in source control. Missing file is fine.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "chainer",
	Short: "Tool orchestration engine",
	Long:  "chainer — register external tools, compose them into chains, and execute chains with variable substitution and conditional steps.",
}

// statePath resolves the state file location: CHAINER_STATE wins, otherwise
// ~/.chainer/state.json.
func statePath() string {
	if p := os.Getenv("CHAINER_STATE"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".chainer", "state.json")
	}
	return filepath.Join(home, ".chainer", "state.json")
}

func newEngine() *engine.Engine {
	return engine.New(state.NewStore(statePath()), nil)
}

// parseVarFlags turns repeated --var key=value flags into a map.
func parseVarFlags(flags []string) (map[string]string, error) {
	vars := make(map[string]string)
	for _, v := range flags {
		parts := strings.SplitN(v, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid --var %q: expected key=value", v)
		}
		vars[parts[0]] = parts[1]
	}
	return vars, nil
}

// --- register ---

var (
	registerServerCommand string
	registerToolName      string
	registerDescription   string
	registerOutputFormat  string
	registerTimeout       int
)

var registerCmd = &cobra.Command{
	Use:   "register [tool-id]",
	Short: "Register an external tool for use in chains",
	Args:  cobra.ExactArgs(1),
	RunE:  runRegister,
}

func runRegister(cmd *cobra.Command, args []string) error {
	eng := newEngine()
	msg, err := eng.RegisterTool(schema.ToolSpec{
		ToolID:         args[0],
		ServerCommand:  registerServerCommand,
		ToolName:       registerToolName,
		Description:    registerDescription,
		OutputFormat:   registerOutputFormat,
		TimeoutSeconds: registerTimeout,
	})
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

// --- discover ---

var discoverTimeout string

var discoverCmd = &cobra.Command{
	Use:   "discover [server-command]",
	Short: "List the tools a server exposes without registering them",
	Args:  cobra.ExactArgs(1),
	RunE:  runDiscover,
}

func runDiscover(cmd *cobra.Command, args []string) error {
	timeout, err := time.ParseDuration(discoverTimeout)
	if err != nil {
		return fmt.Errorf("invalid --timeout %q: %w", discoverTimeout, err)
	}

	eng := newEngine()
	out, err := eng.DiscoverTools(context.Background(), args[0], timeout)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

// --- chain ---

var chainCmd = &cobra.Command{
	Use:   "chain [chain.yaml]",
	Short: "Define a chain from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runChain,
}

func runChain(cmd *cobra.Command, args []string) error {
	c, errs := schema.ValidateChainFile(args[0])
	printValidationWarnings(errs)
	if hasValidationErrors(errs) {
		printValidationErrors(errs)
		return fmt.Errorf("chain validation failed")
	}

	eng := newEngine()
	msg, err := eng.DefineChain(*c)
	if err != nil {
		return err
	}
	fmt.Print(msg)
	return nil
}

// --- validate ---

var validateCmd = &cobra.Command{
	Use:   "validate [chain.yaml]",
	Short: "Validate a chain YAML file without defining it",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	c, errs := schema.ValidateChainFile(args[0])
	printValidationWarnings(errs)
	if hasValidationErrors(errs) {
		printValidationErrors(errs)
		return fmt.Errorf("validation failed with %d error(s)", countValidationErrors(errs))
	}
	fmt.Printf("✓ %s is valid (%d step(s))\n", c.ChainID, len(c.Steps))
	return nil
}

func hasValidationErrors(errs []*schema.ValidationError) bool {
	return countValidationErrors(errs) > 0
}

func countValidationErrors(errs []*schema.ValidationError) int {
	n := 0
	for _, e := range errs {
		if e.Severity != "warning" {
			n++
		}
	}
	return n
}

func printValidationWarnings(errs []*schema.ValidationError) {
	for _, e := range errs {
		if e.Severity == "warning" {
			fmt.Fprintf(os.Stderr, "  ⚠ [%s] %s\n", e.Phase, e.Message)
		}
	}
}

func printValidationErrors(errs []*schema.ValidationError) {
	fmt.Fprintf(os.Stderr, "Validation failed: %d error(s)\n", countValidationErrors(errs))
	for _, e := range errs {
		if e.Severity != "warning" {
			fmt.Fprintf(os.Stderr, "  [%s] %s\n", e.Phase, e.Message)
			if e.Path != "" {
				fmt.Fprintf(os.Stderr, "    at: %s\n", e.Path)
			}
		}
	}
}

// --- exec ---

var (
	execInput   string
	execVars    []string
	execTimeout string
)

var execCmd = &cobra.Command{
	Use:   "exec [chain-id]",
	Short: "Execute a defined chain",
	Args:  cobra.ExactArgs(1),
	RunE:  runExec,
}

func runExec(cmd *cobra.Command, args []string) error {
	vars, err := parseVarFlags(execVars)
	if err != nil {
		return err
	}

	var timeout time.Duration
	if execTimeout != "" {
		timeout, err = time.ParseDuration(execTimeout)
		if err != nil {
			return fmt.Errorf("invalid --timeout %q: %w", execTimeout, err)
		}
	}

	eng := newEngine()
	summary, err := eng.ExecuteChain(context.Background(), args[0], execInput, vars, timeout)
	if err != nil {
		return err
	}
	fmt.Print(summary)

	if recs := eng.History(1); len(recs) > 0 && !recs[0].Success {
		os.Exit(1)
	}
	return nil
}

// --- history ---

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past chain executions, most recent first",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	eng := newEngine()
	if historyJSON {
		data, err := json.MarshalIndent(eng.History(historyLimit), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	fmt.Print(eng.ShowHistory(historyLimit))
	return nil
}

// --- tui ---

var tuiLimit int

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse execution history interactively",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	eng := newEngine()
	m := tui.NewModel(eng.History(tuiLimit))
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// --- clear-cache ---

var clearCacheCmd = &cobra.Command{
	Use:   "clear-cache",
	Short: "Clear execution history (tools and chains are preserved)",
	Args:  cobra.NoArgs,
	RunE:  runClearCache,
}

func runClearCache(cmd *cobra.Command, args []string) error {
	eng := newEngine()
	msg, err := eng.ClearCache()
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

// --- list ---

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered tools and defined chains",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	eng := newEngine()

	toolSpecs := eng.Tools()
	fmt.Printf("Registered tools (%d):\n", len(toolSpecs))
	for _, spec := range toolSpecs {
		fmt.Printf("  %s -> %s via %q (timeout %ds)\n", spec.ToolID, spec.ToolName, spec.ServerCommand, spec.TimeoutSeconds)
		if spec.Description != "" {
			fmt.Printf("      %s\n", spec.Description)
		}
	}

	chains := eng.Chains()
	fmt.Printf("Defined chains (%d):\n", len(chains))
	for _, c := range chains {
		ids := make([]string, 0, len(c.Steps))
		for _, st := range c.Steps {
			ids = append(ids, st.ToolID)
		}
		fmt.Printf("  %s: %s\n", c.ChainID, strings.Join(ids, " -> "))
	}
	return nil
}

// --- schema ---

var schemaCmd = &cobra.Command{
	Use:   "schema [chain|tool]",
	Short: "Export the JSON Schema for chain or tool definitions",
	Args:  cobra.ExactArgs(1),
	RunE:  runSchema,
}

func runSchema(cmd *cobra.Command, args []string) error {
	var data []byte
	var err error
	switch args[0] {
	case "chain":
		data, err = schema.GenerateChainJSONSchema()
	case "tool":
		data, err = schema.GenerateToolSpecJSONSchema()
	default:
		return fmt.Errorf("unknown schema type %q — use 'chain' or 'tool'", args[0])
	}
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// --- info ---

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show engine counts and state file location",
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	eng := newEngine()
	fmt.Print(eng.ServerInfo())
	return nil
}

// --- version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("chainer %s (%s)\n", version, commit)
	},
}

func init() {
	registerCmd.Flags().StringVar(&registerServerCommand, "server-command", "", "Command line that launches the tool server (required)")
	registerCmd.Flags().StringVar(&registerToolName, "tool-name", "", "Name of the tool on the server (required)")
	registerCmd.Flags().StringVar(&registerDescription, "description", "", "Human-readable description")
	registerCmd.Flags().StringVar(&registerOutputFormat, "output-format", "", "Expected output format (default text)")
	registerCmd.Flags().IntVar(&registerTimeout, "timeout", 0, "Per-invocation timeout in seconds (default 30)")

	discoverCmd.Flags().StringVar(&discoverTimeout, "timeout", "30s", "Discovery timeout (e.g. 30s, 1m)")

	execCmd.Flags().StringVar(&execInput, "input", "", "Value bound to the INITIAL_INPUT variable")
	execCmd.Flags().StringArrayVar(&execVars, "var", nil, "Set a variable (key=value), repeatable")
	execCmd.Flags().StringVar(&execTimeout, "timeout", "", "Override the per-step timeout (e.g. 30s, 1m)")

	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "Maximum records to show (0 = all)")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Output records as structured JSON")

	tuiCmd.Flags().IntVar(&tuiLimit, "limit", 0, "Maximum records to load (0 = all)")

	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(chainCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(clearCacheCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(versionCmd)
}
