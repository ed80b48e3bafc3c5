package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/PentesterFlow/OpenScanner/internal/classifier"
	"github.com/PentesterFlow/OpenScanner/internal/finding"
	"github.com/PentesterFlow/OpenScanner/internal/logger"
	"github.com/PentesterFlow/OpenScanner/internal/metrics"
	"github.com/PentesterFlow/OpenScanner/internal/output"
	"github.com/PentesterFlow/OpenScanner/internal/progress"
	"github.com/PentesterFlow/OpenScanner/internal/shutdown"
	"github.com/PentesterFlow/OpenScanner/internal/signatures"
	"github.com/PentesterFlow/OpenScanner/pkg/scanner"
)

var version = "1.0.0"

// Exit codes.
const (
	exitOK            = 0
	exitUsage         = 1
	exitInvalidTarget = 2
	exitDown          = 3
)

var (
	// Global flags
	configFile string
	verbose    bool
	debug      bool
	logJSON    bool

	// Scan flags
	workers         int
	maxDepth        int
	maxPages        int
	timeout         int
	scanTimeout     int
	rateLimit       float64
	userAgent       string
	signaturesDir   string
	classifierKind  string
	diffThreshold   int
	outputFile      string
	format          string
	stream          bool
	portScan        bool
	noDirectories   bool
	includePatterns []string
	excludePatterns []string

	// Display flags
	showProgress bool
)

// exitError carries a process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func main() {
	rootCmd := &cobra.Command{
		Use:   "openscanner",
		Short: "OpenScanner - Web Application Security Scanner",
		Long: `OpenScanner - A safe-mode web application security scanner.

Crawls a single target, sends non-destructive XSS, SQL injection and path
traversal probes, fingerprints technologies against a CVE table, checks
transport and header hardening, and scores the overall risk.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	scanCmd := &cobra.Command{
		Use:   "scan [target]",
		Short: "Scan a target URL",
		Long:  "Scan a target URL and write a report of findings and the risk score.",
		Args:  cobra.ExactArgs(1),
		RunE:  runScan,
	}

	signaturesCmd := &cobra.Command{
		Use:   "signatures [dir]",
		Short: "Validate signature tables",
		Long:  "Load and validate the signature tables in dir (built-in tables when omitted) and print their sizes.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSignatures,
	}

	initCmd := &cobra.Command{
		Use:   "init-config [file]",
		Short: "Write the default configuration",
		Args:  cobra.ExactArgs(1),
		RunE:  runInitConfig,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Debug mode")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Log as JSON lines instead of console text")

	// Scan flags
	scanCmd.Flags().IntVarP(&workers, "workers", "w", 5, "Number of concurrent workers")
	scanCmd.Flags().IntVarP(&maxDepth, "max-depth", "d", 2, "Maximum crawl depth")
	scanCmd.Flags().IntVarP(&maxPages, "max-pages", "p", 50, "Maximum pages to crawl")
	scanCmd.Flags().IntVarP(&timeout, "timeout", "t", 10, "Request timeout in seconds")
	scanCmd.Flags().IntVar(&scanTimeout, "scan-timeout", 600, "Whole scan timeout in seconds (0 for none)")
	scanCmd.Flags().Float64VarP(&rateLimit, "rate-limit", "r", 10, "Requests per second (0 for unlimited)")
	scanCmd.Flags().StringVar(&userAgent, "user-agent", "", "User-Agent header")
	scanCmd.Flags().StringVar(&signaturesDir, "signatures", "", "Signature table directory (default: built-in)")
	scanCmd.Flags().StringVar(&classifierKind, "classifier", classifier.KindRules, "Form response classifier (rules, bayes)")
	scanCmd.Flags().IntVar(&diffThreshold, "diff-threshold", 0, "SQL length-differential threshold in bytes")
	scanCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	scanCmd.Flags().StringVarP(&format, "format", "f", output.FormatJSON, "Report format (json, yaml)")
	scanCmd.Flags().BoolVar(&stream, "stream", false, "Stream findings as they are recorded")
	scanCmd.Flags().BoolVar(&portScan, "ports", false, "Scan common TCP ports")
	scanCmd.Flags().BoolVar(&noDirectories, "no-directories", false, "Skip common path enumeration")
	scanCmd.Flags().StringArrayVar(&includePatterns, "include", nil, "URL patterns to include (regex)")
	scanCmd.Flags().StringArrayVar(&excludePatterns, "exclude", nil, "URL patterns to exclude (regex)")
	scanCmd.Flags().BoolVar(&showProgress, "progress", true, "Show progress on stderr")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(signaturesCmd)
	rootCmd.AddCommand(initCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(exitUsage)
	}
}

func newLogger() *logger.Logger {
	cfg := logger.DefaultConfig()
	cfg.Pretty = !logJSON
	switch {
	case debug:
		cfg.Level = logger.DebugLevel
	case verbose:
		cfg.Level = logger.InfoLevel
	default:
		cfg.Level = logger.WarnLevel
	}
	l := logger.New(cfg)
	logger.SetGlobal(l)
	return l
}

func buildConfig(cmd *cobra.Command) (*scanner.Config, error) {
	config := scanner.DefaultConfig()
	if configFile != "" {
		fileConfig, err := scanner.LoadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
		config = fileConfig
	}

	// Command-line flags take precedence over the file
	flags := cmd.Flags()
	if flags.Changed("workers") || configFile == "" {
		config.Workers = workers
		config.Probe.Workers = workers
	}
	if flags.Changed("max-depth") || configFile == "" {
		config.MaxDepth = maxDepth
	}
	if flags.Changed("max-pages") || configFile == "" {
		config.MaxPages = maxPages
	}
	if flags.Changed("timeout") || configFile == "" {
		config.RequestTimeout = time.Duration(timeout) * time.Second
	}
	if flags.Changed("scan-timeout") || configFile == "" {
		config.ScanTimeout = time.Duration(scanTimeout) * time.Second
	}
	if flags.Changed("rate-limit") || configFile == "" {
		config.RateLimit.RequestsPerSecond = rateLimit
	}
	if flags.Changed("user-agent") {
		config.UserAgent = userAgent
	}
	if flags.Changed("signatures") {
		config.SignaturesDir = signaturesDir
	}
	if flags.Changed("classifier") || configFile == "" {
		config.Classifier = classifierKind
	}
	if flags.Changed("diff-threshold") {
		config.Probe.DifferentialThreshold = diffThreshold
	}
	if flags.Changed("format") || configFile == "" {
		config.Output.Format = format
	}
	if flags.Changed("ports") {
		config.Checks.Ports = portScan
	}
	if noDirectories {
		config.Checks.Directories = false
	}
	if len(includePatterns) > 0 {
		config.Scope.IncludePatterns = includePatterns
	}
	if len(excludePatterns) > 0 {
		config.Scope.ExcludePatterns = append(config.Scope.ExcludePatterns, excludePatterns...)
	}
	if outputFile != "" {
		config.Output.FilePath = outputFile
	}
	if stream {
		config.Output.Stream = true
	}
	config.Verbose = verbose
	config.Debug = debug

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func runScan(cmd *cobra.Command, args []string) error {
	target := args[0]
	log := newLogger()

	config, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	var file *os.File
	if config.Output.FilePath != "" {
		file, err = os.Create(config.Output.FilePath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		out = file
	}
	writer, err := output.NewWriter(out, config.Output)
	if err != nil {
		return err
	}

	// progress goes to stderr and only when it cannot clash with log lines
	enableProgress := showProgress && !verbose && !debug
	var display *progress.Display
	if enableProgress {
		display = progress.New(os.Stderr)
		display.Start(target)
	}

	handler := shutdown.New(cmd.Context(), shutdown.Config{
		OnInterrupt: func(os.Signal) {
			fmt.Fprintf(os.Stderr, "\nReceived interrupt signal, finishing with partial results...\n")
		},
	})
	// callbacks run in reverse: flush, then close
	if file != nil {
		handler.RegisterFunc("close-output", func() { file.Close() })
	}
	handler.RegisterFunc("flush-output", func() {
		if err := writer.Flush(); err != nil {
			log.Warnf("flush output: %v", err)
		}
	})
	defer handler.Shutdown()

	opts := []scanner.Option{
		scanner.WithConfig(config),
		scanner.WithLogger(log),
	}
	if config.Output.Stream {
		opts = append(opts, scanner.WithFindingHook(func(f finding.Finding) {
			if err := writer.WriteFinding(&f); err != nil {
				log.Warnf("stream finding: %v", err)
			}
		}))
	}
	if display != nil {
		opts = append(opts, scanner.WithProgress(func(phase string, snap *metrics.Snapshot) {
			display.Update(phase, snap)
		}))
	}

	s, err := scanner.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create scanner: %w", err)
	}

	report := s.Scan(handler.Context(), target)

	if display != nil {
		display.Stop()
	}
	if err := writer.WriteReport(report); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if display != nil || config.Output.FilePath != "" {
		progress.New(os.Stderr).PrintSummary(progress.Summary{
			Target:    report.Target,
			Status:    string(report.Status),
			Score:     report.RiskScore,
			Level:     string(report.RiskLevel),
			Findings:  len(report.Findings),
			Severity:  report.SeveritySummary,
			Pages:     report.Stats.Pages,
			Partial:   report.Partial,
			Duration:  report.Duration(),
			ReportOut: config.Output.FilePath,
		})
	}

	switch report.Status {
	case scanner.StatusError:
		return &exitError{code: exitInvalidTarget, err: errors.New(report.Error)}
	case scanner.StatusDown:
		return &exitError{code: exitDown, err: errors.New(report.Error)}
	}
	return nil
}

func runSignatures(cmd *cobra.Command, args []string) error {
	newLogger()

	dir := ""
	if len(args) == 1 {
		dir = args[0]
	}
	tables, errs := signatures.Load(dir)

	source := dir
	if source == "" {
		source = "built-in"
	}
	st := tables.Stats()
	fmt.Printf("Signature tables: %s\n", source)
	fmt.Printf("  XSS payloads:       %d\n", st.XSSPayloads)
	fmt.Printf("  SQL payloads:       %d\n", st.SQLPayloads)
	fmt.Printf("  LFI payloads:       %d\n", st.LFIPayloads)
	fmt.Printf("  SQL error patterns: %d\n", st.SQLErrors)
	fmt.Printf("  Directories:        %d\n", st.Directories)
	fmt.Printf("  CMS:                %d\n", st.CMS)
	fmt.Printf("  Frameworks:         %d\n", st.Frameworks)
	fmt.Printf("  Servers:            %d\n", st.Servers)
	fmt.Printf("  JS libraries:       %d\n", st.Libraries)
	fmt.Printf("  CVE records:        %d\n", st.CVEs)

	if len(errs) > 0 {
		fmt.Println()
		fmt.Println("Problems:")
		for _, err := range errs {
			fmt.Printf("  %v\n", err)
		}
		return &exitError{code: exitUsage, err: fmt.Errorf("%d signature table problem(s)", len(errs))}
	}
	return nil
}

func runInitConfig(cmd *cobra.Command, args []string) error {
	if err := scanner.DefaultConfig().SaveToFile(args[0]); err != nil {
		return err
	}
	fmt.Printf("Default configuration written to %s\n", args[0])
	return nil
}
