package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"pricing-audit-service/internal/formatters"
	"pricing-audit-service/internal/loaders"
	"pricing-audit-service/internal/logger"
	"pricing-audit-service/internal/matcher"
	"pricing-audit-service/internal/storage"
)

var (
	// Input flags
	discountFile  string
	auditFiles    []string
	auditSheet    string
	matcherConfig string
	schemeLimit   int

	// Output flags
	outputFormats string // Comma-separated: text,json,html,xlsx
	jsonFile      string
	htmlFile      string
	xlsxFile      string
	maxRows       int
	watchInputs   bool

	// S3 flags
	auditS3Upload bool
	auditS3Bucket string
	auditS3Prefix string
	auditS3Region string
	auditRunID    string
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Match vehicle sales records against discount schemes",
	Long: `Match every record of one or more audit workbooks against the scheme
descriptions of a discount workbook. Each record is annotated with the first
scheme it qualifies for, or "Not Matched".

Examples:
  # Text summary to the console (default)
  pricing-audit audit --discount-file schemes.xlsx --audit-file sales.xlsx

  # Several audit files with JSON, HTML and annotated XLSX output
  pricing-audit audit \
    --discount-file schemes.xlsx \
    --audit-file north.xlsx --audit-file south.xlsx \
    --output json,html,xlsx \
    --json-file audit.json --html-file audit.html --xlsx-file audit.xlsx

  # Re-run whenever an input workbook changes
  pricing-audit audit --discount-file schemes.xlsx --audit-file sales.xlsx --watch`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAudit(cmd)
	},
}

func init() {
	auditCmd.Flags().StringVarP(&discountFile, "discount-file", "d", "", "Discount schemes workbook (.xlsx)")
	auditCmd.Flags().StringArrayVarP(&auditFiles, "audit-file", "a", nil, "Audit workbook with Model, Fuel Type and Variant columns (repeatable)")
	auditCmd.Flags().StringVar(&auditSheet, "sheet", "", "Audit sheet name (default: first sheet)")
	auditCmd.Flags().StringVarP(&matcherConfig, "matcher-config", "m", "", "Matcher rules file (or MATCHER_CONFIG env var)")
	auditCmd.Flags().IntVar(&schemeLimit, "scheme-limit", matcher.DefaultSchemeLimit, "Number of leading scheme rows to evaluate (0 = all)")

	auditCmd.Flags().StringVarP(&outputFormats, "output", "o", "text", "Output formats (comma-separated): text,json,html,xlsx")
	auditCmd.Flags().StringVar(&jsonFile, "json-file", "", "JSON output file path")
	auditCmd.Flags().StringVar(&htmlFile, "html-file", "", "HTML output file path")
	auditCmd.Flags().StringVar(&xlsxFile, "xlsx-file", "", "Annotated XLSX output file path")
	auditCmd.Flags().IntVar(&maxRows, "max-rows", 50, "Records listed per file in text output (0 = all)")
	auditCmd.Flags().BoolVarP(&watchInputs, "watch", "w", false, "Re-run the audit when an input workbook changes")

	auditCmd.Flags().BoolVar(&auditS3Upload, "s3-upload", false, "Upload audit results to S3")
	auditCmd.Flags().StringVar(&auditS3Bucket, "s3-bucket", "", "S3 bucket name (or use S3_BUCKET env var)")
	auditCmd.Flags().StringVar(&auditS3Prefix, "s3-prefix", "", "S3 key prefix/path (or use S3_PREFIX env var)")
	auditCmd.Flags().StringVar(&auditS3Region, "s3-region", "", "AWS region (or use AWS_REGION env var)")
	auditCmd.Flags().StringVar(&auditRunID, "run-id", "", "Run ID for uploaded results (default: timestamp + short id)")
}

func runAudit(cmd *cobra.Command) error {
	if discountFile == "" {
		return fmt.Errorf("--discount-file is required")
	}
	if len(auditFiles) == 0 {
		return fmt.Errorf("at least one --audit-file is required")
	}

	formats := parseOutputFormats(outputFormats)
	if err := validateAuditFormats(formats); err != nil {
		return err
	}

	cfg, cfgPath, err := loadMatcherConfig(cmd)
	if err != nil {
		return err
	}
	m, err := matcher.New(cfg, appLog)
	if err != nil {
		return err
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	run := func() error {
		return auditOnce(ctx, cmd.OutOrStdout(), m, formats, cfgPath)
	}
	if err := run(); err != nil {
		if !watchInputs {
			return err
		}
		appLog.Error("Audit failed", logger.Error(err))
	}
	if !watchInputs {
		return nil
	}

	inputs := append([]string{discountFile}, auditFiles...)
	return watchFiles(ctx, inputs, func() {
		if err := run(); err != nil {
			appLog.Error("Audit failed", logger.Error(err))
		}
	})
}

// loadMatcherConfig resolves the matcher rules file: flag, then config,
// then built-in defaults. --scheme-limit wins over the file when set.
func loadMatcherConfig(cmd *cobra.Command) (matcher.Config, string, error) {
	path := matcherConfig
	if path == "" && appConfig != nil {
		path = appConfig.Matcher.ConfigPath
	}

	cfg := matcher.DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = matcher.LoadConfig(path); err != nil {
			return cfg, path, err
		}
	}
	if cmd.Flags().Changed("scheme-limit") {
		if schemeLimit < 0 {
			return cfg, path, fmt.Errorf("--scheme-limit must not be negative")
		}
		cfg.SchemeLimit = schemeLimit
	}
	return cfg, path, nil
}

func validateAuditFormats(formats []string) error {
	if len(formats) == 0 {
		return fmt.Errorf("at least one output format must be specified")
	}
	for _, format := range formats {
		switch format {
		case "text":
		case "json":
			if jsonFile == "" && !contains(formats, "text") {
				return fmt.Errorf("--json-file is required when using --output json (or include 'text' for console output)")
			}
		case "html":
			if htmlFile == "" {
				return fmt.Errorf("--html-file is required when using --output html")
			}
		case "xlsx":
			if xlsxFile == "" {
				return fmt.Errorf("--xlsx-file is required when using --output xlsx")
			}
		default:
			return fmt.Errorf("unknown output format: %s. Valid formats: text, json, html, xlsx", format)
		}
	}
	return nil
}

func auditOnce(ctx context.Context, out io.Writer, m *matcher.Matcher, formats []string, cfgPath string) error {
	start := time.Now()
	reports, err := auditBatch(ctx, m, discountFile, auditFiles, auditSheet)
	if err != nil {
		return err
	}

	runID := auditRunID
	if runID == "" {
		runID = storage.NewRunID(start)
	}

	if err := writeAuditOutputs(out, runID, reports, formats); err != nil {
		return err
	}

	if auditS3Upload {
		if err := uploadAudit(ctx, runID, reports, formats, cfgPath); err != nil {
			return err
		}
	}

	appLog.Info("Audit complete",
		logger.String("run_id", runID),
		logger.Int("files", len(reports)),
		logger.String("duration", time.Since(start).Round(time.Millisecond).String()),
	)
	return nil
}

// auditBatch parses the schemes once and matches every audit file against
// them concurrently. Reports keep the order of files.
func auditBatch(ctx context.Context, m *matcher.Matcher, schemesPath string, files []string, sheet string) ([]formatters.AuditReport, error) {
	schemes, err := loaders.LoadSchemes(schemesPath, loaders.SchemeOptionsFrom(m.Config()))
	if err != nil {
		return nil, fmt.Errorf("failed to load schemes from %s: %w", schemesPath, err)
	}
	rules, skipped := m.ParseSchemes(schemes)
	appLog.Info("Loaded discount schemes",
		logger.String("file", filepath.Base(schemesPath)),
		logger.Int("rules", len(rules)),
		logger.Int("skipped", skipped),
	)

	now := time.Now()
	reports := make([]formatters.AuditReport, len(files))
	g, ctx := errgroup.WithContext(ctx)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			records, err := loaders.LoadVehicleRecords(file, sheet, m.Normalizer())
			if err != nil {
				return fmt.Errorf("failed to load audit records from %s: %w", file, err)
			}
			res := m.Apply(rules, records)
			res.SkippedSchemes = skipped
			reports[i] = formatters.NewAuditReport(schemesPath, file, res, now)

			appLog.Info("Matched audit file",
				logger.String("file", filepath.Base(file)),
				logger.Int("records", len(res.Records)),
				logger.Int("matched", res.MatchedCount()),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func writeAuditOutputs(out io.Writer, runID string, reports []formatters.AuditReport, formats []string) error {
	for _, format := range formats {
		switch format {
		case "text":
			if err := formatters.AuditText(out, reports, maxRows); err != nil {
				return fmt.Errorf("failed to write text report: %w", err)
			}
		case "json":
			if jsonFile == "" {
				if err := formatters.AuditJSON(out, runID, reports); err != nil {
					return err
				}
				continue
			}
			if err := writeFile(jsonFile, func(w io.Writer) error { return formatters.AuditJSON(w, runID, reports) }); err != nil {
				return err
			}
			fmt.Fprintf(out, "JSON report saved to %s\n", jsonFile)
		case "html":
			if err := writeFile(htmlFile, func(w io.Writer) error { return formatters.AuditHTML(w, runID, reports) }); err != nil {
				return err
			}
			fmt.Fprintf(out, "HTML report saved to %s\n", htmlFile)
		case "xlsx":
			if err := writeFile(xlsxFile, func(w io.Writer) error { return formatters.AuditXLSX(w, reports) }); err != nil {
				return err
			}
			fmt.Fprintf(out, "XLSX export saved to %s\n", xlsxFile)
		}
	}
	return nil
}

func uploadAudit(ctx context.Context, runID string, reports []formatters.AuditReport, formats []string, cfgPath string) error {
	bucket, prefix, region := auditS3Bucket, auditS3Prefix, auditS3Region
	if appConfig != nil {
		if bucket == "" {
			bucket = appConfig.Storage.S3.Bucket
		}
		if prefix == "" {
			prefix = appConfig.Storage.S3.Prefix
		}
		if region == "" {
			region = appConfig.Storage.S3.Region
		}
	}
	if bucket == "" {
		return fmt.Errorf("--s3-bucket or S3_BUCKET is required with --s3-upload")
	}

	client, err := storage.NewS3Client(bucket, prefix, region)
	if err != nil {
		return fmt.Errorf("failed to create S3 client: %w", err)
	}

	manifest := &storage.AuditManifest{
		DiscountFile:  filepath.Base(discountFile),
		MatcherConfig: cfgPath,
	}
	for _, r := range reports {
		manifest.AuditFiles = append(manifest.AuditFiles, filepath.Base(r.AuditFile))
		manifest.TotalRecords += r.TotalRecords
		manifest.Matched += r.Matched
		manifest.Unmatched += r.Unmatched
		manifest.SchemeCount = len(r.Schemes)
	}

	uploadFormats := formats
	if contains(formats, "json") && jsonFile == "" {
		uploadFormats = without(formats, "json")
	}
	_, err = storage.UploadAuditResults(ctx, client, storage.AuditUploadConfig{
		RunID:         runID,
		JSONFile:      jsonFile,
		HTMLFile:      htmlFile,
		XLSXFile:      xlsxFile,
		OutputFormats: uploadFormats,
		Manifest:      manifest,
	}, appLog)
	if err != nil {
		return fmt.Errorf("failed to upload audit results: %w", err)
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// parseOutputFormats parses comma-separated output formats
func parseOutputFormats(formats string) []string {
	if formats == "" {
		return []string{"text"}
	}

	var result []string
	for _, part := range strings.Split(formats, ",") {
		trimmed := strings.ToLower(strings.TrimSpace(part))
		if trimmed != "" && !contains(result, trimmed) {
			result = append(result, trimmed)
		}
	}
	return result
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func without(slice []string, item string) []string {
	var out []string
	for _, s := range slice {
		if s != item {
			out = append(out, s)
		}
	}
	return out
}
