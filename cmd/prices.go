package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"pricing-audit-service/internal/config"
	"pricing-audit-service/internal/formatters"
	"pricing-audit-service/internal/loaders"
	"pricing-audit-service/internal/logger"
	"pricing-audit-service/internal/pricing"
	"pricing-audit-service/internal/storage"
)

var (
	priceListOutput string
	priceListCount  int

	priceFile     string
	priceSheet    string
	priceModel    string
	priceFuel     string
	priceVariant  string
	priceOutput   string
	priceHTMLFile string
)

var pricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "List, show and upload dated price lists",
	Long: `Work with price list workbooks named "PV Price List Master D. DD.MM.YYYY.xlsx".

The store is selected by storage.backend in the config (local, s3 or github).`,
}

var pricesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recent price lists in the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := priceStore()
		if err != nil {
			return err
		}
		names, err := store.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list price lists: %w", err)
		}

		n := priceListCount
		if n <= 0 && appConfig != nil {
			n = appConfig.Prices.Recent
		}
		files := loaders.RecentPriceLists(names, n)
		appLog.Debug("Listed price lists", logger.Int("stored", len(names)), logger.Int("shown", len(files)))

		switch priceListOutput {
		case "json":
			return formatters.PriceListJSON(cmd.OutOrStdout(), files)
		case "text", "":
			return formatters.PriceListText(cmd.OutOrStdout(), files)
		default:
			return fmt.Errorf("unknown output format: %s. Valid formats: text, json", priceListOutput)
		}
	},
}

var pricesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the price breakdown of a vehicle",
	Long: `Show the on-road price breakdown of one variant for individual and
corporate buyers. Leaving out --model, --fuel or --variant lists the
available choices at that level instead.

Examples:
  # Models in the newest price list
  pricing-audit prices show

  # Full breakdown from a specific list
  pricing-audit prices show --file "PV Price List Master D. 01.07.2025.xlsx" \
    --model "XUV 3XO" --fuel Petrol --variant AX5

  # HTML page of the breakdown
  pricing-audit prices show --model THAR --fuel Diesel --variant LX \
    --output html --html-file thar.html`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPricesShow(cmd)
	},
}

var pricesUploadCmd = &cobra.Command{
	Use:   "upload FILE",
	Short: "Upload a price list to the store",
	Long: `Upload a price list workbook. A file with the same name is replaced;
the backend keeps the previous version (git history or bucket versioning).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPricesUpload(cmd, args[0])
	},
}

func init() {
	pricesListCmd.Flags().StringVarP(&priceListOutput, "output", "o", "text", "Output format: text or json")
	pricesListCmd.Flags().IntVarP(&priceListCount, "count", "n", 0, "Number of price lists to show (default: prices.recent)")

	pricesShowCmd.Flags().StringVarP(&priceFile, "file", "f", "", "Price list name in the store or a local path (default: newest)")
	pricesShowCmd.Flags().StringVar(&priceSheet, "sheet", "", "Sheet to read (default: configured prices.sheets)")
	pricesShowCmd.Flags().StringVar(&priceModel, "model", "", "Vehicle model")
	pricesShowCmd.Flags().StringVar(&priceFuel, "fuel", "", "Fuel type")
	pricesShowCmd.Flags().StringVar(&priceVariant, "variant", "", "Variant")
	pricesShowCmd.Flags().StringVarP(&priceOutput, "output", "o", "text", "Output format: text, json or html")
	pricesShowCmd.Flags().StringVar(&priceHTMLFile, "html-file", "", "HTML output file path (default: stdout)")

	pricesCmd.AddCommand(pricesListCmd)
	pricesCmd.AddCommand(pricesShowCmd)
	pricesCmd.AddCommand(pricesUploadCmd)
}

func priceStore() (storage.PriceListStore, error) {
	cfg := appConfig
	if cfg == nil {
		cfg = &config.AppConfig{}
		cfg.SetDefaults()
	}
	return storage.NewPriceListStore(cfg.Storage, cfg.Prices.Dir, appLog)
}

func runPricesShow(cmd *cobra.Command) error {
	switch priceOutput {
	case "text", "json", "html":
	default:
		return fmt.Errorf("unknown output format: %s. Valid formats: text, json, html", priceOutput)
	}

	ctx := cmd.Context()
	path, name, cleanup, err := resolvePriceList(ctx, priceFile)
	if err != nil {
		return err
	}
	defer cleanup()

	rows, err := loadPriceRows(path)
	if err != nil {
		return err
	}
	catalog := pricing.NewCatalog(rows)
	appLog.Info("Loaded price list", logger.String("file", name), logger.Int("rows", catalog.Len()))

	out := cmd.OutOrStdout()
	switch {
	case priceModel == "":
		return printChoices(out, "Models", catalog.Models())
	case priceFuel == "" && len(catalog.FuelTypes(priceModel)) > 1:
		return printChoices(out, "Fuel types for "+priceModel, catalog.FuelTypes(priceModel))
	case priceVariant == "":
		return printChoices(out, "Variants for "+priceModel, catalog.Variants(priceModel, priceFuel))
	}

	row, err := catalog.Lookup(priceModel, priceFuel, priceVariant)
	if err != nil {
		return err
	}
	b, err := pricing.NewBreakdown(row)
	if err != nil {
		return err
	}
	b.Source = name

	switch priceOutput {
	case "json":
		return formatters.PriceJSON(out, b)
	case "html":
		if priceHTMLFile == "" {
			return formatters.PriceHTML(out, b)
		}
		if err := writeFile(priceHTMLFile, func(w io.Writer) error { return formatters.PriceHTML(w, b) }); err != nil {
			return err
		}
		fmt.Fprintf(out, "HTML report saved to %s\n", priceHTMLFile)
		return nil
	default:
		return formatters.PriceText(out, b)
	}
}

// resolvePriceList returns a local path for file. An existing local path is
// used as is; otherwise the file, or the newest price list when file is
// empty, is downloaded from the store into a temporary directory.
func resolvePriceList(ctx context.Context, file string) (string, string, func(), error) {
	noop := func() {}
	if file != "" {
		if _, err := os.Stat(file); err == nil {
			return file, filepath.Base(file), noop, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", "", noop, fmt.Errorf("failed to stat %s: %w", file, err)
		}
	}

	store, err := priceStore()
	if err != nil {
		return "", "", noop, err
	}

	name := file
	if name == "" {
		names, err := store.List(ctx)
		if err != nil {
			return "", "", noop, fmt.Errorf("failed to list price lists: %w", err)
		}
		recent := loaders.RecentPriceLists(names, 1)
		if len(recent) == 0 {
			return "", "", noop, fmt.Errorf("no price lists found in the store")
		}
		name = recent[0].Name
	}

	if local, ok := store.(*storage.LocalStore); ok {
		p := local.Path(name)
		if _, err := os.Stat(p); err != nil {
			return "", "", noop, fmt.Errorf("price list %s: %w", name, storage.ErrNotFound)
		}
		return p, filepath.Base(name), noop, nil
	}

	dir, err := os.MkdirTemp("", "price-list-*")
	if err != nil {
		return "", "", noop, fmt.Errorf("failed to create temp dir: %w", err)
	}
	cleanup := func() { os.RemoveAll(dir) }

	dst := filepath.Join(dir, filepath.Base(name))
	if err := store.Download(ctx, name, dst); err != nil {
		cleanup()
		return "", "", noop, fmt.Errorf("failed to download %s: %w", name, err)
	}
	appLog.Debug("Downloaded price list", logger.String("file", name))
	return dst, filepath.Base(name), cleanup, nil
}

// loadPriceRows reads --sheet, or every configured category sheet present
// in the workbook, falling back to the first sheet.
func loadPriceRows(path string) ([]pricing.PriceRow, error) {
	if priceSheet != "" {
		return loaders.LoadPriceSheet(path, priceSheet)
	}

	present, err := loaders.SheetNames(path)
	if err != nil {
		return nil, err
	}
	var wanted []string
	if appConfig != nil {
		wanted = appConfig.Prices.Sheets
	}

	var rows []pricing.PriceRow
	loaded := 0
	for _, sheet := range wanted {
		if !contains(present, sheet) {
			continue
		}
		r, err := loaders.LoadPriceSheet(path, sheet)
		if err != nil {
			return nil, err
		}
		rows = append(rows, r...)
		loaded++
	}
	if loaded == 0 {
		return loaders.LoadPriceSheet(path, "")
	}
	return rows, nil
}

func printChoices(w io.Writer, title string, choices []string) error {
	if len(choices) == 0 {
		return pricing.ErrNoPriceData
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, c := range choices {
		fmt.Fprintf(w, "  %s\n", c)
	}
	return nil
}

func runPricesUpload(cmd *cobra.Command, file string) error {
	if _, ok := loaders.ParsePriceListDate(file); !ok {
		return fmt.Errorf("%s: file name must look like \"PV Price List Master D. DD.MM.YYYY.xlsx\"", filepath.Base(file))
	}
	if _, err := loaders.SheetNames(file); err != nil {
		return err
	}

	store, err := priceStore()
	if err != nil {
		return err
	}
	loc, err := store.Upload(cmd.Context(), file)
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", filepath.Base(file), err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s to %s\n", filepath.Base(file), loc)
	return nil
}
