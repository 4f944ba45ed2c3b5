package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"threatkit/internal/convert"
	"threatkit/internal/domain"
	"threatkit/internal/logging"
	"threatkit/internal/mitre"
	"threatkit/internal/outputter"
)

const totalsPreview = 10

func newMitreCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mitre",
		Short: "Export MITRE ATT&CK techniques and tactics",
	}
	cmd.AddCommand(newMitreTechniquesCmd(c))
	cmd.AddCommand(newMitreFilterCmd(c))
	cmd.AddCommand(newMitreTacticsCmd(c))
	cmd.AddCommand(newMitreTotalsCmd(c))
	return cmd
}

// ============================================================================
// techniques
// ============================================================================

func newMitreTechniquesCmd(c *cli) *cobra.Command {
	var (
		format    string
		filename  string
		delimiter string
		version   string
	)

	cmd := &cobra.Command{
		Use:   "techniques",
		Short: "Export ID, Title and URL of every technique in the STIX feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runMitreTechniques(format, filename, delimiter, version)
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "Output format: json, yaml or csv")
	cmd.Flags().StringVar(&filename, "filename", "output", "Output file name without extension, or an s3:// prefix")
	cmd.Flags().StringVar(&delimiter, "delimiter", ",", "CSV delimiter")
	cmd.Flags().StringVar(&version, "version", "", "Feed branch or tag (default from config: master)")
	_ = cmd.MarkFlagRequired("format")
	return cmd
}

func (c *cli) runMitreTechniques(formatName, filename, delimiter, version string) error {
	format, err := outputter.ParseFormat(formatName)
	if err != nil {
		return err
	}
	delim, err := outputter.ParseDelimiter(delimiter)
	if err != nil {
		return err
	}

	start := time.Now()
	logging.LogOperationStart("export_techniques", map[string]interface{}{"version": version})

	bundle, err := c.toolkit.MITRE().FetchBundle(c.ctx, version)
	if err != nil {
		logging.LogOperationEnd("export_techniques", time.Since(start), false, 0, 0, err)
		return err
	}
	summaries, err := mitre.Summaries(bundle)
	if err != nil {
		logging.LogOperationEnd("export_techniques", time.Since(start), false, len(bundle.Objects), 0, err)
		return err
	}
	logging.LogOperationEnd("export_techniques", time.Since(start), true, len(bundle.Objects), len(summaries), nil)

	data, err := outputter.Encode(format, summaries, outputter.SummaryTable(summaries), outputter.Options{Delimiter: delim})
	if err != nil {
		return err
	}
	return c.save(filename+"."+string(format), data)
}

// ============================================================================
// filter
// ============================================================================

func newMitreFilterCmd(c *cli) *cobra.Command {
	var (
		pageURL     string
		filename    string
		format      string
		skipRevoked bool
	)

	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Export the techniques listed on a versioned attack.mitre.org page",
		Long:  "Scrapes technique IDs from a page such as https://attack.mitre.org/versions/v10/techniques/enterprise/, resolves the matching release of the STIX feed and exports those techniques with their tactics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runMitreFilter(pageURL, filename, format, skipRevoked)
		},
	}
	cmd.Flags().StringVar(&pageURL, "url", "", "Versioned techniques page URL")
	cmd.Flags().StringVar(&filename, "filename", "output", "Output file name without extension, or an s3:// prefix")
	cmd.Flags().StringVar(&format, "format", "yaml", "Output format: json, yaml or csv")
	cmd.Flags().BoolVar(&skipRevoked, "skip-revoked", false, "Drop revoked and deprecated techniques")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}

func (c *cli) runMitreFilter(pageURL, filename, formatName string, skipRevoked bool) error {
	format, err := outputter.ParseFormat(formatName)
	if err != nil {
		return err
	}

	result, err := c.toolkit.MITRE().FilterByPage(c.ctx, pageURL, skipRevoked)
	if err != nil {
		return err
	}
	logging.LogInfo("Resolved release", map[string]interface{}{
		"tag":     result.Tag,
		"version": result.Version,
		"scraped": result.Scraped,
	})
	fmt.Fprintf(c.out, "Total techniques after filtering: %d\n", len(result.Techniques.Mitre))

	data, err := outputter.Encode(format, result.Techniques, outputter.TechniqueTable(result.Techniques.Mitre), outputter.Options{})
	if err != nil {
		return err
	}
	return c.save(filename+"."+string(format), data)
}

// ============================================================================
// tactics / totals
// ============================================================================

func newMitreTacticsCmd(c *cli) *cobra.Command {
	var (
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "tactics <url>",
		Short: "Scrape the tactics table of an attack.mitre.org page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runMitreTactics(args[0], format, out)
		},
	}
	cmd.Flags().StringVar(&format, "format", string(domain.FormatText), "Output format: text, json, yaml or csv")
	cmd.Flags().StringVar(&out, "out", "", "Write to this path or s3:// key instead of stdout (not for text)")
	return cmd
}

func (c *cli) runMitreTactics(pageURL, formatName, out string) error {
	format, err := outputter.ParseFormat(formatName, domain.FormatText, domain.FormatJSON, domain.FormatYAML, domain.FormatCSV)
	if err != nil {
		return err
	}

	tactics, err := c.toolkit.MITRE().ScrapeTactics(c.ctx, pageURL)
	if err != nil {
		return err
	}

	if format == domain.FormatText {
		outputter.DisplayHeader(c.out, fmt.Sprintf("%d tactics", len(tactics)))
		outputter.PrintTactics(c.out, tactics)
		return nil
	}

	data, err := outputter.Encode(format, tactics, outputter.TacticTable(tactics), outputter.Options{})
	if err != nil {
		return err
	}
	if out != "" {
		return c.save(out, data)
	}
	_, err = c.out.Write(data)
	return err
}

func newMitreTotalsCmd(c *cli) *cobra.Command {
	var (
		limit int
		out   string
	)

	cmd := &cobra.Command{
		Use:   "totals <url>",
		Short: "Count the techniques and sub-techniques listed on an attack.mitre.org page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runMitreTotals(args[0], limit, out)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", totalsPreview, "Number of entries to print (negative prints all)")
	cmd.Flags().StringVar(&out, "out", "", "Also write every row to this .json, .yaml or .csv path or s3:// key")
	return cmd
}

func (c *cli) runMitreTotals(pageURL string, limit int, out string) error {
	var format domain.Format
	if out != "" {
		var err error
		if format, err = convert.TypeFromPath(out); err != nil {
			return err
		}
	}

	rows, err := c.toolkit.MITRE().ScrapeTechniques(c.ctx, pageURL)
	if err != nil {
		return err
	}
	outputter.PrintTechniqueTotals(c.out, rows, limit)
	if out == "" {
		return nil
	}

	data, err := outputter.Encode(format, rows, outputter.PageTechniqueTable(rows), outputter.Options{})
	if err != nil {
		return err
	}
	return c.save(out, data)
}
