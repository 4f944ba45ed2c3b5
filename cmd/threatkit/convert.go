package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"threatkit/internal/convert"
	"threatkit/internal/logging"
	"threatkit/internal/outputter"
)

func newConvertCmd(c *cli) *cobra.Command {
	var (
		file   string
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a data file between JSON, CSV and YAML",
		Long:  "Reads a JSON, CSV or YAML file (type taken from its extension) and writes it in another format next to the input, or to --out",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runConvert(file, format, out)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Input file (.json, .csv, .yaml or .yml)")
	cmd.Flags().StringVar(&format, "format", "", "Output format: json, csv or yaml")
	cmd.Flags().StringVar(&out, "out", "", "Output path or s3://bucket/key (default: input path with the new extension)")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("format")

	return cmd
}

func (c *cli) runConvert(file, formatName, out string) error {
	format, err := outputter.ParseFormat(formatName)
	if err != nil {
		return err
	}

	start := time.Now()
	logging.LogOperationStart("convert", map[string]interface{}{"path": file, "format": format})

	table, err := convert.Read(file)
	if err != nil {
		logging.LogOperationEnd("convert", time.Since(start), false, 0, 0, err)
		return err
	}
	data, err := convert.Write(table, format)
	if err != nil {
		logging.LogOperationEnd("convert", time.Since(start), false, table.Len(), 0, err)
		return fmt.Errorf("failed to write %s: %w", format, err)
	}

	if out == "" {
		out = convert.ReplaceExt(file, format)
	}
	err = c.save(out, data)
	logging.LogOperationEnd("convert", time.Since(start), err == nil, table.Len(), table.Len(), err)
	return err
}
