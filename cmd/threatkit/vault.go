package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"threatkit/internal/outputter"
	"threatkit/internal/vault"
)

func newVaultCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vault",
		Short: "Audit and tidy the attachment folder of an Obsidian vault",
	}
	cmd.AddCommand(newVaultMissingCmd(c))
	cmd.AddCommand(newVaultRenameCmd(c))
	return cmd
}

func newVaultMissingCmd(c *cli) *cobra.Command {
	var folder string

	cmd := &cobra.Command{
		Use:   "missing <vault>",
		Short: "List attachments that no note references",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if folder == "" {
				folder = c.toolkit.Config().Vault.Folder
			}
			return c.runVaultMissing(args[0], folder)
		},
	}
	cmd.Flags().StringVar(&folder, "folder", "", "Attachment folder inside the vault (default from config: Files)")
	return cmd
}

func (c *cli) runVaultMissing(vaultPath, folder string) error {
	missing, err := vault.FindMissingImages(vaultPath, folder)
	if errors.Is(err, vault.ErrFolderNotFound) {
		// A missing folder is reported, not failed
		fmt.Fprintf(c.out, "Error: %v\n", err)
		missing = []string{}
	} else if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Found %d missing images.\n", len(missing))
	if len(missing) > 0 {
		outputter.PrintList(c.out, "Missing images:", missing)
	}
	return nil
}

func newVaultRenameCmd(c *cli) *cobra.Command {
	var (
		folder string
		suffix string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "rename <vault>",
		Short: "Rename every attachment by appending a suffix before its extension",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.toolkit.Config().Vault
			if folder == "" {
				folder = cfg.Folder
			}
			if !cmd.Flags().Changed("suffix") {
				suffix = cfg.RenameSuffix
			}
			return c.runVaultRename(args[0], folder, suffix, dryRun)
		},
	}
	cmd.Flags().StringVar(&folder, "folder", "", "Attachment folder inside the vault (default from config: Files)")
	cmd.Flags().StringVar(&suffix, "suffix", "", "Suffix inserted before the extension (default from config: _renamed)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the renames without applying them")
	return cmd
}

func (c *cli) runVaultRename(vaultPath, folder, suffix string, dryRun bool) error {
	renames, err := vault.RenameImages(vaultPath, folder, vault.SuffixRule(suffix), dryRun)
	if err != nil {
		return err
	}

	applied := 0
	for _, r := range renames {
		if r.Skipped != "" {
			fmt.Fprintf(c.out, "  skip %s (%s)\n", r.From, r.Skipped)
			continue
		}
		applied++
		fmt.Fprintf(c.out, "  %s -> %s\n", r.From, r.To)
	}

	verb := "Renamed"
	if dryRun {
		verb = "Would rename"
	}
	fmt.Fprintf(c.out, "%s %d of %d files.\n", verb, applied, len(renames))
	return nil
}
