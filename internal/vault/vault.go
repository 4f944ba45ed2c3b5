// Package vault audits the attachment folder of an Obsidian vault.
package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"threatkit/internal/logging"
)

var ErrFolderNotFound = errors.New("folder does not exist")

// attachments lists the regular files directly inside dir, sorted by name.
// Symlinks count when their target is a regular file.
func attachments(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrFolderNotFound, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	var names []string
	for _, entry := range entries {
		if entry.Type()&fs.ModeSymlink != 0 {
			target, err := os.Stat(filepath.Join(dir, entry.Name()))
			if err != nil {
				logging.LogWarn("Skipping broken link", map[string]interface{}{"path": filepath.Join(dir, entry.Name()), "error": err.Error()})
				continue
			}
			if target.Mode().IsRegular() {
				names = append(names, entry.Name())
			}
			continue
		}
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// markdownFiles walks the vault for *.md files. Unreadable directories are
// logged and skipped.
func markdownFiles(vaultPath string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(vaultPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == vaultPath {
				return err
			}
			logging.LogWarn("Skipping unreadable path", map[string]interface{}{"path": path, "error": err.Error()})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".md") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk vault %s: %w", vaultPath, err)
	}
	return files, nil
}

// FindMissingImages returns the files in vault/folder that no markdown file in
// the vault mentions by name. A file counts as referenced when its name occurs
// anywhere in a note's text. Unreadable notes are logged and skipped.
func FindMissingImages(vaultPath, folder string) ([]string, error) {
	images, err := attachments(filepath.Join(vaultPath, folder))
	if err != nil {
		return nil, err
	}
	notes, err := markdownFiles(vaultPath)
	if err != nil {
		return nil, err
	}

	referenced := make(map[string]bool, len(images))
	for _, note := range notes {
		data, err := os.ReadFile(note)
		if err != nil {
			logging.LogWarn("Skipping unreadable note", map[string]interface{}{"path": note, "error": err.Error()})
			continue
		}
		content := string(data)
		for _, image := range images {
			if !referenced[image] && strings.Contains(content, image) {
				referenced[image] = true
			}
		}
	}

	missing := []string{}
	for _, image := range images {
		if !referenced[image] {
			missing = append(missing, image)
		}
	}
	logging.LogInfo(fmt.Sprintf("Found %d missing images", len(missing)), map[string]interface{}{
		"path":   vaultPath,
		"images": len(images),
		"notes":  len(notes),
	})
	return missing, nil
}

// RenameRule maps a file name to its new name
type RenameRule func(name string) string

// SuffixRule inserts suffix before the extension: shot.png -> shot_renamed.png.
// Names that already end in suffix are returned unchanged.
func SuffixRule(suffix string) RenameRule {
	return func(name string) string {
		ext := filepath.Ext(name)
		stem := strings.TrimSuffix(name, ext)
		if suffix == "" || strings.HasSuffix(stem, suffix) {
			return name
		}
		return stem + suffix + ext
	}
}

// Rename is one planned or applied rename
type Rename struct {
	From    string
	To      string
	Skipped string
}

// RenameImages renames every file in vault/folder by rule. Renames that would
// overwrite an existing file, or leave the name unchanged, are skipped and
// reported. With dryRun nothing is touched.
func RenameImages(vaultPath, folder string, rule RenameRule, dryRun bool) ([]Rename, error) {
	dir := filepath.Join(vaultPath, folder)
	images, err := attachments(dir)
	if err != nil {
		return nil, err
	}

	taken := make(map[string]bool, len(images))
	for _, name := range images {
		taken[name] = true
	}

	var out []Rename
	for _, name := range images {
		newName := rule(name)
		r := Rename{From: name, To: newName}
		switch {
		case newName == name || newName == "":
			r.Skipped = "name unchanged"
		case strings.ContainsRune(newName, filepath.Separator):
			r.Skipped = "new name contains a path separator"
		case taken[newName]:
			r.Skipped = "target exists"
		}
		if r.Skipped == "" && !dryRun {
			if err := os.Rename(filepath.Join(dir, name), filepath.Join(dir, newName)); err != nil {
				logging.LogError("Rename failed", err, map[string]interface{}{"path": filepath.Join(dir, name)})
				r.Skipped = err.Error()
			}
		}
		if r.Skipped == "" {
			delete(taken, name)
			taken[newName] = true
		}
		out = append(out, r)
	}
	return out, nil
}
