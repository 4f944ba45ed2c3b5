package vault

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestFindMissingImages(t *testing.T) {
	vault := t.TempDir()
	writeFile(t, filepath.Join(vault, "note.md"), "See ![[diagram.png]] for details.")
	writeFile(t, filepath.Join(vault, "Files", "diagram.png"), "png")
	writeFile(t, filepath.Join(vault, "Files", "orphan.png"), "png")

	got, err := FindMissingImages(vault, "Files")
	if err != nil {
		t.Fatalf("FindMissingImages() error = %v", err)
	}
	if diff := cmp.Diff([]string{"orphan.png"}, got); diff != "" {
		t.Errorf("FindMissingImages() mismatch (-want +got):\n%s", diff)
	}
}

func TestFindMissingImagesNestedNotesAndSubfolders(t *testing.T) {
	vault := t.TempDir()
	writeFile(t, filepath.Join(vault, "projects", "deep", "plan.md"), "![](../../Files/a.png)")
	writeFile(t, filepath.Join(vault, "readme.txt"), "b.png is mentioned outside markdown")
	writeFile(t, filepath.Join(vault, "Files", "a.png"), "")
	writeFile(t, filepath.Join(vault, "Files", "b.png"), "")
	writeFile(t, filepath.Join(vault, "Files", "nested", "c.png"), "")

	got, err := FindMissingImages(vault, "Files")
	if err != nil {
		t.Fatal(err)
	}
	// subdirectories of the folder are not scanned, non-markdown files do not count
	if diff := cmp.Diff([]string{"b.png"}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestFindMissingImagesNoneMissing(t *testing.T) {
	vault := t.TempDir()
	writeFile(t, filepath.Join(vault, "n.md"), "x.png")
	writeFile(t, filepath.Join(vault, "Files", "x.png"), "")

	got, err := FindMissingImages(vault, "Files")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got %#v, want empty non-nil slice", got)
	}
}

func TestFindMissingImagesFolderNotFound(t *testing.T) {
	_, err := FindMissingImages(t.TempDir(), "Files")
	if !errors.Is(err, ErrFolderNotFound) {
		t.Fatalf("error = %v, want ErrFolderNotFound", err)
	}
}

func TestSuffixRule(t *testing.T) {
	rule := SuffixRule("_renamed")
	tests := map[string]string{
		"shot.png":         "shot_renamed.png",
		"archive.tar.gz":   "archive.tar_renamed.gz",
		"noext":            "noext_renamed",
		"Pasted image.jp":  "Pasted image_renamed.jp",
		"done_renamed.png": "done_renamed.png",
	}
	for in, want := range tests {
		if got := rule(in); got != want {
			t.Errorf("SuffixRule(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRenameImages(t *testing.T) {
	vault := t.TempDir()
	dir := filepath.Join(vault, "Files")
	writeFile(t, filepath.Join(dir, "a.png"), "a")
	writeFile(t, filepath.Join(dir, "b.png"), "b")
	writeFile(t, filepath.Join(dir, "b_renamed.png"), "existing")

	renames, err := RenameImages(vault, "Files", SuffixRule("_renamed"), false)
	if err != nil {
		t.Fatalf("RenameImages() error = %v", err)
	}

	byName := make(map[string]Rename)
	for _, r := range renames {
		byName[r.From] = r
	}
	if r := byName["a.png"]; r.Skipped != "" || r.To != "a_renamed.png" {
		t.Errorf("a.png rename = %+v", r)
	}
	if r := byName["b.png"]; r.Skipped != "target exists" {
		t.Errorf("b.png rename = %+v, want skipped", r)
	}
	if r := byName["b_renamed.png"]; r.Skipped != "name unchanged" {
		t.Errorf("b_renamed.png rename = %+v, want skipped as already suffixed", r)
	}

	if _, err := os.Stat(filepath.Join(dir, "a_renamed.png")); err != nil {
		t.Errorf("a_renamed.png missing: %v", err)
	}
	if data, _ := os.ReadFile(filepath.Join(dir, "b_renamed.png")); string(data) != "existing" {
		t.Errorf("b_renamed.png was overwritten: %q", data)
	}
}

func TestRenameImagesRepeatedRunIsStable(t *testing.T) {
	vault := t.TempDir()
	dir := filepath.Join(vault, "Files")
	writeFile(t, filepath.Join(dir, "c.png"), "c")

	if _, err := RenameImages(vault, "Files", SuffixRule("_renamed"), false); err != nil {
		t.Fatal(err)
	}
	second, err := RenameImages(vault, "Files", SuffixRule("_renamed"), false)
	if err != nil {
		t.Fatal(err)
	}

	want := []Rename{{From: "c_renamed.png", To: "c_renamed.png", Skipped: "name unchanged"}}
	if diff := cmp.Diff(want, second); diff != "" {
		t.Errorf("second run mismatch (-want +got):\n%s", diff)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "c_renamed.png" {
		t.Errorf("folder after two runs = %v", entries)
	}
}

func TestFindMissingImagesFollowsSymlinks(t *testing.T) {
	vault := t.TempDir()
	elsewhere := filepath.Join(t.TempDir(), "shared.png")
	writeFile(t, elsewhere, "png")
	writeFile(t, filepath.Join(vault, "Files", "local.png"), "png")
	if err := os.Symlink(elsewhere, filepath.Join(vault, "Files", "linked.png")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if err := os.Symlink(filepath.Join(vault, "gone.png"), filepath.Join(vault, "Files", "broken.png")); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(vault, "note.md"), "![[local.png]]")

	got, err := FindMissingImages(vault, "Files")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"linked.png"}, got); diff != "" {
		t.Errorf("missing mismatch (-want +got):\n%s", diff)
	}
}

func TestRenameImagesDryRun(t *testing.T) {
	vault := t.TempDir()
	writeFile(t, filepath.Join(vault, "Files", "a.png"), "a")

	renames, err := RenameImages(vault, "Files", SuffixRule("_x"), true)
	if err != nil {
		t.Fatal(err)
	}
	if len(renames) != 1 || renames[0].To != "a_x.png" {
		t.Errorf("renames = %+v", renames)
	}
	if _, err := os.Stat(filepath.Join(vault, "Files", "a.png")); err != nil {
		t.Errorf("dry run touched the file: %v", err)
	}
}
