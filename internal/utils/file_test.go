package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestIsImageFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"photo.JPG", true},
		{"photo.jpeg", true},
		{"scan.TIF", true},
		{"logo.webp", true},
		{"anim.gif", false},
		{"notes.txt", false},
		{"png", false},
	}

	for _, tt := range tests {
		if got := IsImageFile(tt.name); got != tt.want {
			t.Errorf("IsImageFile(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}

	if !IsImageFile("a.PNG", ".png") || IsImageFile("a.jpg", "png") {
		t.Error("Explicit extension list not honored")
	}
}

func TestGenerateOutputFilename(t *testing.T) {
	tests := []struct {
		input, dir, prefix, ext string
		want                    string
	}{
		{"/in/photo.JPG", "/out", "gk_", "jpeg", filepath.Join("/out", "gk_photo.jpeg")},
		{"pic.tar.png", "out", "", "webp", filepath.Join("out", "pic.tar.webp")},
		{"raw", "out", "p_", "", filepath.Join("out", "p_raw.png")},
		{"a.bmp", "", "x", "", "xa.bmp"},
	}

	for _, tt := range tests {
		if got := GenerateOutputFilename(tt.input, tt.dir, tt.prefix, tt.ext); got != tt.want {
			t.Errorf("GenerateOutputFilename(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestListImageFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "A.JPG", "c.txt", "d.webp"} {
		touch(t, filepath.Join(dir, name))
	}
	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	touch(t, filepath.Join(sub, "e.png"))

	files, err := ListImageFiles(dir)
	if err != nil {
		t.Fatalf("ListImageFiles failed: %v", err)
	}

	want := []string{
		filepath.Join(dir, "A.JPG"),
		filepath.Join(dir, "b.png"),
		filepath.Join(dir, "d.webp"),
	}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Errorf("ListImageFiles mismatch (-want +got):\n%s", diff)
	}

	only, err := ListImageFiles(dir, "webp")
	if err != nil || len(only) != 1 {
		t.Errorf("Expected one webp file, got %v, %v", only, err)
	}

	if _, err := ListImageFiles(filepath.Join(dir, "missing")); err == nil {
		t.Error("Expected error for missing directory")
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deep", "out.png")

	if err := WriteFileAtomic(path, []byte("first")); err != nil {
		t.Fatalf("WriteFileAtomic failed: %v", err)
	}
	if err := WriteFileAtomic(path, []byte("second")); err != nil {
		t.Fatalf("WriteFileAtomic overwrite failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "second" {
		t.Errorf("Expected latest content, got %q", data)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("Expected no leftover temp files, found %d entries", len(entries))
	}
}

func TestFileAndDirExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.png")
	touch(t, file)

	if !FileExists(file) || FileExists(dir) || FileExists(filepath.Join(dir, "nope")) {
		t.Error("FileExists returned unexpected result")
	}
	if !DirExists(dir) || DirExists(file) {
		t.Error("DirExists returned unexpected result")
	}

	// Stat fails with ENOTDIR below a regular file
	below := filepath.Join(file, "config.json")
	if FileExists(below) || DirExists(below) {
		t.Error("Path below a regular file should not exist")
	}
}

func TestSanitizeFilename(t *testing.T) {
	if got := SanitizeFilename("a/b:c*"); got != "a_b_c_" {
		t.Errorf("SanitizeFilename = %q", got)
	}
	if got := SanitizeFilename(" ..hidden"); got != "hidden" {
		t.Errorf("SanitizeFilename = %q", got)
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}

	for _, tt := range tests {
		if got := FormatFileSize(tt.size); got != tt.want {
			t.Errorf("FormatFileSize(%d) = %q, want %q", tt.size, got, tt.want)
		}
	}
}
