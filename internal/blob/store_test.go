package blob

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFSStoreSave(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFSStore(dir)
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}

	url, err := s.Save("logo", "acme Logo.PNG", strings.NewReader("payload"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(url, "/media/logo/") || !strings.HasSuffix(url, ".png") {
		t.Fatalf("url = %q", url)
	}
	if strings.Contains(url, "acme") {
		t.Fatalf("original filename leaked into %q", url)
	}

	rel := strings.TrimPrefix(url, "/media/")
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("stored file: %v", err)
	}
	if string(data) != "payload" {
		t.Fatalf("stored content = %q", data)
	}
}

func TestFSStoreUniqueNames(t *testing.T) {
	s, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	a, _ := s.Save("image", "x.jpg", strings.NewReader("a"))
	b, _ := s.Save("image", "x.jpg", strings.NewReader("b"))
	if a == b {
		t.Fatalf("same name for two uploads: %q", a)
	}
}
