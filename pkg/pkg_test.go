package pkg

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestName(t *testing.T) {
	expected := "htlc"
	if Name != expected {
		t.Errorf("Expected Name to be %q, got %q", expected, Name)
	}
}

func TestDescription(t *testing.T) {
	if Description == "" {
		t.Error("Expected Description to be non-empty")
	}
}

func TestVersion(t *testing.T) {
	// Version is embedded from the VERSION file next to this test.
	buf, err := os.ReadFile("VERSION")
	if err != nil {
		t.Fatalf("Failed to read VERSION file: %v", err)
	}

	if content := strings.TrimSpace(string(buf)); Version != content {
		t.Errorf("Expected Version to be %q, got %q", content, Version)
	}
}

func TestAuthor(t *testing.T) {
	if len(Author) == 0 {
		t.Fatal("Expected Author to have at least one entry")
	}

	expectedName := "ardnew"
	expectedEmail := "andrew@ardnew.com"

	if !slices.ContainsFunc(Author, func(a AuthorInfo) bool {
		return a.Name == expectedName && a.Email == expectedEmail
	}) {
		t.Errorf("Expected Author to contain %q, %q", expectedName, expectedEmail)
	}

	for i, author := range Author {
		if author.Name == "" && author.Email == "" {
			t.Errorf("Author[%d] must define at least Name or Email", i)
		}
	}
}

func TestError_Chain(t *testing.T) {
	first := errors.New("a.yaml: unbalanced")
	second := io.ErrUnexpectedEOF

	err := ErrCompileFailed.Wrap(first, second)

	if got, want := err.Error(), "compilation failed: a.yaml: unbalanced: unexpected EOF"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	for _, target := range []error{ErrCompileFailed, first, second} {
		if !errors.Is(err, target) {
			t.Errorf("errors.Is(%v, %v) = false", err, target)
		}
	}

	if errors.Is(err, ErrNoSource) {
		t.Error("chain matched an unrelated sentinel")
	}

	if len(ErrCompileFailed) != 1 {
		t.Errorf("Wrap modified the sentinel: %v", ErrCompileFailed)
	}
}

func TestMakeError(t *testing.T) {
	if err := MakeError(nil, nil); err != nil {
		t.Errorf("MakeError(nil, nil) = %v, want nil", err)
	}

	wrapped := ErrInvalidFormat.Wrapf("got %q", "xml")
	chain := MakeError(wrapped)

	if len(chain) < 2 {
		t.Fatalf("MakeError did not flatten the chain: %v", chain)
	}

	if !errors.Is(chain, ErrInvalidFormat) {
		t.Errorf("flattened chain lost its sentinel: %v", chain)
	}
}

func TestPaths(t *testing.T) {
	prefix := Prefix()
	if prefix == "" || strings.HasPrefix(prefix, ".") {
		t.Errorf("Prefix() = %q", prefix)
	}

	for name, dir := range map[string]string{
		"config": ConfigDir(),
		"cache":  CacheDir(),
	} {
		if filepath.Base(dir) != prefix {
			t.Errorf("%s dir %q does not end in %q", name, dir, prefix)
		}
	}
}

func TestUserDir_Fallback(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	failing := func() (string, error) { return "", errors.New("unset") }

	if got, want := userDir(failing, ".hidden"), filepath.Join(home, ".hidden", Prefix()); got != want {
		t.Errorf("userDir = %q, want %q", got, want)
	}

	base := func() (string, error) { return "/base", nil }

	if got, want := userDir(base, ".hidden"), filepath.Join("/base", Prefix()); got != want {
		t.Errorf("userDir = %q, want %q", got, want)
	}
}
