// Package testutil holds helpers shared by cranio's tests.
package testutil

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"runtime"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/ayoisaiah/cranio/internal/osutil"
)

// GoldenTest is a test case whose output is checked against a golden file.
type GoldenTest interface {
	Output() ([]byte, string)
}

// CompareGoldenFile verifies that the output of an operation matches
// testdata/<name>.golden. Run the tests with -update to rewrite the files.
func CompareGoldenFile(t *testing.T, tc GoldenTest) {
	t.Helper()

	out, name := tc.Output()

	AssertGolden(t, name, out)
}

// AssertGolden compares out against testdata/<name>.golden.
func AssertGolden(t *testing.T, name string, out []byte) {
	t.Helper()

	if runtime.GOOS == osutil.Windows {
		out = bytes.ReplaceAll(out, []byte("\r\n"), []byte("\n"))
	}

	g := goldie.New(
		t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden"),
	)

	g.Assert(t, name, out)
}

// CopyFile copies src to dst, replacing dst if it exists.
func CopyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source file: %w", err)
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating destination file: %w", err)
	}
	defer destFile.Close()

	_, err = io.Copy(destFile, sourceFile)
	if err != nil {
		return fmt.Errorf("copying file: %w", err)
	}

	return nil
}
