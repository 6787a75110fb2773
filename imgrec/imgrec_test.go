package imgrec

import (
	"fmt"
	"os"
	"path"
	"testing"
	"time"
)

func today() string {
	now := time.Now()
	return fmt.Sprintf("%04d-%02d-%02d", now.Year(), now.Month(), now.Day())
}

func TestWriteLandsInDatedFolder(t *testing.T) {
	root := t.TempDir()
	r := &Recorder{Root: root, Prefix: "series"}
	if _, err := r.Write([]byte("abc")); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Write([]byte("def")); err != nil {
		t.Fatal(err)
	}
	fn := path.Join(root, today(), "series000000.fits")
	buf, err := os.ReadFile(fn)
	if err != nil {
		t.Fatal(err)
	}
	if string(buf) != "abcdef" {
		t.Errorf("file contents = %q, want appended writes", buf)
	}
}

func TestIncrSkipsExistingSerials(t *testing.T) {
	root := t.TempDir()
	fldr := path.Join(root, today())
	if err := os.MkdirAll(fldr, 0777); err != nil {
		t.Fatal(err)
	}
	for _, fn := range []string{"series000000.fits", "series000004.fits", "other000009.fits", "series.yaml"} {
		if err := os.WriteFile(path.Join(fldr, fn), nil, 0666); err != nil {
			t.Fatal(err)
		}
	}
	r := &Recorder{Root: root, Prefix: "series"}
	r.Incr()
	if _, err := r.Write([]byte("x")); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path.Join(fldr, "series000005.fits")); err != nil {
		t.Errorf("expected counter to advance past the largest serial: %v", err)
	}
}

func TestSidecarSharesBasename(t *testing.T) {
	root := t.TempDir()
	r := &Recorder{Root: root, Prefix: "series"}
	r.Incr()
	if _, err := r.Write([]byte("fits")); err != nil {
		t.Fatal(err)
	}
	if err := r.WriteSidecar([]byte("camera: BM-Ceta\n")); err != nil {
		t.Fatal(err)
	}
	fldr := path.Join(root, today())
	if _, err := os.Stat(path.Join(fldr, "series000001.fits")); err != nil {
		t.Error(err)
	}
	if _, err := os.Stat(path.Join(fldr, "series000001.yaml")); err != nil {
		t.Error(err)
	}
	if r.LastName() != path.Join(fldr, "series000001.fits") {
		t.Errorf("LastName = %q", r.LastName())
	}
}
