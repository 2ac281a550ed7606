package download

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Zip archives srcDir into a .zip at dest, with entries rooted at
// srcDir's base name so the archive unpacks into a single directory.
func Zip(srcDir, dest string) error {
	info, err := os.Stat(srcDir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", srcDir)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	w := zip.NewWriter(out)
	root := filepath.Base(srcDir)

	err = filepath.WalkDir(srcDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		name := root + "/" + strings.ReplaceAll(rel, string(filepath.Separator), "/")

		f, err := w.Create(name)
		if err != nil {
			return err
		}

		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()

		_, err = io.Copy(f, in)
		return err
	})
	if err != nil {
		w.Close()
		out.Close()
		return err
	}

	if err := w.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
