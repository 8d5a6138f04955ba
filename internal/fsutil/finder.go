// Package fsutil provides file system utility functions.
package fsutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FindFilesByExtension recursively searches the given root path for all files ending
// with the specified extension. It returns a slice of their full paths.
func FindFilesByExtension(rootPath string, extension string) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), extension) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// FindFiles resolves a mix of files and directories into a sorted, duplicate
// free list of files ending with extension. Directories are searched
// recursively. Paths that do not exist are skipped and reported in missing.
func FindFiles(paths []string, extension string) (files, missing []string, err error) {
	seen := make(map[string]struct{})
	add := func(p string) {
		p = filepath.Clean(p)
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		files = append(files, p)
	}

	for _, path := range paths {
		info, statErr := os.Stat(path)
		if errors.Is(statErr, fs.ErrNotExist) {
			missing = append(missing, path)
			continue
		}
		if statErr != nil {
			return nil, nil, statErr
		}

		if !info.IsDir() {
			if strings.HasSuffix(path, extension) {
				add(path)
			}
			continue
		}
		found, walkErr := FindFilesByExtension(path, extension)
		if walkErr != nil {
			return nil, nil, walkErr
		}
		for _, f := range found {
			add(f)
		}
	}
	sort.Strings(files)
	return files, missing, nil
}
