package mcp

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnvAllowedPaths lists extra directories the server may touch, separated
// by commas or the OS path list separator.
const EnvAllowedPaths = "XLCODEC_ALLOWED_PATHS"

// Error types
var (
	ErrEmptyPath    = errors.New("file path cannot be empty")
	ErrAccessDenied = errors.New("access denied: path outside allowed directories")
	ErrFileNotFound = errors.New("file not found")
	ErrFileExists   = errors.New("file already exists")
)

// AllowedBasePaths contains directories from which files can be read.
// If empty, defaults to current working directory.
var AllowedBasePaths []string

// InitAllowedPaths sets AllowedBasePaths. Every entry must be an existing
// directory.
func InitAllowedPaths(paths []string) error {
	var out []string
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("invalid allowed path %s: %w", p, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return fmt.Errorf("invalid allowed path %s: %w", p, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("invalid allowed path %s: not a directory", p)
		}
		out = append(out, abs)
	}
	AllowedBasePaths = out
	return nil
}

// LoadAllowedPathsFromEnv initializes AllowedBasePaths from
// XLCODEC_ALLOWED_PATHS. An unset variable leaves the defaults.
func LoadAllowedPathsFromEnv() error {
	v := os.Getenv(EnvAllowedPaths)
	if v == "" {
		return nil
	}
	fields := strings.FieldsFunc(v, func(r rune) bool {
		return r == ',' || r == os.PathListSeparator
	})
	return InitAllowedPaths(fields)
}

// ValidateFilePath ensures the path is safe to access.
func ValidateFilePath(requestedPath string) (string, error) {
	if requestedPath == "" {
		return "", ErrEmptyPath
	}

	// Get absolute path
	absPath, err := filepath.Abs(requestedPath)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}

	// Resolve symlinks to prevent bypass
	realPath, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrFileNotFound, requestedPath)
		}
		return "", fmt.Errorf("cannot resolve path: %w", err)
	}

	if err := checkAllowed(realPath); err != nil {
		return "", err
	}
	return realPath, nil
}

// ValidateWritePath ensures a file may be created or replaced at
// requestedPath. The parent directory must exist inside an allowed base;
// an existing file is only accepted with overwrite.
func ValidateWritePath(requestedPath string, overwrite bool) (string, error) {
	if requestedPath == "" {
		return "", ErrEmptyPath
	}
	absPath, err := filepath.Abs(requestedPath)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}

	realDir, err := filepath.EvalSymlinks(filepath.Dir(absPath))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: directory %s", ErrFileNotFound, filepath.Dir(requestedPath))
		}
		return "", fmt.Errorf("cannot resolve path: %w", err)
	}
	target := filepath.Join(realDir, filepath.Base(absPath))

	if info, err := os.Lstat(target); err == nil {
		if info.Mode()&os.ModeSymlink != 0 {
			// Symlink targets are never written.
			return "", fmt.Errorf("%w: %s is a symlink", ErrAccessDenied, requestedPath)
		}
		if info.IsDir() {
			return "", fmt.Errorf("invalid path: %s is a directory", requestedPath)
		}
		if !overwrite {
			return "", fmt.Errorf("%w: %s", ErrFileExists, requestedPath)
		}
	}

	if err := checkAllowed(target); err != nil {
		return "", err
	}
	return target, nil
}

func checkAllowed(realPath string) error {
	// Determine allowed base paths
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("cannot determine working directory: %w", err)
	}

	basePaths := AllowedBasePaths
	if len(basePaths) == 0 {
		basePaths = []string{cwd}
	}

	// Check if path is within allowed directories
	for _, base := range basePaths {
		absBase, err := filepath.Abs(base)
		if err != nil {
			continue
		}
		realBase, err := filepath.EvalSymlinks(absBase)
		if err != nil {
			continue
		}
		if strings.HasPrefix(realPath, realBase+string(os.PathSeparator)) || realPath == realBase {
			return nil
		}
	}
	return ErrAccessDenied
}
