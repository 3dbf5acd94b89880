package utils

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/imposter-project/assetscheme/pkg/logger"
)

// ErrInvalidPathChars is returned when a path cannot be represented on disk.
var ErrInvalidPathChars = errors.New("path contains invalid characters")

// ValidatePath validates a file path to ensure it is within the config directory
func ValidatePath(path string, configDir string) (string, error) {
	filePath := filepath.Join(configDir, path)
	filePath = filepath.Clean(filePath)

	if !strings.HasPrefix(filePath, filepath.Clean(configDir)+string(filepath.Separator)) {
		err := fmt.Errorf("file path escapes config directory: %s", filePath)
		logger.Errorln(err.Error())
		return "", err
	}
	return filePath, nil
}

// URLPathToFilePath converts the slash-separated path of a URL into an OS path.
// A leading slash before a drive letter ("/C:/x") is dropped.
func URLPathToFilePath(urlPath string) string {
	p := urlPath
	if len(p) >= 3 && p[0] == '/' && p[2] == ':' && isLetter(p[1]) {
		p = p[1:]
	}
	return filepath.FromSlash(p)
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// SplitFilePath splits a path into its directory and file name. A path ending
// in a separator names a directory, so its file name is empty.
func SplitFilePath(p string) (dir string, file string, err error) {
	if err := CheckPathChars(p); err != nil {
		return "", "", err
	}
	if strings.HasSuffix(p, "/") || strings.HasSuffix(p, string(filepath.Separator)) {
		return strings.TrimRight(p, "/"+string(filepath.Separator)), "", nil
	}
	return filepath.Dir(p), filepath.Base(p), nil
}

// JoinRelative joins rel onto base. Unlike ValidatePath it does not confine the result to base.
func JoinRelative(base, rel string) (string, error) {
	if err := CheckPathChars(base); err != nil {
		return "", err
	}
	if err := CheckPathChars(rel); err != nil {
		return "", err
	}
	return filepath.Join(base, filepath.FromSlash(rel)), nil
}

// CheckPathChars rejects paths that no filesystem will accept.
func CheckPathChars(p string) error {
	if strings.ContainsRune(p, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidPathChars, p)
	}
	return nil
}
