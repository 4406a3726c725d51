// Package hasher computes checksums of downloaded archives and keeps them in sidecar files
// next to the archive ("Game.rar.sha256").
package hasher

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/habedi/smoke/pkg/apperr"
)

// Algorithms lists the supported checksum algorithms.
var Algorithms = []string{"md5", "sha1", "sha256", "sha512"}

// IsValidAlgo reports whether algo is supported, ignoring case.
func IsValidAlgo(algo string) bool {
	for _, a := range Algorithms {
		if strings.ToLower(algo) == a {
			return true
		}
	}
	return false
}

func newHash(algo string) (hash.Hash, error) {
	switch strings.ToLower(algo) {
	case "md5":
		return md5.New(), nil
	case "sha1":
		return sha1.New(), nil
	case "sha256":
		return sha256.New(), nil
	case "sha512":
		return sha512.New(), nil
	default:
		return nil, apperr.New(apperr.Validation, fmt.Sprintf("unsupported hash algorithm: %s", algo), nil)
	}
}

// FromReader hashes everything r yields.
func FromReader(r io.Reader, algo string) (string, error) {
	h, err := newHash(algo)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", apperr.New(apperr.Filesystem, "failed to read data to hash", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// File hashes the file at path.
func File(path, algo string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", apperr.New(apperr.Filesystem, fmt.Sprintf("failed to open %s", path), err)
	}
	defer f.Close()
	return FromReader(f, algo)
}

// SidecarPath is where the checksum of path is stored.
func SidecarPath(path, algo string) string {
	return path + "." + strings.ToLower(algo)
}

// IsSidecar reports whether name is a checksum file written by WriteSidecar.
func IsSidecar(name string) bool {
	for _, a := range Algorithms {
		if strings.HasSuffix(strings.ToLower(name), "."+a) {
			return true
		}
	}
	return false
}

// WriteSidecar stores sum for path in the "<sum>  <name>" layout used by sha256sum.
func WriteSidecar(path, algo, sum string) error {
	line := fmt.Sprintf("%s  %s\n", sum, filepath.Base(path))
	if err := os.WriteFile(SidecarPath(path, algo), []byte(line), 0o644); err != nil {
		return apperr.New(apperr.Filesystem, fmt.Sprintf("failed to write checksum for %s", path), err)
	}
	return nil
}

// Verify recomputes the checksum of path and compares it with the sidecar. It returns
// apperr.NotFound when there is no sidecar.
func Verify(path, algo string) (bool, error) {
	raw, err := os.ReadFile(SidecarPath(path, algo))
	if err != nil {
		if os.IsNotExist(err) {
			return false, apperr.New(apperr.NotFound, fmt.Sprintf("no %s checksum stored for %s", algo, path), err)
		}
		return false, apperr.New(apperr.Filesystem, "failed to read checksum file", err)
	}
	fields := strings.Fields(string(raw))
	if len(fields) == 0 {
		return false, apperr.New(apperr.Validation, fmt.Sprintf("empty checksum file for %s", path), nil)
	}
	sum, err := File(path, algo)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(fields[0], sum), nil
}
