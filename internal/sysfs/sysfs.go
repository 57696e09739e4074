// Package sysfs provides typed read/write helpers over Linux sysfs
// (and procfs-shaped) pseudo-files, with every failure categorized
// into one of the four error kinds from pkg/errdefs: absence of a
// file the caller expects maps to an I/O error, while absence of a
// file the caller is merely probing for maps to feature-unsupported.
package sysfs

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/ShadowBlip/PowerStation/pkg/errdefs"
)

// ReadString reads path and returns its contents with surrounding
// whitespace trimmed. The file is expected to exist; its absence is
// reported as an I/O error, not feature-unsupported. Use ReadStringProbe
// when the caller is testing for the capability's presence.
func ReadString(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", ioErrorFor(path, err)
	}
	return strings.TrimSpace(string(b)), nil
}

// ReadStringProbe reads path the same way ReadString does, except a
// missing file is reported as feature-unsupported rather than an I/O
// error, matching the "probing for a capability" semantics of spec §4.1.
func ReadStringProbe(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", errdefs.FeatureUnsupportedf("%s: not present on this host", path)
		}
		return "", ioErrorFor(path, err)
	}
	return strings.TrimSpace(string(b)), nil
}

// WriteString writes value to path. Failures, including a missing
// target file, are reported as I/O errors — callers are responsible
// for validating value before calling (spec §7: invalid arguments must
// never reach the sysfs layer as silent no-ops).
func WriteString(path, value string) error {
	if err := os.WriteFile(path, []byte(value), 0644); err != nil {
		return ioErrorFor(path, err)
	}
	return nil
}

// Exists reports whether path is present, without distinguishing
// permission errors from absence, so a permission error reads as
// "not present".
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ParseU32 parses a base-10 unsigned integer, wrapping malformed
// content as an I/O error since it indicates the kernel file did not
// contain what the caller expected.
func ParseU32(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, errdefs.IOErrorf("parse %q as uint32: %v", s, err)
	}
	return uint32(v), nil
}

// ParseF64 parses a floating point number the same way ParseU32 parses
// an integer.
func ParseF64(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, errdefs.IOErrorf("parse %q as float64: %v", s, err)
	}
	return v, nil
}

// ParseHexU32 parses a hex integer with an optional "0x" prefix, as
// used by the DRM device vendor/device/class attribute files.
func ParseHexU32(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, errdefs.IOErrorf("parse %q as hex uint32: %v", s, err)
	}
	return uint32(v), nil
}

// ReadU32 reads and parses path as a base-10 unsigned integer.
func ReadU32(path string) (uint32, error) {
	s, err := ReadString(path)
	if err != nil {
		return 0, err
	}
	return ParseU32(s)
}

// ReadF64 reads and parses path as a floating point number.
func ReadF64(path string) (float64, error) {
	s, err := ReadString(path)
	if err != nil {
		return 0, err
	}
	return ParseF64(s)
}

// ReadHexU32 reads and parses path as a "0x"-prefixed hex integer.
func ReadHexU32(path string) (uint32, error) {
	s, err := ReadString(path)
	if err != nil {
		return 0, err
	}
	return ParseHexU32(s)
}

// ListAttrs returns the base names of entries directly under dir, used
// to enumerate hwmon/DRM attribute and sibling-connector directories.
// A missing directory is feature-unsupported, matching the probing
// semantics ListAttrs callers always want.
func ListAttrs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errdefs.FeatureUnsupportedf("%s: not present on this host", dir)
		}
		return nil, ioErrorFor(dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

func ioErrorFor(path string, err error) error {
	return errdefs.IOErrorf("%s: %v", path, err)
}
