package utils

import (
	"encoding/hex"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

type LargeInteger struct {
	LowPart  int32
	HighPart int32
}

func NewLargeInteger(offset int64) LargeInteger {
	return LargeInteger{LowPart: int32(offset & 0xFFFFFFFF), HighPart: int32(offset >> 32)}
}

func Hexify(barray []byte) string {
	return hex.EncodeToString(barray)
}

func Bytereverse(barray []byte) []byte {
	for i, j := 0, len(barray)-1; i < j; i, j = i+1, j-1 {
		barray[i], barray[j] = barray[j], barray[i]
	}
	return barray
}

// DecodeUTF16 decodes a little-endian UTF-16 byte sequence as recorded
// in on-disk directory entries.
func DecodeUTF16(b []byte) (string, error) {
	decoder := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	decoded, err := decoder.Bytes(b)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// StripNulls removes trailing NUL padding from fixed-width name fields.
func StripNulls(s string) string {
	return strings.TrimRight(s, "\x00")
}

func GetEntries(entries string) []string {
	return strings.Split(entries, ",")
}

// FindEvidenceFiles locates the segment files of a split evidence image
// (base.E01, base.E02, ...) sorted in segment order.
func FindEvidenceFiles(pathToEvidence string) []string {
	ext := filepath.Ext(pathToEvidence)
	base := strings.TrimSuffix(pathToEvidence, ext)

	matches, err := filepath.Glob(base + ".*")
	if err != nil {
		return nil
	}

	segmentExt := regexp.MustCompile(`(?i)\.e[0-9]{2}$`)
	var filenames []string
	for _, match := range matches {
		if segmentExt.MatchString(match) {
			filenames = append(filenames, match)
		}
	}
	sort.Strings(filenames)
	return filenames
}
