package predictor

import (
	"strings"

	"github.com/aarsakian/FileRecovery/utils"
)

// DefaultExtension is returned when no signature matches.
const DefaultExtension = "bin"

type magic struct {
	prefix    string
	extension string
}

// Signature prefixes are hex-encoded leading bytes, longest match first
// within each family.
var magicTable = []magic{
	{"ffd8ff", "jpg"},
	{"89504e47", "png"},
	{"47494638", "gif"},
	{"424d", "bmp"},
	{"49492a00", "tif"},
	{"4d4d002a", "tif"},
	{"25504446", "pdf"},
	{"504b0304", "zip"},
	{"d0cf11e0", "doc"},
	{"7b5c7274", "rtf"},
	{"52494646", "wav"},
	{"494433", "mp3"},
	{"66747970", "mp4"},
	{"4f676753", "ogg"},
	{"4d5a", "exe"},
	{"7f454c46", "elf"},
	{"526172", "rar"},
	{"1f8b", "gz"},
	{"425a68", "bz2"},
	{"377abcaf", "7z"},
	{"53514c69", "sqlite"},
	{"3c3f786d", "xml"},
	{"7b0d0a20", "json"},
	{"3c21444f", "html"},
	{"4f54544f", "otf"},
	{"00010000", "ttf"},
}

// Predict matches the first bytes of a file's content against the
// signature table. The second return reports whether a signature matched.
func Predict(firstBytes []byte) (string, bool) {
	if len(firstBytes) > 4 {
		firstBytes = firstBytes[:4]
	}
	signature := utils.Hexify(firstBytes)

	for _, entry := range magicTable {
		if strings.HasPrefix(signature, entry.prefix) {
			return entry.extension, true
		}
	}
	return DefaultExtension, false
}
