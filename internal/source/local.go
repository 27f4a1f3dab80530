package source

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/goliatone/go-snippet/pkg/interfaces"
)

// DefaultEncoding is used when no encoding is configured.
const DefaultEncoding = "utf-8"

// FileReader reads snippet sources from the local filesystem.
type FileReader struct{}

// NewFileReader returns a FileReader.
func NewFileReader() FileReader {
	return FileReader{}
}

// ReadText reads path and decodes it with the named encoding.
func (FileReader) ReadText(path, encoding string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return Decode(data, encoding)
}

// Decode converts data from the named encoding (WHATWG labels such as
// "utf-8", "latin1" or "shift_jis") into a Go string.
func Decode(data []byte, encoding string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(encoding))
	if name == "" {
		name = DefaultEncoding
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedEncoding, encoding)
	}

	if canonical, _ := htmlindex.Name(enc); canonical == "utf-8" {
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: not valid utf-8", ErrDecode)
		}
		return string(data), nil
	}

	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return string(decoded), nil
}

// ValidateEncoding reports whether encoding names a supported text encoding.
func ValidateEncoding(encoding string) error {
	_, err := Decode(nil, encoding)
	return err
}

var _ interfaces.LocalReader = FileReader{}
