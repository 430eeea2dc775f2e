package parser

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Source encodings reported in ParseResult.Encoding.
const (
	EncodingUTF8        = "utf-8"
	EncodingUTF8BOM     = "utf-8-bom"
	EncodingUTF16LE     = "utf-16le"
	EncodingUTF16BE     = "utf-16be"
	EncodingWindows1252 = "windows-1252"
	EncodingXLSX        = "xlsx"
)

var bomUTF8 = []byte{0xEF, 0xBB, 0xBF}

// utf16Encodings are recognized by their byte order mark. The decoder
// consumes the BOM.
var utf16Encodings = []struct {
	bom  []byte
	name string
	enc  encoding.Encoding
}{
	{[]byte{0xFF, 0xFE}, EncodingUTF16LE, unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM)},
	{[]byte{0xFE, 0xFF}, EncodingUTF16BE, unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM)},
}

// DetectAndDecode returns data as UTF-8 without a BOM, plus the name of the
// encoding it was read as.
//
// Vendor exports arrive as UTF-8 (with or without BOM), UTF-16 with a BOM, or
// Windows-1252 from older Excel versions; anything that is not valid UTF-8
// and carries no BOM is read as Windows-1252.
func DetectAndDecode(data []byte) ([]byte, string, error) {
	if bytes.HasPrefix(data, bomUTF8) {
		return data[len(bomUTF8):], EncodingUTF8BOM, nil
	}

	for _, e := range utf16Encodings {
		if !bytes.HasPrefix(data, e.bom) {
			continue
		}
		decoded, _, err := transform.Bytes(e.enc.NewDecoder(), data)
		if err != nil {
			return nil, "", fmt.Errorf("%s decode failed: %w", e.name, err)
		}
		return decoded, e.name, nil
	}

	if utf8.Valid(data) {
		return data, EncodingUTF8, nil
	}

	decoded, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		return nil, "", fmt.Errorf("%s decode failed: %w", EncodingWindows1252, err)
	}
	return decoded, EncodingWindows1252, nil
}
