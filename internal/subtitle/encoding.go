package subtitle

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeToUTF8 converts a downloaded subtitle payload to UTF-8 without BOM.
// Detection order: BOM, charset sniffing, then an ISO-8859-1 fallback for
// the Western European payloads providers commonly serve mislabeled.
func DecodeToUTF8(payload []byte) (string, error) {
	if len(payload) == 0 {
		return "", fmt.Errorf("empty subtitle payload")
	}

	payload = bytes.TrimPrefix(payload, utf8BOM)
	if utf8.Valid(payload) {
		return string(payload), nil
	}

	enc, name, certain := charset.DetermineEncoding(payload, "")
	if certain || name != "windows-1252" {
		decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(payload), enc.NewDecoder()))
		if err == nil && utf8.Valid(decoded) {
			return string(bytes.TrimPrefix(decoded, utf8BOM)), nil
		}
	}

	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(payload), charmap.ISO8859_1.NewDecoder()))
	if err != nil {
		return "", fmt.Errorf("decode subtitle payload: %w", err)
	}
	return string(decoded), nil
}
