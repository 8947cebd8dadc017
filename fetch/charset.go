package fetch

import (
	"bytes"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// gunzip decompresses a gzip-encoded response body, per the
// content-encoding: gzip step of spec.md §4.B. Unlike the traced
// original, this is applied regardless of which body-framing method
// produced raw: content-length, chunked, or EOF-terminated all pass
// through here the same way.
func gunzip(raw []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

// decodeBody transcodes raw into UTF-8 using the charset named by a
// content-type header (UTF-8 when the header names none), or by sniffing
// the bytes themselves when the header names something htmlindex doesn't
// recognize. This
// is a supplement absent from the traced original, which assumes UTF-8
// throughout; gorushi instead follows the same sniff-then-transcode path
// a full browser's document loader uses.
func decodeBody(raw []byte, contentType string) string {
	label := labelFromContentType(contentType)
	enc, err := htmlindex.Get(label)
	if err != nil {
		// Label unrecognized; fall back to sniffing the bytes themselves
		// the way charset.DetermineEncoding does for documents with a
		// garbled charset.
		_, name, _ := charset.DetermineEncoding(raw, contentType)
		enc, err = htmlindex.Get(name)
		if err != nil {
			return string(raw)
		}
	}
	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(raw), enc.NewDecoder()))
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}

// labelFromContentType extracts a charset= parameter from a content-type
// header value, defaulting to "utf-8" when absent so htmlindex.Get
// still gets a usable label to look up.
func labelFromContentType(contentType string) string {
	const marker = "charset="
	idx := strings.Index(contentType, marker)
	if idx < 0 {
		return "utf-8"
	}
	label := contentType[idx+len(marker):]
	if end := strings.IndexByte(label, ';'); end >= 0 {
		label = label[:end]
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return "utf-8"
	}
	return label
}
