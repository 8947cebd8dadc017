package fetch

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"

	"github.com/kojima/gorushi"
)

// readChunkedBody reads a Transfer-Encoding: chunked body: repeated
// hex-length-prefixed chunks, each followed by a trailing CRLF, until a
// zero-length chunk.
func readChunkedBody(r *bufio.Reader) ([]byte, error) {
	const op = "fetch.readChunkedBody"
	var body bytes.Buffer
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, &gorushi.Error{Op: op, Kind: gorushi.ErrIO, Inner: err}
		}
		sizeStr := strings.TrimRight(line, "\r\n")
		if idx := strings.IndexByte(sizeStr, ';'); idx >= 0 {
			sizeStr = sizeStr[:idx]
		}
		size, err := strconv.ParseInt(strings.TrimSpace(sizeStr), 16, 64)
		if err != nil {
			return nil, &gorushi.Error{Op: op, Kind: gorushi.ErrUnsupportedTransfer, Message: "bad chunk size: " + sizeStr, Inner: err}
		}
		if size == 0 {
			// consume the trailing CRLF after the zero-length chunk
			r.ReadString('\n')
			break
		}
		chunk := make([]byte, size)
		if _, err := readFull(r, chunk); err != nil {
			return nil, &gorushi.Error{Op: op, Kind: gorushi.ErrIO, Inner: err}
		}
		body.Write(chunk)
		if _, err := r.ReadString('\n'); err != nil {
			return nil, &gorushi.Error{Op: op, Kind: gorushi.ErrIO, Inner: err}
		}
	}
	return body.Bytes(), nil
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
