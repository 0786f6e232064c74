package control

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Frame kinds sent to the robot.
const (
	KindPrepare = "PREPARE"
	KindStart   = "START"
	KindAbort   = "ABORT"
)

// Frame kinds received from the robot.
const (
	KindPrepared = "PREPARED"
	KindStarted  = "STARTED"
	KindFinished = "FINISHED"
	KindError    = "ERROR"
)

const (
	headerName          = "name"
	headerContentLength = "content-length"
	headerSummary       = "summary"
)

// maxBody bounds the content-length accepted from the robot.
const maxBody = 16 << 20

// Frame is one control protocol message: a kind line, header lines and an
// optional body whose size is given by the content-length header.
type Frame struct {
	Kind    string
	Headers map[string]string
	Body    string
}

// Header returns the value of the named header, or "".
func (f *Frame) Header(name string) string {
	return f.Headers[name]
}

// WriteFrame encodes f to w. content-length is derived from the body.
func WriteFrame(w io.Writer, f *Frame) error {
	var b strings.Builder
	b.WriteString(f.Kind)
	b.WriteByte('\n')

	keys := make([]string, 0, len(f.Headers))
	for k := range f.Headers {
		if k == headerContentLength {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s:%s\n", k, f.Headers[k])
	}
	if f.Body != "" {
		fmt.Fprintf(&b, "%s:%d\n", headerContentLength, len(f.Body))
	}
	b.WriteByte('\n')
	b.WriteString(f.Body)

	_, err := io.WriteString(w, b.String())
	return err
}

// ReadFrame decodes the next frame from r.
func ReadFrame(r *bufio.Reader) (*Frame, error) {
	kind, err := readLine(r)
	if err != nil {
		return nil, err
	}
	// Tolerate blank lines between frames.
	for kind == "" {
		if kind, err = readLine(r); err != nil {
			return nil, err
		}
	}

	f := &Frame{Kind: kind, Headers: make(map[string]string)}
	for {
		line, err := readLine(r)
		if err != nil {
			return nil, fmt.Errorf("reading %s headers: %w", kind, unexpectedEOF(err))
		}
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("malformed header in %s frame: %q", kind, line)
		}
		f.Headers[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(value)
	}

	if cl, ok := f.Headers[headerContentLength]; ok {
		n, err := strconv.Atoi(cl)
		if err != nil || n < 0 || n > maxBody {
			return nil, fmt.Errorf("invalid content-length in %s frame: %q", kind, cl)
		}
		body := make([]byte, n)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, fmt.Errorf("reading %s body: %w", kind, unexpectedEOF(err))
		}
		f.Body = string(body)
	}

	return f, nil
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return "", io.ErrUnexpectedEOF
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
