package stream

import (
	"context"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/bz888/codeagent/internal/api/client"
)

const (
	readSize    = 4 * 1024
	replacement = "\uFFFD"
)

// ErrClosed is returned by Next after Close.
var ErrClosed = errors.New("stream closed")

// Fragments is a lazy, ordered, finite sequence of decoded text fragments
// read from one chat stream. It is not restartable and not safe for
// concurrent use. Reading it to the end, or calling Close, releases the
// underlying connection.
type Fragments struct {
	ctx    context.Context
	cancel context.CancelFunc
	body   io.ReadCloser
	buf    []byte
	carry  []byte
	err    error
}

func newFragments(ctx context.Context, cancel context.CancelFunc, body io.ReadCloser) *Fragments {
	return &Fragments{
		ctx:    ctx,
		cancel: cancel,
		body:   body,
		buf:    make([]byte, readSize),
	}
}

// Next returns the next non-empty fragment. It returns io.EOF once the
// stream has ended, or a *client.DecodeInterruptedError if a read failed.
func (f *Fragments) Next() (string, error) {
	for f.err == nil {
		n, err := f.body.Read(f.buf)
		text := f.decode(f.buf[:n])
		if err != nil {
			f.stop(err)
			if f.err == io.EOF {
				text += f.flush()
			}
		}
		if text != "" {
			return text, nil
		}
	}
	return "", f.err
}

// Close abandons the stream and cancels any in-flight read.
func (f *Fragments) Close() error {
	if f.err == nil {
		f.err = ErrClosed
		f.release()
	}
	return nil
}

func (f *Fragments) stop(err error) {
	switch {
	case errors.Is(err, io.EOF):
		f.err = io.EOF
	case f.ctx.Err() != nil:
		f.err = &client.DecodeInterruptedError{Err: f.ctx.Err()}
	default:
		f.err = &client.DecodeInterruptedError{Err: err}
	}
	f.release()
}

func (f *Fragments) release() {
	f.cancel()
	f.body.Close()
}

// decode returns the longest valid text from the pending bytes and keeps a
// trailing partial UTF-8 sequence for the next read.
func (f *Fragments) decode(p []byte) string {
	data := p
	if len(f.carry) > 0 {
		data = append(f.carry, p...)
	}
	cut := len(data) - incompleteTail(data)
	text := strings.ToValidUTF8(string(data[:cut]), replacement)
	f.carry = append([]byte(nil), data[cut:]...)
	return text
}

// flush turns a sequence left incomplete at end of data into U+FFFD.
func (f *Fragments) flush() string {
	if len(f.carry) == 0 {
		return ""
	}
	f.carry = nil
	return replacement
}

// incompleteTail returns the length of a partial UTF-8 sequence at the end of p.
func incompleteTail(p []byte) int {
	for i := 1; i < utf8.UTFMax && i <= len(p); i++ {
		if !utf8.RuneStart(p[len(p)-i]) {
			continue
		}
		if utf8.FullRune(p[len(p)-i:]) {
			return 0
		}
		return i
	}
	return 0
}
