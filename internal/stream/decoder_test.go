package stream

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/bz888/codeagent/internal/api/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type MockOpener struct {
	mock.Mock
}

func (m *MockOpener) StreamCode(ctx context.Context, req client.StreamCodeRequest) (io.ReadCloser, error) {
	args := m.Called(ctx, req)
	body, _ := args.Get(0).(io.ReadCloser)
	return body, args.Error(1)
}

// chunkedBody hands out one piece per Read, then err (io.EOF by default).
type chunkedBody struct {
	pieces [][]byte
	err    error
	closed bool
}

func (b *chunkedBody) Read(p []byte) (int, error) {
	if b.closed {
		return 0, errors.New("read on closed body")
	}
	if len(b.pieces) == 0 {
		if b.err != nil {
			return 0, b.err
		}
		return 0, io.EOF
	}
	n := copy(p, b.pieces[0])
	b.pieces[0] = b.pieces[0][n:]
	if len(b.pieces[0]) == 0 {
		b.pieces = b.pieces[1:]
	}
	return n, nil
}

func (b *chunkedBody) Close() error {
	b.closed = true
	return nil
}

func splitEvery(data []byte, size int) [][]byte {
	var pieces [][]byte
	for len(data) > size {
		pieces = append(pieces, data[:size])
		data = data[size:]
	}
	return append(pieces, data)
}

func splitRandom(data []byte, rng *rand.Rand) [][]byte {
	var pieces [][]byte
	for len(data) > 0 {
		n := 1 + rng.Intn(len(data))
		pieces = append(pieces, data[:n])
		data = data[n:]
	}
	return pieces
}

func collect(t *testing.T, d *Decoder, req ChatRequest) ([]string, error) {
	t.Helper()
	var got []string
	err := d.Chat(context.Background(), req, func(s string) error {
		got = append(got, s)
		return nil
	})
	return got, err
}

var chatReq = ChatRequest{Code: "x := 1", Instruction: "Explain this", SessionID: "s-1"}

const sample = "héllo wörld, 日本語のテキスト 🎉🚀 and ascii tail\n```go\nfmt.Println(\"ok\")\n```"

func TestChatReassemblesMultiByteSplits(t *testing.T) {
	for size := 1; size <= 7; size++ {
		body := &chunkedBody{pieces: splitEvery([]byte(sample), size)}
		opener := new(MockOpener)
		opener.On("StreamCode", mock.Anything, mock.Anything).Return(body, nil)

		got, err := collect(t, NewDecoder(opener), chatReq)
		require.NoError(t, err)
		assert.Equal(t, sample, strings.Join(got, ""), "piece size %d", size)
		for _, fragment := range got {
			assert.NotEmpty(t, fragment)
			assert.True(t, utf8.ValidString(fragment))
			assert.NotContains(t, fragment, "\uFFFD")
		}
		assert.True(t, body.closed)
	}
}

func TestChatRandomSplitsKeepOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		body := &chunkedBody{pieces: splitRandom([]byte(sample), rng)}
		opener := new(MockOpener)
		opener.On("StreamCode", mock.Anything, mock.Anything).Return(body, nil)

		got, err := collect(t, NewDecoder(opener), chatReq)
		require.NoError(t, err)
		require.Equal(t, sample, strings.Join(got, ""))
	}
}

func TestChatForwardsRequestFields(t *testing.T) {
	opener := new(MockOpener)
	opener.On("StreamCode", mock.Anything, client.StreamCodeRequest{
		Code:        "x := 1",
		Instruction: "Explain this",
		SessionID:   "s-1",
	}).Return(&chunkedBody{pieces: [][]byte{[]byte("ok")}}, nil)

	got, err := collect(t, NewDecoder(opener), chatReq)
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, got)
	opener.AssertExpectations(t)
}

func TestChatRejectsInvalidRequests(t *testing.T) {
	opener := new(MockOpener)
	d := NewDecoder(opener)

	_, err := collect(t, d, ChatRequest{Instruction: "  ", SessionID: "s-1"})
	assert.ErrorIs(t, err, ErrEmptyInstruction)

	_, err = collect(t, d, ChatRequest{Instruction: "why?"})
	assert.ErrorIs(t, err, ErrNoSession)

	opener.AssertNotCalled(t, "StreamCode", mock.Anything, mock.Anything)
}

func TestChatAllowsEmptyCode(t *testing.T) {
	opener := new(MockOpener)
	opener.On("StreamCode", mock.Anything, mock.Anything).Return(&chunkedBody{pieces: [][]byte{[]byte("answer")}}, nil)

	got, err := collect(t, NewDecoder(opener), ChatRequest{Instruction: "what is a goroutine?", SessionID: "s-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"answer"}, got)
}

func TestChatPropagatesOpenErrors(t *testing.T) {
	disabled := errors.Join(client.ErrChatDisabled, errors.New("503"))
	opener := new(MockOpener)
	opener.On("StreamCode", mock.Anything, mock.Anything).Return(nil, disabled)

	called := false
	err := NewDecoder(opener).Chat(context.Background(), chatReq, func(string) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, client.ErrChatDisabled)
	assert.False(t, called)
}

func TestChatInterruptedMidRead(t *testing.T) {
	body := &chunkedBody{
		pieces: [][]byte{[]byte("partial "), []byte("answer")},
		err:    io.ErrUnexpectedEOF,
	}
	opener := new(MockOpener)
	opener.On("StreamCode", mock.Anything, mock.Anything).Return(body, nil)

	got, err := collect(t, NewDecoder(opener), chatReq)
	assert.Equal(t, []string{"partial ", "answer"}, got)

	var interrupted *client.DecodeInterruptedError
	require.ErrorAs(t, err, &interrupted)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.True(t, body.closed)
}

func TestChatCancelStopsInFlightRead(t *testing.T) {
	pr, pw := io.Pipe()
	opener := new(MockOpener)
	opener.On("StreamCode", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			go func() {
				pw.Write([]byte("first"))
				<-ctx.Done()
				pw.CloseWithError(ctx.Err())
			}()
		}).
		Return(pr, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []string
	err := NewDecoder(opener).Chat(ctx, chatReq, func(s string) error {
		got = append(got, s)
		cancel()
		return nil
	})

	assert.Equal(t, []string{"first"}, got)
	var interrupted *client.DecodeInterruptedError
	require.ErrorAs(t, err, &interrupted)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChatCallbackErrorAbandonsStream(t *testing.T) {
	body := &chunkedBody{pieces: [][]byte{[]byte("one"), []byte("two")}}
	opener := new(MockOpener)
	opener.On("StreamCode", mock.Anything, mock.Anything).Return(body, nil)

	stop := errors.New("output closed")
	var got []string
	err := NewDecoder(opener).Chat(context.Background(), chatReq, func(s string) error {
		got = append(got, s)
		return stop
	})

	assert.ErrorIs(t, err, stop)
	assert.Equal(t, []string{"one"}, got)
	assert.True(t, body.closed)
}

func TestFragmentsFlushesDanglingSequence(t *testing.T) {
	euro := []byte("€")
	body := &chunkedBody{pieces: [][]byte{[]byte("cost: "), euro[:2]}}
	opener := new(MockOpener)
	opener.On("StreamCode", mock.Anything, mock.Anything).Return(body, nil)

	got, err := collect(t, NewDecoder(opener), chatReq)
	require.NoError(t, err)
	assert.Equal(t, "cost: \uFFFD", strings.Join(got, ""))
}

func TestFragmentsReplacesInvalidBytes(t *testing.T) {
	body := &chunkedBody{pieces: [][]byte{{'a', 0xff, 'b'}}}
	opener := new(MockOpener)
	opener.On("StreamCode", mock.Anything, mock.Anything).Return(body, nil)

	got, err := collect(t, NewDecoder(opener), chatReq)
	require.NoError(t, err)
	assert.Equal(t, []string{"a\uFFFDb"}, got)
}

func TestFragmentsNextAfterEndAndClose(t *testing.T) {
	body := &chunkedBody{pieces: [][]byte{[]byte("done")}}
	opener := new(MockOpener)
	opener.On("StreamCode", mock.Anything, mock.Anything).Return(body, nil)

	fragments, err := NewDecoder(opener).Open(context.Background(), chatReq)
	require.NoError(t, err)

	text, err := fragments.Next()
	require.NoError(t, err)
	assert.Equal(t, "done", text)

	_, err = fragments.Next()
	assert.ErrorIs(t, err, io.EOF)
	_, err = fragments.Next()
	assert.ErrorIs(t, err, io.EOF)
	assert.NoError(t, fragments.Close())

	other := &chunkedBody{pieces: [][]byte{[]byte("never read")}}
	opener2 := new(MockOpener)
	opener2.On("StreamCode", mock.Anything, mock.Anything).Return(other, nil)
	abandoned, err := NewDecoder(opener2).Open(context.Background(), chatReq)
	require.NoError(t, err)
	require.NoError(t, abandoned.Close())
	_, err = abandoned.Next()
	assert.ErrorIs(t, err, ErrClosed)
	assert.True(t, other.closed)
}

func TestIncompleteTail(t *testing.T) {
	rocket := []byte("🚀")
	cases := []struct {
		name string
		in   []byte
		want int
	}{
		{"empty", nil, 0},
		{"ascii", []byte("abc"), 0},
		{"complete rune", rocket, 0},
		{"one of four", rocket[:1], 1},
		{"three of four", rocket[:3], 3},
		{"lead then ascii", []byte{0xe2, 'a'}, 0},
		{"stray continuation", []byte{0x80, 0x80, 0x80, 0x80}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, incompleteTail(tc.in))
		})
	}
}
