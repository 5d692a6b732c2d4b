package stream

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/bz888/codeagent/internal/api/client"
	"github.com/bz888/codeagent/internal/logger"
)

var (
	ErrEmptyInstruction = errors.New("instruction must not be empty")
	ErrNoSession        = errors.New("session id must be resolved before streaming")
)

// ChatRequest is one chat turn. Code may be empty for a bare question.
type ChatRequest struct {
	Code        string
	Instruction string
	SessionID   string
}

// Opener opens the raw byte stream of a chat turn.
type Opener interface {
	StreamCode(ctx context.Context, req client.StreamCodeRequest) (io.ReadCloser, error)
}

type Decoder struct {
	api         Opener
	localLogger *logger.Logger
}

func NewDecoder(api Opener) *Decoder {
	return &Decoder{api: api, localLogger: logger.NewLogger("stream")}
}

// Open starts a chat turn and returns its fragments. Status failures such
// as client.ErrChatDisabled are returned here, before any fragment.
func (d *Decoder) Open(ctx context.Context, req ChatRequest) (*Fragments, error) {
	if strings.TrimSpace(req.Instruction) == "" {
		return nil, ErrEmptyInstruction
	}
	if req.SessionID == "" {
		return nil, ErrNoSession
	}

	ctx, cancel := context.WithCancel(ctx)
	body, err := d.api.StreamCode(ctx, client.StreamCodeRequest{
		Code:        req.Code,
		Instruction: req.Instruction,
		SessionID:   req.SessionID,
	})
	if err != nil {
		cancel()
		return nil, err
	}
	return newFragments(ctx, cancel, body), nil
}

// Chat streams a chat turn, calling onFragment once per fragment in arrival
// order. It returns nil when the stream ends normally. An error from
// onFragment abandons the stream and is returned as is.
func (d *Decoder) Chat(ctx context.Context, req ChatRequest, onFragment func(string) error) error {
	fragments, err := d.Open(ctx, req)
	if err != nil {
		d.localLogger.Error("Failed to open chat stream:", err)
		return err
	}
	defer fragments.Close()

	count := 0
	for {
		text, err := fragments.Next()
		if errors.Is(err, io.EOF) {
			d.localLogger.Info("Chat stream completed, fragments:", count)
			return nil
		}
		if err != nil {
			d.localLogger.Error("Chat stream interrupted:", err)
			return err
		}
		count++
		if err := onFragment(text); err != nil {
			return err
		}
	}
}
