package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// StreamCode opens the chat stream. The caller owns the returned body and
// must close it. Status failures are reported before any byte is read.
func (c *Client) StreamCode(ctx context.Context, req StreamCodeRequest) (io.ReadCloser, error) {
	resp, err := c.do(ctx, http.MethodPost, "/stream-code", req)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusServiceUnavailable:
		defer resp.Body.Close()
		return nil, fmt.Errorf("%w: %v", ErrChatDisabled, statusError(resp))
	case resp.StatusCode != http.StatusOK:
		defer resp.Body.Close()
		return nil, statusError(resp)
	case resp.Body == nil || resp.Body == http.NoBody:
		if resp.Body != nil {
			resp.Body.Close()
		}
		return nil, ErrNoResponseBody
	}
	return resp.Body, nil
}

// Autocomplete requests completions for the cursor context. An empty list is
// a valid answer.
func (c *Client) Autocomplete(ctx context.Context, req AutocompleteRequest) ([]string, error) {
	var resp AutocompleteResponse
	if err := c.call(ctx, http.MethodPost, "/autocomplete", req, &resp); err != nil {
		return nil, err
	}
	return resp.Completions, nil
}

// ManageModel loads or unloads the backend model behind feature. The
// acknowledgement is returned as received, whatever its shape.
func (c *Client) ManageModel(ctx context.Context, feature string, enable bool) (ManageModelResponse, error) {
	resp, err := c.do(ctx, http.MethodPost, "/manage-model", ManageModelRequest{Feature: feature, Enable: enable})
	if err != nil {
		return nil, fmt.Errorf("manage model %s: %w", feature, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("manage model %s: %w", feature, statusError(resp))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("manage model %s: %w", feature, err)
	}
	return ManageModelResponse(body), nil
}
