// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/jeranaias/nabi-tui/internal/logging"
)

// =============================================================================
// STREAM HANDLER
// =============================================================================

// StreamHandler holds the callbacks invoked as stream events arrive.
// Nil callbacks are skipped. All callbacks run on the goroutine that
// called StreamChat, in event arrival order.
type StreamHandler struct {
	// OnSessionID receives the session identifier from the metadata
	// event, always first on the stream.
	OnSessionID func(sessionID string)

	// OnToken receives each text fragment of the assistant response.
	OnToken func(text string)

	// OnAgent reports which backend agent the supervisor routed to.
	OnAgent func(agent string)

	// OnDone fires once when the stream completes normally.
	OnDone func()

	// OnError fires once when the stream fails. Cancelling the context
	// never triggers it.
	OnError func(err *ChatError)
}

// readBufSize is the read granularity for the response body. Small
// enough to keep token latency low, large enough to amortize syscalls.
const readBufSize = 4096

// =============================================================================
// STREAMING CHAT
// =============================================================================

// StreamChat opens a streaming completion and dispatches parsed events
// to the handler until done, error, or cancellation.
//
// Abort semantics: cancelling ctx stops callback delivery and returns
// nil. The caller's already-rendered partial content stands; nothing is
// rolled back and OnError stays silent.
//
// A stream that stalls longer than the idle timeout is failed as a
// timeout error.
func (c *Client) StreamChat(ctx context.Context, req ChatRequest, h StreamHandler) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	req.Stream = true
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	// The watchdog cancels the request context when no chunk has
	// arrived for the idle timeout. timedOut distinguishes that from a
	// caller abort, which shares the same cancellation path.
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	var timedOut atomic.Bool
	watchdog := time.AfterFunc(c.idleTimeout, func() {
		timedOut.Store(true)
		cancel()
	})
	defer watchdog.Stop()

	resp, err := c.openStream(streamCtx, payload)
	if err != nil {
		if aborted(ctx, &timedOut) {
			return nil
		}
		ce := c.classifyStreamFailure(err, &timedOut)
		emitError(h, ce)
		return ce
	}
	defer resp.Body.Close()

	return c.consumeStream(ctx, resp.Body, h, watchdog, &timedOut)
}

// openStream sends the streaming POST, retrying once with a refreshed
// token on 401. The refresh happens before any event is consumed, so
// the retry replays the identical request.
func (c *Client) openStream(ctx context.Context, payload []byte) (*http.Response, error) {
	send := func(refresh bool) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+basePath+"/chat/stream", bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "text/event-stream")
		req.Header.Set("Cache-Control", "no-cache")
		if err := c.attachToken(ctx, req, refresh); err != nil {
			return nil, err
		}
		return c.streamClient.Do(req)
	}

	resp, err := send(false)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized && c.tokens != nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		resp, err = send(true)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAuthFailed, err)
		}
	}
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, ClassifyStatus(resp.StatusCode, errorText(data))
	}
	return resp, nil
}

// consumeStream reads the body chunk by chunk, feeding the parser and
// dispatching completed events.
func (c *Client) consumeStream(ctx context.Context, body io.Reader, h StreamHandler, watchdog *time.Timer, timedOut *atomic.Bool) error {
	parser := NewParser()
	buf := make([]byte, readBufSize)

	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			watchdog.Reset(c.idleTimeout)
			for _, ev := range parser.Feed(buf[:n]) {
				if aborted(ctx, timedOut) {
					return nil
				}
				stop, err := c.dispatchEvent(ev, h)
				if stop {
					return err
				}
			}
		}
		if readErr == nil {
			continue
		}

		if aborted(ctx, timedOut) {
			return nil
		}
		if readErr == io.EOF {
			// Server closed without a done event: deliver what is
			// buffered, then treat the close as completion.
			for _, ev := range parser.Flush() {
				stop, err := c.dispatchEvent(ev, h)
				if stop {
					return err
				}
			}
			if h.OnDone != nil {
				h.OnDone()
			}
			return nil
		}

		ce := c.classifyStreamFailure(readErr, timedOut)
		emitError(h, ce)
		return ce
	}
}

// dispatchEvent routes one parsed event to its callback. It reports
// whether the stream is finished and, for error events, the error.
//
// Malformed JSON payloads are dropped without surfacing: a glitched
// frame must not kill an otherwise healthy stream.
func (c *Client) dispatchEvent(ev Event, h StreamHandler) (bool, error) {
	switch ev.Type {
	case EventMetadata:
		var meta metadataEvent
		if err := json.Unmarshal([]byte(ev.Data), &meta); err != nil || meta.SessionID == "" {
			return false, nil
		}
		if h.OnSessionID != nil {
			h.OnSessionID(meta.SessionID)
		}

	case EventToken:
		if ev.Data == "" {
			return false, nil
		}
		// Structured payloads are internal planning output leaking
		// through the token channel; never render them.
		if ev.Data[0] == '[' || ev.Data[0] == '{' {
			c.log.Debug("suppressed structured token", logging.Int("len", len(ev.Data)))
			return false, nil
		}
		if h.OnToken != nil {
			h.OnToken(ev.Data)
		}

	case EventAgent:
		var ae agentEvent
		if err := json.Unmarshal([]byte(ev.Data), &ae); err != nil || ae.Agent == "" {
			return false, nil
		}
		if h.OnAgent != nil {
			h.OnAgent(ae.Agent)
		}

	case EventDone:
		if h.OnDone != nil {
			h.OnDone()
		}
		return true, nil

	case EventError:
		var ee errorEvent
		if err := json.Unmarshal([]byte(ev.Data), &ee); err != nil || ee.Error == "" {
			return false, nil
		}
		ce := ClassifyMessage(ee.Error)
		c.log.Warn("stream error event", logging.String("kind", ce.Kind.String()), logging.String("message", ee.Error))
		emitError(h, ce)
		return true, ce
	}
	return false, nil
}

// classifyStreamFailure turns a transport-level failure into a
// ChatError, mapping watchdog fires to the timeout category.
func (c *Client) classifyStreamFailure(err error, timedOut *atomic.Bool) *ChatError {
	if timedOut.Load() {
		return &ChatError{Kind: KindTimeout, Message: "stream idle timeout", Retryable: true}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ChatError{Kind: KindTimeout, Message: err.Error(), Retryable: true}
	}
	return ClassifyErr(err)
}

// aborted reports whether the caller cancelled the stream. A watchdog
// fire cancels the same context but is a timeout, not an abort.
func aborted(ctx context.Context, timedOut *atomic.Bool) bool {
	return ctx.Err() != nil && !timedOut.Load() && errors.Is(ctx.Err(), context.Canceled)
}

func emitError(h StreamHandler, ce *ChatError) {
	if h.OnError != nil {
		h.OnError(ce)
	}
}
