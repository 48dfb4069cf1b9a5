// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import "bytes"

// STREAMING: Incremental SSE decoding independent of chunk boundaries.

// =============================================================================
// SSE EVENTS
// =============================================================================

// Event types emitted by the chat stream endpoint.
const (
	EventMetadata = "metadata"
	EventToken    = "token"
	EventAgent    = "agent"
	EventDone     = "done"
	EventError    = "error"
)

// Event is one decoded server-sent event.
type Event struct {
	Type string
	Data string
}

// =============================================================================
// INCREMENTAL PARSER
// =============================================================================

// Parser decodes a server-sent-event byte stream incrementally. Feed it
// chunks exactly as they arrive off the wire; it returns the events that
// became complete, holding partial lines and partial events until the
// bytes that finish them show up. Line endings may be LF, CRLF, or CR.
//
// A Parser is not safe for concurrent use; drive it from the single
// goroutine that reads the response body.
type Parser struct {
	buf []byte // unconsumed bytes, at most one partial line

	eventType string
	dataLines []string
	sawField  bool // an event: or data: line was seen for the pending event
}

// NewParser returns an empty Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Feed appends a chunk and returns all events completed by it. The
// returned slice is nil when the chunk completes nothing.
func (p *Parser) Feed(chunk []byte) []Event {
	p.buf = append(p.buf, chunk...)

	var events []Event
	for {
		line, ok := p.nextLine()
		if !ok {
			return events
		}
		if ev, dispatched := p.consumeLine(line); dispatched {
			events = append(events, ev)
		}
	}
}

// Flush drains the parser at end of stream. A trailing line without its
// terminator is processed as if terminated, and a pending event is
// dispatched even though no blank line followed it.
func (p *Parser) Flush() []Event {
	var events []Event

	if len(p.buf) > 0 {
		line := bytes.TrimSuffix(p.buf, []byte("\r"))
		p.buf = nil
		if ev, dispatched := p.consumeLine(line); dispatched {
			events = append(events, ev)
		}
	}
	if p.sawField {
		events = append(events, p.dispatch())
	}
	return events
}

// nextLine extracts one complete line from the buffer. A line ends at
// LF, CRLF, or a lone CR. A CR as the final buffered byte is kept back:
// it may be the first half of a CRLF split across chunks.
func (p *Parser) nextLine() ([]byte, bool) {
	for i, b := range p.buf {
		switch b {
		case '\n':
			line := p.buf[:i]
			p.buf = p.buf[i+1:]
			return line, true
		case '\r':
			if i+1 >= len(p.buf) {
				return nil, false
			}
			line := p.buf[:i]
			if p.buf[i+1] == '\n' {
				p.buf = p.buf[i+2:]
			} else {
				p.buf = p.buf[i+1:]
			}
			return line, true
		}
	}
	return nil, false
}

// consumeLine feeds one logical line into the event being assembled.
// A blank line dispatches the pending event.
func (p *Parser) consumeLine(line []byte) (Event, bool) {
	if len(line) == 0 {
		if !p.sawField {
			return Event{}, false
		}
		return p.dispatch(), true
	}

	// Comment line.
	if line[0] == ':' {
		return Event{}, false
	}

	field, value := splitField(line)
	switch field {
	case "event":
		p.eventType = value
		p.sawField = true
	case "data":
		p.dataLines = append(p.dataLines, value)
		p.sawField = true
	}
	// id: and retry: fields are not used by the backend; ignored.
	return Event{}, false
}

// dispatch finalizes the pending event and resets assembly state.
// Multiple data lines join with a newline, per the event-stream format.
func (p *Parser) dispatch() Event {
	ev := Event{
		Type: p.eventType,
		Data: joinLines(p.dataLines),
	}
	if ev.Type == "" {
		ev.Type = "message"
	}
	p.eventType = ""
	p.dataLines = nil
	p.sawField = false
	return ev
}

// splitField separates "field: value". Exactly one space after the colon
// is stripped; any further whitespace belongs to the value.
func splitField(line []byte) (string, string) {
	idx := bytes.IndexByte(line, ':')
	if idx < 0 {
		return string(line), ""
	}
	field := string(line[:idx])
	rest := line[idx+1:]
	if len(rest) > 0 && rest[0] == ' ' {
		rest = rest[1:]
	}
	return field, string(rest)
}

func joinLines(lines []string) string {
	switch len(lines) {
	case 0:
		return ""
	case 1:
		return lines[0]
	}
	var buf bytes.Buffer
	for i, l := range lines {
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(l)
	}
	return buf.String()
}
