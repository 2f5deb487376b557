// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import "bytes"

// =============================================================================
// SSE LINE PARSING
// =============================================================================

// dataPrefix marks a payload line in the answer stream. The backend
// emits SSE-style "data: {json}\n" records; everything else (comments,
// blank keep-alive lines) is ignored.
const dataPrefix = "data: "

// LineParser accumulates raw body chunks and yields complete payload
// lines. Chunk boundaries fall anywhere, including mid-JSON and inside
// multi-byte UTF-8 sequences; buffering whole lines before parsing makes
// both safe. The zero value is ready to use.
type LineParser struct {
	rest []byte
}

// Feed appends a chunk and returns the payloads of every complete
// "data: " line it finished, in wire order. The trailing fragment after
// the last newline stays buffered for the next chunk.
func (p *LineParser) Feed(chunk []byte) [][]byte {
	p.rest = append(p.rest, chunk...)

	var payloads [][]byte
	for {
		i := bytes.IndexByte(p.rest, '\n')
		if i < 0 {
			break
		}
		line := p.rest[:i]
		p.rest = p.rest[i+1:]
		if payload, ok := extractPayload(line); ok {
			payloads = append(payloads, payload)
		}
	}
	return payloads
}

// Flush returns the payload of a final unterminated line, if any. Called
// once at end of stream; some backends omit the trailing newline on the
// last record.
func (p *LineParser) Flush() ([]byte, bool) {
	line := p.rest
	p.rest = nil
	return extractPayload(line)
}

// extractPayload strips the "data: " prefix and surrounding whitespace.
// Non-data and empty-payload lines return ok=false.
func extractPayload(line []byte) ([]byte, bool) {
	line = bytes.TrimSuffix(line, []byte{'\r'})
	if !bytes.HasPrefix(line, []byte(dataPrefix)) {
		return nil, false
	}
	payload := bytes.TrimSpace(line[len(dataPrefix):])
	if len(payload) == 0 {
		return nil, false
	}
	// Copy out: the backing array is reused across Feed calls.
	out := make([]byte, len(payload))
	copy(out, payload)
	return out, true
}
