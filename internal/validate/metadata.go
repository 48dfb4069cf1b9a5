// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package validate implements the client-side validation checklist.
package validate

import (
	"encoding/json"
	"strings"
)

// Metadata bounds, mirroring the backend contract.
const (
	MaxMetadataKeyLength    = 100
	MaxMetadataStringLength = 1000
	MaxMetadataDepth        = 10
	MaxMetadataJSONKB       = 100
)

// SanitizeMetadata returns a copy of metadata safe to serialize into
// an upload request: null bytes stripped, long strings truncated,
// oversized keys dropped, nesting capped. Never errors - hostile input
// degrades to an empty map.
func SanitizeMetadata(metadata map[string]any) map[string]any {
	if metadata == nil {
		return map[string]any{}
	}
	return sanitizeMap(metadata, 0)
}

func sanitizeMap(m map[string]any, depth int) map[string]any {
	out := make(map[string]any, len(m))
	if depth >= MaxMetadataDepth {
		return out
	}
	for k, v := range m {
		k = strings.ReplaceAll(k, "\x00", "")
		if k == "" || len(k) > MaxMetadataKeyLength {
			continue
		}
		if sv := sanitizeValue(v, depth+1); sv != nil {
			out[k] = sv
		}
	}
	return out
}

func sanitizeValue(v any, depth int) any {
	switch val := v.(type) {
	case string:
		val = strings.ReplaceAll(val, "\x00", "")
		runes := []rune(val)
		if len(runes) > MaxMetadataStringLength {
			return string(runes[:MaxMetadataStringLength])
		}
		return val
	case bool, float64, float32, int, int32, int64, uint, uint32, uint64, json.Number:
		return val
	case map[string]any:
		if depth >= MaxMetadataDepth {
			return nil
		}
		return sanitizeMap(val, depth)
	case []any:
		if depth >= MaxMetadataDepth {
			return nil
		}
		out := make([]any, 0, len(val))
		for _, item := range val {
			if sv := sanitizeValue(item, depth+1); sv != nil {
				out = append(out, sv)
			}
		}
		return out
	case nil:
		return nil
	default:
		// Unknown types do not serialize predictably; drop them.
		return nil
	}
}

// MetadataJSONSize reports whether the serialized form of metadata
// stays inside the backend's size cap.
func MetadataJSONSize(metadata map[string]any) bool {
	data, err := json.Marshal(metadata)
	if err != nil {
		return false
	}
	return len(data) <= MaxMetadataJSONKB*1024
}
