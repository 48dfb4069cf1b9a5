// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

// Wire types mirror the backend's pydantic schemas. Timestamps stay as
// strings: the backend emits naive ISO-8601 datetimes without a zone,
// which time.Time refuses to parse.

// ChatRequest is the body for both chat endpoints.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	Stream    bool   `json:"stream"`
}

// ChatResponse is the non-streaming completion result.
type ChatResponse struct {
	Message        string           `json:"message"`
	SessionID      string           `json:"session_id"`
	AgentUsed      string           `json:"agent_used"`
	RouteReasoning string           `json:"route_reasoning,omitempty"`
	ToolResults    []map[string]any `json:"tool_results,omitempty"`
	CreatedAt      string           `json:"created_at,omitempty"`
}

// UploadResponse is returned after a multipart file upload.
type UploadResponse struct {
	DocumentID    string `json:"document_id"`
	Filename      string `json:"filename"`
	FileType      string `json:"file_type"`
	ChunksCreated int    `json:"chunks_created"`
	TotalTokens   int    `json:"total_tokens"`
	UploadTime    string `json:"upload_time"`
	Status        string `json:"status"`
	Message       string `json:"message"`
}

// DocumentInfo describes one indexed document.
type DocumentInfo struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	FileType    string `json:"file_type"`
	UploadTime  string `json:"upload_time"`
	ChunkCount  int    `json:"chunk_count"`
	TotalTokens int    `json:"total_tokens"`
}

// documentListResponse wraps the document listing.
type documentListResponse struct {
	Documents []DocumentInfo `json:"documents"`
}

// DeleteDocumentResponse confirms a document removal.
type DeleteDocumentResponse struct {
	DocumentID string `json:"document_id"`
	Status     string `json:"status"`
}

// SessionInfo summarizes a server-side session.
type SessionInfo struct {
	SessionID    string `json:"session_id"`
	CreatedAt    string `json:"created_at,omitempty"`
	MessageCount int    `json:"message_count,omitempty"`
}

// sessionListResponse wraps the session listing.
type sessionListResponse struct {
	Sessions []SessionInfo `json:"sessions"`
}

// ClearSessionResponse confirms backend-side session deletion.
type ClearSessionResponse struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id"`
}

// HealthResponse reports backend status and active configuration.
type HealthResponse struct {
	Status          string   `json:"status"`
	LLMProvider     string   `json:"llm_provider"`
	LLMModel        string   `json:"llm_model"`
	MemoryBackend   string   `json:"memory_backend"`
	AvailableAgents []string `json:"available_agents"`
}

// AgentInfo describes one backend agent.
type AgentInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tools       []string `json:"tools"`
}

// agentListResponse wraps the agent listing.
type agentListResponse struct {
	Agents []AgentInfo `json:"agents"`
}

// errorBody covers both backend error shapes: FastAPI's {"detail": ...}
// for HTTP rejections and {"error": ...} inside SSE error events.
type errorBody struct {
	Detail any    `json:"detail"`
	Error  string `json:"error"`
}

// metadataEvent is the payload of an SSE metadata event.
type metadataEvent struct {
	SessionID string `json:"session_id"`
}

// agentEvent is the payload of an SSE agent event.
type agentEvent struct {
	Agent string `json:"agent"`
}

// errorEvent is the payload of an SSE error event.
type errorEvent struct {
	Error string `json:"error"`
}
