// Package mcp serves doomscroll readings to AI tools over the Model Context
// Protocol (JSON-RPC on stdio).
package mcp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/doomscroll/doomscroll/internal/scroll"
	"github.com/doomscroll/doomscroll/internal/store"
	"github.com/doomscroll/doomscroll/pkg/models"
)

const protocolVersion = "2024-11-05"

// Classifier turns a hypothetical count into a reading.
type Classifier interface {
	Classify(count uint64) models.Reading
	Landmarks() scroll.Table
}

// Server implements the MCP protocol over a line-delimited stream
type Server struct {
	store      *store.Store
	classifier Classifier
	reader     *bufio.Reader
	writer     io.Writer
	logger     *slog.Logger
	version    string
}

// NewServer creates a new MCP server. s may be nil when no journal exists.
func NewServer(s *store.Store, classifier Classifier, r io.Reader, w io.Writer, version string, logger *slog.Logger) *Server {
	return &Server{
		store:      s,
		classifier: classifier,
		reader:     bufio.NewReader(r),
		writer:     w,
		logger:     logger,
		version:    version,
	}
}

// Run serves requests until the input closes
func (s *Server) Run() error {
	for {
		line, err := s.reader.ReadString('\n')
		if strings.TrimSpace(line) != "" {
			s.handleLine(line)
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read error: %w", err)
		}
	}
}

func (s *Server) handleLine(line string) {
	var req JSONRPCRequest
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		s.sendError(nil, -32700, "Parse error")
		return
	}
	// Notifications carry no id and get no response.
	if req.ID == nil {
		s.logger.Debug("mcp notification", "method", req.Method)
		return
	}
	s.handleRequest(&req)
}

type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleRequest(req *JSONRPCRequest) {
	switch req.Method {
	case "initialize":
		s.handleInitialize(req)
	case "ping":
		s.sendResult(req.ID, map[string]interface{}{})
	case "tools/list":
		s.handleToolsList(req)
	case "tools/call":
		s.handleToolsCall(req)
	default:
		s.sendError(req.ID, -32601, "Method not found")
	}
}

func (s *Server) handleInitialize(req *JSONRPCRequest) {
	result := map[string]interface{}{
		"protocolVersion": protocolVersion,
		"serverInfo": map[string]string{
			"name":    "doomscroll",
			"version": s.version,
		},
		"capabilities": map[string]interface{}{
			"tools": map[string]interface{}{},
		},
	}
	s.sendResult(req.ID, result)
}

func (s *Server) handleToolsList(req *JSONRPCRequest) {
	tools := []map[string]interface{}{
		{
			"name":        "doomscroll_status",
			"description": "How far the user has scrolled in the latest session",
			"inputSchema": map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			"name":        "doomscroll_classify",
			"description": "Convert a scroll count into feet and the nearest landmark",
			"inputSchema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"count": map[string]interface{}{
						"type":        "integer",
						"description": "Number of accepted scrolls",
						"minimum":     0,
					},
				},
				"required": []string{"count"},
			},
		},
		{
			"name":        "doomscroll_landmarks",
			"description": "List the landmark table used for classification",
			"inputSchema": map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}

	s.sendResult(req.ID, map[string]interface{}{"tools": tools})
}

func (s *Server) handleToolsCall(req *JSONRPCRequest) {
	var params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}

	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.sendError(req.ID, -32602, "Invalid params")
		return
	}

	switch params.Name {
	case "doomscroll_status":
		s.handleStatus(req)
	case "doomscroll_classify":
		s.handleClassify(req, params.Arguments)
	case "doomscroll_landmarks":
		s.handleLandmarks(req)
	default:
		s.sendError(req.ID, -32602, "Unknown tool")
	}
}

func (s *Server) handleStatus(req *JSONRPCRequest) {
	if s.store == nil {
		s.sendText(req.ID, "No journal found. Start the daemon with the journal enabled.")
		return
	}

	sess, err := s.store.LatestSession()
	if err != nil {
		s.sendError(req.ID, -32000, err.Error())
		return
	}
	stats, err := s.store.GetStats()
	if err != nil {
		s.sendError(req.ID, -32000, err.Error())
		return
	}

	var b strings.Builder
	b.WriteString("Doomscroll Status\n\n")
	if sess == nil {
		b.WriteString("No sessions recorded yet.\n")
	} else {
		state := "ended"
		if sess.Active() {
			state = "active"
		}
		fmt.Fprintf(&b, "Latest session (%s) for %s\n", state, sess.AppID)
		fmt.Fprintf(&b, "  Scrolls: %d\n  Distance: %.1f ft\n", sess.Count, sess.Feet)
		if sess.Landmark != "" {
			fmt.Fprintf(&b, "  That is %s\n", sess.Landmark)
		}
	}
	fmt.Fprintf(&b, "\nAll time: %d scrolls over %d sessions (%.1f ft)\n",
		stats.TotalScrolls, stats.Sessions, stats.TotalFeet)

	s.sendText(req.ID, b.String())
}

func (s *Server) handleClassify(req *JSONRPCRequest, args json.RawMessage) {
	var params struct {
		Count *int64 `json:"count"`
	}
	if err := json.Unmarshal(args, &params); err != nil || params.Count == nil || *params.Count < 0 {
		s.sendError(req.ID, -32602, "count must be a non-negative integer")
		return
	}

	r := s.classifier.Classify(uint64(*params.Count))
	text := fmt.Sprintf("%d scrolls is %.1f ft: %s", r.Count, r.Feet, r.Landmark)
	s.sendText(req.ID, text)
}

func (s *Server) handleLandmarks(req *JSONRPCRequest) {
	var b strings.Builder
	for i, l := range s.classifier.Landmarks() {
		fmt.Fprintf(&b, "%d. %s\n", i+1, l)
	}
	s.sendText(req.ID, b.String())
}

func (s *Server) sendText(id interface{}, text string) {
	s.sendResult(id, map[string]interface{}{
		"content": []map[string]interface{}{
			{"type": "text", "text": text},
		},
	})
}

func (s *Server) sendResult(id interface{}, result interface{}) {
	resp := JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	}
	s.send(resp)
}

func (s *Server) sendError(id interface{}, code int, message string) {
	resp := JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &RPCError{Code: code, Message: message},
	}
	s.send(resp)
}

func (s *Server) send(resp JSONRPCResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("failed to marshal mcp response", "error", err)
		return
	}
	fmt.Fprintf(s.writer, "%s\n", data)
}
