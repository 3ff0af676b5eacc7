package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ironsheep/keypoint-annotator/internal/auth"
	"github.com/ironsheep/keypoint-annotator/internal/catalog"
	"github.com/ironsheep/keypoint-annotator/internal/imaging"
	"github.com/ironsheep/keypoint-annotator/internal/session"
)

// JSON-RPC error codes.
const (
	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeEventFailed    = -32000
	CodeUnauthorized   = -32001
	CodeSessionAborted = -32002
)

// localToken keys the single session of stdio mode.
const localToken = "local"

// RPCRequest represents an incoming JSON-RPC request
type RPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// RPCResponse represents an outgoing JSON-RPC response
type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC error
type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Options wires the server's collaborators.
type Options struct {
	Catalog *catalog.Catalog
	Images  *imaging.ImageSet
	Session session.Config
	Sink    session.SaveSink

	// Accounts backs the HTTP login pages and gate. Without it every
	// caller is authorized, which is what stdio mode wants.
	Accounts *auth.Registry

	Logger  zerolog.Logger
	Version string
}

// Server routes JSON-RPC methods to per-user annotation sessions.
type Server struct {
	catalog  *catalog.Catalog
	images   *imaging.ImageSet
	cfg      session.Config
	sink     session.SaveSink
	accounts *auth.Registry
	gate     auth.Authorizer
	log      zerolog.Logger
	version  string

	sessions *store
	metrics  *metrics
}

// New creates a server.
func New(opts Options) (*Server, error) {
	if opts.Catalog == nil || opts.Images == nil {
		return nil, errors.New("server needs a catalog and an image set")
	}
	if err := opts.Session.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		catalog:  opts.Catalog,
		images:   opts.Images,
		cfg:      opts.Session,
		sink:     opts.Sink,
		accounts: opts.Accounts,
		gate:     auth.Local{},
		log:      opts.Logger,
		version:  opts.Version,
		sessions: newStore(),
	}
	if opts.Accounts != nil {
		s.gate = opts.Accounts
	}
	if s.version == "" {
		s.version = "dev"
	}

	m, err := newMetrics(s.sessions.len)
	if err != nil {
		return nil, err
	}
	s.metrics = m
	return s, nil
}

// Run serves a single local session over newline-delimited JSON-RPC,
// reading requests from in and writing responses to out until in is
// exhausted or ctx is canceled. A line longer than maxRequestBytes is
// answered with a parse error and skipped.
func (s *Server) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	// Drag paths can make requests large
	reader := bufio.NewReaderSize(in, 64*1024)
	encoder := json.NewEncoder(out)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, tooLong, readErr := readLine(reader, maxRequestBytes)

		var resp *RPCResponse
		switch {
		case tooLong:
			s.log.Warn().Int("limit", maxRequestBytes).Msg("request line too long")
			resp = s.errorResponse(nil, CodeParseError, "Parse error",
				fmt.Sprintf("request exceeds %d bytes", maxRequestBytes))
		case len(line) == 0:
		default:
			var req RPCRequest
			if err := json.Unmarshal(line, &req); err != nil {
				s.log.Warn().Err(err).Msg("failed to parse request")
				resp = s.errorResponse(nil, CodeParseError, "Parse error", err.Error())
			} else {
				resp = s.handleRequest(ctx, localToken, &req)
			}
		}

		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				return fmt.Errorf("failed to encode response: %w", err)
			}
		}

		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("read error: %w", readErr)
		}
	}
}

// readLine reads one line without its line ending. When the line is longer
// than limit the rest of it is consumed and discarded, and tooLong is set.
func readLine(r *bufio.Reader, limit int) (line []byte, tooLong bool, err error) {
	for {
		chunk, err := r.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(chunk) > limit+1 {
				tooLong, line = true, nil
			} else {
				line = append(line, chunk...)
			}
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		return bytes.TrimRight(line, "\r\n"), tooLong, err
	}
}

// handleRequest routes a request on behalf of the login identified by
// token. Notifications get no response.
func (s *Server) handleRequest(ctx context.Context, token string, req *RPCRequest) *RPCResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "ping":
		return s.resultResponse(req.ID, map[string]interface{}{})
	case "events/list":
		return s.handleEventsList(req)
	case "catalog/list":
		return s.handleCatalogList(req)
	}

	if !s.gate.Authorized(token) {
		return s.errorResponse(req.ID, CodeUnauthorized, "Unauthorized", "sign in first")
	}
	if !isSessionMethod(req.Method) {
		return s.errorResponse(req.ID, CodeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method), "")
	}

	e, err := s.sessions.getOrCreate(token, s.newSession)
	if err != nil {
		return s.errorResponse(req.ID, CodeEventFailed, "Session unavailable", err.Error())
	}

	e.mu.Lock()
	result, err := s.callSessionMethod(ctx, e.sess, req.Method, req.Params)
	e.mu.Unlock()

	if err != nil {
		if !session.IsRecoverable(err) {
			s.sessions.dropIf(token, e)
		}
		code, msg := classify(err)
		return s.errorResponse(req.ID, code, msg, err.Error())
	}
	return s.resultResponse(req.ID, result)
}

func (s *Server) newSession() (*session.Session, error) {
	id := uuid.NewString()
	sess, err := session.New(id, s.cfg, s.catalog, s.images, s.sink,
		session.WithLogger(s.log.With().Str("component", "session").Logger()))
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("session", id).Strs("labels", s.catalog.Subset()).Msg("session started")
	return sess, nil
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *RPCRequest) *RPCResponse {
	return s.resultResponse(req.ID, map[string]interface{}{
		"protocolVersion": "2.0",
		"capabilities": map[string]interface{}{
			"events": map[string]interface{}{},
		},
		"serverInfo": map[string]interface{}{
			"name":    "keypoint-annotator",
			"version": s.version,
		},
	})
}

func (s *Server) resultResponse(id interface{}, result interface{}) *RPCResponse {
	return &RPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *RPCResponse {
	rpcErr := &RPCError{
		Code:    code,
		Message: message,
	}
	if data != "" {
		rpcErr.Data = data
	}
	return &RPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   rpcErr,
	}
}

// classify maps a session error to a JSON-RPC code and message.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, session.ErrInvariant), errors.Is(err, session.ErrSessionAborted):
		return CodeSessionAborted, "Session aborted"
	case errors.Is(err, session.ErrMalformedDrag):
		return CodeInvalidParams, "Malformed drag"
	case errors.Is(err, session.ErrInvalidEvent), errors.Is(err, session.ErrMalformedState), errors.Is(err, errBadParams):
		return CodeInvalidParams, "Invalid params"
	default:
		return CodeEventFailed, "Event failed"
	}
}
