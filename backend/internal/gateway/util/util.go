package util

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"college_portal/backend/internal/shared"
)

// JSONResponse structure for successful responses
type JSONResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// JSONError structure for error responses
type JSONError struct {
	Success bool   `json:"success"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

// WriteJSON is a helper to write JSON responses
func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	var response interface{}
	if responseMap, ok := payload.(map[string]interface{}); ok && responseMap["success"] != nil {
		// Already enveloped by the caller
		response = payload
	} else if status >= 200 && status < 300 {
		response = JSONResponse{Success: true, Data: payload}
	} else {
		response = JSONError{Success: false, Message: "Unknown error"}
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		zap.L().Warn("writing JSON response", zap.Error(err))
	}
}

// WriteJSONError is a helper to write standardized error JSON responses
func WriteJSONError(w http.ResponseWriter, status int, message string) {
	writeError(w, status, "", message)
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	zap.L().Debug("http error", zap.Int("status", status), zap.String("kind", kind), zap.String("message", message))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errorResponse := JSONError{
		Success: false,
		Kind:    kind,
		Message: message,
	}
	if err := json.NewEncoder(w).Encode(errorResponse); err != nil {
		zap.L().Warn("writing JSON error response", zap.Error(err))
	}
}

// HandleError translates engine errors into HTTP responses. Engine errors
// carry a gRPC status, so the code mapping is shared with gRPC callers.
func HandleError(w http.ResponseWriter, err error) {
	kind := string(shared.KindOf(err))

	st, ok := status.FromError(err)
	if !ok {
		zap.L().Error("unclassified error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, kind, "Internal server error")
		return
	}

	switch st.Code() {
	case codes.InvalidArgument:
		writeError(w, http.StatusBadRequest, kind, st.Message())
	case codes.Unauthenticated:
		writeError(w, http.StatusUnauthorized, kind, st.Message())
	case codes.PermissionDenied:
		writeError(w, http.StatusForbidden, kind, st.Message())
	case codes.NotFound:
		writeError(w, http.StatusNotFound, kind, st.Message())
	case codes.AlreadyExists:
		writeError(w, http.StatusConflict, kind, st.Message())
	case codes.Unavailable:
		zap.L().Error("store unavailable", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, kind, "Service Unavailable: the result store is unreachable.")
	case codes.DeadlineExceeded, codes.Canceled:
		writeError(w, http.StatusGatewayTimeout, kind, "Service Timeout: the result store took too long to respond.")
	default:
		zap.L().Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, kind, st.Message())
	}
}

// ExtractToken extracts the token from the Authorization header (Bearer <token>)
func ExtractToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization header missing")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", errors.New("invalid authorization header format")
	}

	return parts[1], nil
}

// QueryInt32 parses an optional int32 query parameter. Missing yields 0.
func QueryInt32(r *http.Request, name string) (int32, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, shared.NewValidationError("%s must be an integer", name)
	}
	return int32(v), nil
}

// QueryBool parses an optional boolean query parameter. Missing yields nil.
func QueryBool(r *http.Request, name string) (*bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, shared.NewValidationError("%s must be true or false", name)
	}
	return &v, nil
}
