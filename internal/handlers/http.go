package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/dannyrandall/movies-apigw/internal/movies"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ServeHTTP runs the handler behind a plain HTTP server for local use.
// Input errors become 400 responses and any other failure a 500.
func (h *APIGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		httpError(w, http.StatusBadRequest, h.logger(), "read body: %s", err)
		return
	}

	resp, err := h.Handle(r.Context(), ProxyRequest(r, body))
	if err != nil {
		httpError(w, statusFor(err), h.logger(), "%s", err)
		return
	}

	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.WriteString(w, resp.Body); err != nil {
		h.logger().Error("write response", "error", err)
	}
}

// ProxyRequest converts an HTTP request into the event API Gateway would
// deliver for it.
func ProxyRequest(r *http.Request, body []byte) events.APIGatewayProxyRequest {
	resource := r.URL.Path
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
		resource = rctx.RoutePattern()
	}

	sourceIP := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		sourceIP = host
	}

	headers := make(map[string]string, len(r.Header))
	for k := range r.Header {
		headers[k] = r.Header.Get(k)
	}

	return events.APIGatewayProxyRequest{
		Resource:   resource,
		Path:       r.URL.Path,
		HTTPMethod: r.Method,
		Headers:    headers,
		Body:       string(body),
		RequestContext: events.APIGatewayProxyRequestContext{
			RequestID:    middleware.GetReqID(r.Context()),
			ResourcePath: resource,
			HTTPMethod:   r.Method,
			Path:         r.URL.Path,
			Identity: events.APIGatewayRequestIdentity{
				SourceIP:  sourceIP,
				UserAgent: r.UserAgent(),
			},
		},
	}
}

func statusFor(err error) int {
	var (
		decodeErr  *movies.DecodeError
		missingErr *movies.MissingFieldError
		invalidErr *movies.InvalidFieldError
	)
	switch {
	case errors.As(err, &decodeErr), errors.As(err, &missingErr), errors.As(err, &invalidErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func httpError(w http.ResponseWriter, code int, log *slog.Logger, format string, a ...any) {
	str := fmt.Sprintf(format, a...)
	http.Error(w, str, code)
	log.Info("returning error", "status", code, "error", str)
}
