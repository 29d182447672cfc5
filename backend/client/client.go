// Package client talks to the progress and auth endpoints of the API server.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

const DefaultTimeout = 10 * time.Second

// ErrNotAuthenticated is returned before any request is made when the
// session holds no token.
var ErrNotAuthenticated = errors.New("not signed in")

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// api is the transport shared by the typed clients.
type api struct {
	baseURL string
	session *Session
	timeout time.Duration
}

func newAPI(baseURL string, session *Session, timeout time.Duration) api {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return api{
		baseURL: strings.TrimRight(baseURL, "/"),
		session: session,
		timeout: timeout,
	}
}

func (a api) url(path string) string {
	return a.baseURL + path
}

// do sends one request. body is sent as JSON when non-nil and the response is
// decoded into out when non-nil.
func (a api) do(ctx context.Context, agent *fiber.Agent, authenticated bool, body, out interface{}) error {
	if err := ctx.Err(); err != nil {
		fiber.ReleaseAgent(agent)
		return err
	}

	timeout := a.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	agent.Timeout(timeout)
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)

	if authenticated {
		token := ""
		if a.session != nil {
			token = a.session.Token()
		}
		if token == "" {
			fiber.ReleaseAgent(agent)
			return ErrNotAuthenticated
		}
		agent.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	if body != nil {
		agent.JSON(body)
	}

	status, payload, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("request failed: %w", errors.Join(errs...))
	}

	if status < 200 || status > 299 {
		apiErr := &APIError{Status: status, Message: http.StatusText(status)}
		var eb errorBody
		if json.Unmarshal(payload, &eb) == nil {
			if eb.Message != "" {
				apiErr.Message = eb.Message
			} else if eb.Error != "" {
				apiErr.Message = eb.Error
			}
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
