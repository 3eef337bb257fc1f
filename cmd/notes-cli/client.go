package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"gopkg.in/yaml.v3"
)

// CLI holds the client configuration
type CLI struct {
	BaseURL string
	Token   string
	Client  *http.Client
	Out     io.Writer
	Format  string
}

// APIError is a non-2xx answer from the service.
type APIError struct {
	Status   int
	Messages []string
}

func (e *APIError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("HTTP %d", e.Status)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, strings.Join(e.Messages, "; "))
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

func (c *CLI) get(ctx context.Context, path string, query url.Values, out any) error {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return c.request(ctx, http.MethodGet, path, nil, out)
}

func (c *CLI) post(ctx context.Context, path string, body, out any) error {
	return c.request(ctx, http.MethodPost, path, body, out)
}

func (c *CLI) patch(ctx context.Context, path string, body, out any) error {
	return c.request(ctx, http.MethodPatch, path, body, out)
}

func (c *CLI) delete(ctx context.Context, path string) error {
	return c.request(ctx, http.MethodDelete, path, nil, nil)
}

func (c *CLI) request(ctx context.Context, method, path string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.BaseURL, "/")+path, bodyReader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}

// decodeError reads the service error body, whose message is either a
// string or a list of validation messages.
func decodeError(status int, data []byte) error {
	var body struct {
		Message json.RawMessage `json:"message"`
	}
	apiErr := &APIError{Status: status}
	if json.Unmarshal(data, &body) != nil || len(body.Message) == 0 {
		if s := strings.TrimSpace(string(data)); s != "" {
			apiErr.Messages = []string{s}
		}
		return apiErr
	}

	var list []string
	if json.Unmarshal(body.Message, &list) == nil {
		apiErr.Messages = list
		return apiErr
	}
	var msg string
	if json.Unmarshal(body.Message, &msg) == nil {
		apiErr.Messages = []string{msg}
	}
	return apiErr
}

// structured writes v as JSON or YAML and reports whether it did. The table
// format is left to each command.
func (c *CLI) structured(v any) (bool, error) {
	switch c.Format {
	case "json":
		enc := json.NewEncoder(c.Out)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case "yaml":
		out, err := yaml.Marshal(v)
		if err != nil {
			return true, err
		}
		_, err = c.Out.Write(out)
		return true, err
	case "", "table":
		return false, nil
	default:
		return true, fmt.Errorf("unknown output format %q", c.Format)
	}
}
