package gateways

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/victorybazaar/victorybazaar-backend/pkg/errors"
)

// DefaultTimeout bounds every outbound gateway call.
const DefaultTimeout = 15 * time.Second

// NewHTTPClient returns the client used by the REST adapters.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}

type restCall struct {
	method  string
	url     string
	headers map[string]string
	body    io.Reader
	user    string
	pass    string
}

func jsonBody(v any) (io.Reader, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode gateway request")
	}
	return bytes.NewReader(raw), nil
}

// do executes call and decodes a JSON response into out. Non-2xx responses
// become CodeGateway errors carrying a trimmed body.
func do(ctx context.Context, client *http.Client, gateway string, call restCall, out any) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, call.method, call.url, call.body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build gateway request")
	}
	if call.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for key, value := range call.headers {
		req.Header.Set(key, value)
	}
	if call.user != "" {
		req.SetBasicAuth(call.user, call.pass)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, fmt.Sprintf("%s request failed", gateway))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, fmt.Sprintf("read %s response", gateway))
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return raw, pkgerrors.Newf(pkgerrors.CodeGateway, "%s returned %d", gateway, resp.StatusCode).
			WithDetails(map[string]any{"status": resp.StatusCode, "body": snippet(raw)})
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return raw, pkgerrors.Wrap(pkgerrors.CodeGateway, err, fmt.Sprintf("decode %s response", gateway))
		}
	}
	return raw, nil
}

func snippet(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > 256 {
		return s[:256]
	}
	return s
}
