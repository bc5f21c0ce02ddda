// Copyright 2019 James Cote
// All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package avatax

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/jfcote87/ctxclient"
)

// DefaultTimeout limits a call when the context has no deadline.
const DefaultTimeout = 10 * time.Second

// APIVersion prefixes every request path.
const APIVersion = "1.0"

// Environment selects the service host.
type Environment int

// Environments
const (
	Development Environment = iota
	Production
)

// BaseURL returns the host url of the environment.
func (e Environment) BaseURL() string {
	if e == Production {
		return "https://rest.avalara.net"
	}
	return "https://development.avalara.net"
}

func (e Environment) String() string {
	if e == Production {
		return "production"
	}
	return "development"
}

// UnmarshalText reads development (dev, sandbox) or production
// (prod, live).
func (e *Environment) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "", "development", "dev", "sandbox":
		*e = Development
	case "production", "prod", "live":
		*e = Production
	default:
		return errors.Errorf("unknown environment %q", string(b))
	}
	return nil
}

// Transport sends a Request.  Errors must be a *RemoteError when the
// service answered and a *ConnectivityError otherwise.
type Transport interface {
	Send(ctx context.Context, r *Request) (*RawResponse, error)
}

// HTTPTransport sends requests to the REST service using basic
// authentication.  It is safe for concurrent use.
type HTTPTransport struct {
	// BaseURL overrides the environment's host, i.e. for a proxy.
	BaseURL       string
	Environment   Environment
	AccountNumber string
	LicenseKey    string
	// Timeout is used when the context has no deadline.  Zero means
	// DefaultTimeout.
	Timeout time.Duration
	// Set if a unique client is need.  nil uses ctxclient's default.
	HTTPClientFunc ctxclient.Func
}

func (t *HTTPTransport) url(r *Request) string {
	base := t.BaseURL
	if base == "" {
		base = t.Environment.BaseURL()
	}
	u := strings.TrimRight(base, "/") + "/" + strings.TrimLeft(r.Path, "/")
	if len(r.Query) > 0 {
		u += "?" + r.Query.Encode()
	}
	return u
}

// Send executes the request.  Timeouts and network failures are
// returned as *ConnectivityError.
func (t *HTTPTransport) Send(ctx context.Context, r *Request) (*RawResponse, error) {
	var body io.Reader
	if r.Body != nil {
		b, err := r.Body.MarshalJSON()
		if err != nil {
			return nil, errors.Wrap(err, "marshal request")
		}
		body = bytes.NewReader(b)
	}
	if _, ok := ctx.Deadline(); !ok {
		timeout := t.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, t.url(r), body)
	if err != nil {
		return nil, errors.Wrap(err, "new request")
	}
	req.SetBasicAuth(t.AccountNumber, t.LicenseKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "text/json; charset=utf-8")
	}

	// handle timeouts and non 2xx responses
	res, err := t.HTTPClientFunc.Do(ctx, req)
	if err != nil {
		var ns *ctxclient.NotSuccess
		if errors.As(err, &ns) {
			return nil, remoteError(ns.StatusCode, ns.Body)
		}
		return nil, &ConnectivityError{Cause: err}
	}
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &ConnectivityError{Cause: err}
	}
	f, err := DecodeFieldsBytes(b)
	if err != nil {
		return nil, remoteError(res.StatusCode, b)
	}
	return &RawResponse{StatusCode: res.StatusCode, Body: f}, nil
}

// remoteError decodes the body of a reply that cannot be read as a
// successful response.  Body is nil when b is not a json object.
func remoteError(status int, b []byte) *RemoteError {
	f, err := DecodeFieldsBytes(b)
	if err != nil {
		return &RemoteError{StatusCode: status, Text: truncate(string(b), 512)}
	}
	return &RemoteError{StatusCode: status, Body: f}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
