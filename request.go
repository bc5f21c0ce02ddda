// Copyright 2019 James Cote
// All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package avatax

import (
	"fmt"
	"net/url"
)

// Request describes a single call to the service.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   Payload
}

// RawResponse is a successful reply decoded into Fields.
type RawResponse struct {
	StatusCode int
	Body       Fields
}

// RemoteError is returned by a Transport when the service answered
// with a non-2xx status or a body that is not a json object.  Body is
// nil when the body could not be decoded; Text then holds the body.
type RemoteError struct {
	StatusCode int
	Body       Fields
	Text       string
}

func (e *RemoteError) Error() string {
	if e.Body == nil {
		return fmt.Sprintf("avatax: status %d: %s", e.StatusCode, e.Text)
	}
	return fmt.Sprintf("avatax: status %d", e.StatusCode)
}
