// Copyright 2019 James Cote
// All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package avatax

import "context"

// AuditRecorder is notified after every call that produced a
// response.  docCode is blank when the call had no document.  A
// recorder shared by a Service must be safe for concurrent use.
//
// Connectivity failures are never recorded.
type AuditRecorder interface {
	RecordSuccess(ctx context.Context, docCode string) error
	RecordFailure(ctx context.Context, docCode string, details []ErrorDetail) error
}

// NopRecorder discards all records.
type NopRecorder struct{}

// RecordSuccess does nothing
func (NopRecorder) RecordSuccess(ctx context.Context, docCode string) error { return nil }

// RecordFailure does nothing
func (NopRecorder) RecordFailure(ctx context.Context, docCode string, details []ErrorDetail) error {
	return nil
}
