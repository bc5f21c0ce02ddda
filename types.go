// Copyright 2019 James Cote
// All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package avatax

import (
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.9999999",
	"2006-01-02T15:04:05",
	"01/02/2006 15:04:05",
}

// Date is a calendar date sent to and received from the service
// as YYYY-MM-DD.  The zero value is an absent date.
type Date struct {
	t *time.Time
}

// NewDate returns the Date for the given day.
func NewDate(year int, month time.Month, day int) Date {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Date{t: &t}
}

// TimeToDate converts a time.Time to the Date of its calendar day
// in t's location.
func TimeToDate(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	return NewDate(t.Date())
}

// ParseDate reads YYYY-MM-DD or MM/DD/YYYY.  A blank string returns
// the nil Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	layout := dateLayout
	if strings.Count(s, "/") > 1 {
		layout = "01/02/2006"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return Date{}, err
	}
	return TimeToDate(t), nil
}

// IsNil returns whether the underlying time is nil
func (dx Date) IsNil() bool {
	return dx.t == nil || dx.t.IsZero()
}

// Val returns the date as a *time.Time.  Blanks returned as nil
func (dx Date) Val() *time.Time {
	if dx.IsNil() {
		return nil
	}
	return dx.t
}

// String returns the date in YYYY-MM-DD format
func (dx Date) String() string {
	if dx.IsNil() {
		return ""
	}
	return dx.t.Format(dateLayout)
}

// MarshalText encodes the date as YYYY-MM-DD
func (dx Date) MarshalText() ([]byte, error) {
	return []byte(dx.String()), nil
}

// UnmarshalText decodes YYYY-MM-DD
func (dx *Date) UnmarshalText(b []byte) error {
	d, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*dx = d
	return nil
}

// Datetime is a timestamp returned by the service.
type Datetime struct {
	t *time.Time
}

// TimeToDatetime converts a time.Time to a Datetime
func TimeToDatetime(t time.Time) Datetime {
	if t.IsZero() {
		return Datetime{}
	}
	return Datetime{t: &t}
}

// ParseDatetime reads the timestamp formats returned by the
// service.  Timestamps without a zone are read as UTC.
func ParseDatetime(s string) (Datetime, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Datetime{}, nil
	}
	var err error
	for _, layout := range datetimeLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return Datetime{t: &t}, nil
		}
	}
	return Datetime{}, err
}

// IsNil returns whether the underlying time is nil
func (dt Datetime) IsNil() bool {
	return dt.t == nil || dt.t.IsZero()
}

// Val returns the timestamp.  Blanks returned as nil
func (dt Datetime) Val() *time.Time {
	if dt.IsNil() {
		return nil
	}
	return dt.t
}

// String returns an RFC3339 output of the timestamp
func (dt Datetime) String() string {
	if dt.IsNil() {
		return ""
	}
	return dt.t.Format(time.RFC3339Nano)
}

// DocType is the kind of transaction a Document represents.
type DocType string

// Document types accepted by the service
const (
	SalesOrder               DocType = "SalesOrder"
	SalesInvoice             DocType = "SalesInvoice"
	ReturnOrder              DocType = "ReturnOrder"
	ReturnInvoice            DocType = "ReturnInvoice"
	PurchaseOrder            DocType = "PurchaseOrder"
	PurchaseInvoice          DocType = "PurchaseInvoice"
	InventoryTransferOrder   DocType = "InventoryTransferOrder"
	InventoryTransferInvoice DocType = "InventoryTransferInvoice"
)

// the service ignores Commit on orders, so committing promotes them
var invoiceTypes = map[DocType]DocType{
	SalesOrder:             SalesInvoice,
	ReturnOrder:            ReturnInvoice,
	PurchaseOrder:          PurchaseInvoice,
	InventoryTransferOrder: InventoryTransferInvoice,
}

// Valid reports whether dt is one of the eight document types.
func (dt DocType) Valid() bool {
	switch dt {
	case SalesOrder, SalesInvoice, ReturnOrder, ReturnInvoice,
		PurchaseOrder, PurchaseInvoice, InventoryTransferOrder, InventoryTransferInvoice:
		return true
	}
	return false
}

// InvoiceType returns the invoice variant of an order type.  All
// other values are returned unchanged.
func (dt DocType) InvoiceType() DocType {
	if inv, ok := invoiceTypes[dt]; ok {
		return inv
	}
	return dt
}

// OverrideType selects what a TaxOverride replaces.
type OverrideType string

// Override types
const (
	OverrideNone      OverrideType = "None"
	OverrideTaxAmount OverrideType = "TaxAmount"
	OverrideTaxDate   OverrideType = "TaxDate"
	OverrideExemption OverrideType = "Exemption"
)

// Valid reports whether ot is a known override type.
func (ot OverrideType) Valid() bool {
	switch ot {
	case OverrideNone, OverrideTaxAmount, OverrideTaxDate, OverrideExemption:
		return true
	}
	return false
}

// CancelCode is the reason given when canceling a transaction.
type CancelCode string

// Cancel reasons
const (
	PostFailed         CancelCode = "PostFailed"
	DocDeleted         CancelCode = "DocDeleted"
	DocVoided          CancelCode = "DocVoided"
	AdjustmentCanceled CancelCode = "AdjustmentCanceled"
)

// Valid reports whether cc is an accepted cancel reason.
func (cc CancelCode) Valid() bool {
	switch cc {
	case PostFailed, DocDeleted, DocVoided, AdjustmentCanceled:
		return true
	}
	return false
}

// Result codes returned by the service
const (
	ResultSuccess   = "Success"
	ResultWarning   = "Warning"
	ResultError     = "Error"
	ResultException = "Exception"
)
