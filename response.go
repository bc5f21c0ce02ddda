// Copyright 2019 James Cote
// All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package avatax

import (
	"github.com/shopspring/decimal"
)

// Message is an entry of a response's Messages list.
type Message struct {
	Summary  string
	Details  string
	RefersTo string
	Severity string
	Source   string
}

func (m *Message) fields() []field {
	return []field{
		stringField("Summary", &m.Summary, 0),
		stringField("Details", &m.Details, 0),
		stringField("RefersTo", &m.RefersTo, 0),
		stringField("Severity", &m.Severity, 0),
		stringField("Source", &m.Source, 0),
	}
}

func (m *Message) validate() error { return nil }

// Detail returns the message as an ErrorDetail.  The source is the
// offending field when given, otherwise the component that failed.
func (m *Message) Detail() ErrorDetail {
	src := m.RefersTo
	if src == "" {
		src = m.Source
	}
	return ErrorDetail{Source: src, Summary: m.Summary}
}

func messageDetails(msgs []*Message) []ErrorDetail {
	var details = make([]ErrorDetail, 0, len(msgs))
	for _, m := range msgs {
		if m != nil {
			details = append(details, m.Detail())
		}
	}
	return details
}

// BaseResponse contains the result code and messages common to
// GetTax, PostTax and ValidateAddress responses.
type BaseResponse struct {
	ResultCode string
	Messages   []*Message

	raw    Fields
	remote *RemoteRequestError
}

func (r *BaseResponse) baseFields() []field {
	return []field{
		stringField("ResultCode", &r.ResultCode, 0),
		hasMany[Message]("Messages", &r.Messages),
	}
}

func (r *BaseResponse) validate() error { return nil }

func (r *BaseResponse) messages() []*Message { return r.Messages }

// Raw returns the decoded response body.
func (r *BaseResponse) Raw() Fields {
	return r.raw
}

// Err returns the *RemoteRequestError for a failed call or nil.
func (r *BaseResponse) Err() error {
	if r.remote == nil {
		return nil
	}
	return r.remote
}

// IsSuccess reports whether ResultCode is Success.  A response without
// a ResultCode returns a CodeNotApplicable error rather than a guess.
func (r *BaseResponse) IsSuccess() (bool, error) {
	return isSuccess(r.remote, r.raw.Has("ResultCode"), r.ResultCode)
}

// ErrorDetails lists the (source, summary) pairs of a failed response.
// Successful responses return nil.
func (r *BaseResponse) ErrorDetails() ([]ErrorDetail, error) {
	return errorDetails(r.remote, r.raw.Has("ResultCode"), r.ResultCode, r.Messages)
}

func (r *BaseResponse) failed() bool {
	return r.remote != nil || isFailureCode(r.ResultCode)
}

func isFailureCode(rc string) bool {
	return rc == ResultError || rc == ResultException
}

func isSuccess(remote *RemoteRequestError, hasCode bool, rc string) (bool, error) {
	if remote != nil {
		return false, nil
	}
	if !hasCode {
		return false, misuse(CodeNotApplicable, "response has no ResultCode")
	}
	return rc == ResultSuccess, nil
}

func errorDetails(remote *RemoteRequestError, hasCode bool, rc string, msgs []*Message) ([]ErrorDetail, error) {
	if remote != nil {
		return remote.Details, nil
	}
	if !hasCode {
		return nil, misuse(CodeNotApplicable, "response has no ResultCode")
	}
	if isFailureCode(rc) {
		return messageDetails(msgs), nil
	}
	return nil, nil
}

// TaxDetail is the tax of a single jurisdiction.
type TaxDetail struct {
	Country   string
	Region    string
	JurisType string
	JurisName string
	JurisCode string
	TaxName   string
	Taxable   decimal.Decimal
	Rate      decimal.Decimal
	Tax       decimal.Decimal
}

func (td *TaxDetail) fields() []field {
	return []field{
		stringField("Country", &td.Country, 0),
		stringField("Region", &td.Region, 0),
		stringField("JurisType", &td.JurisType, 0),
		decimalField("Taxable", &td.Taxable),
		decimalField("Rate", &td.Rate),
		decimalField("Tax", &td.Tax),
		stringField("JurisName", &td.JurisName, 0),
		stringField("JurisCode", &td.JurisCode, 0),
		stringField("TaxName", &td.TaxName, 0),
	}
}

func (td *TaxDetail) validate() error { return nil }

// TaxLine is the calculated tax of a document line.
type TaxLine struct {
	LineNo        string
	TaxCode       string
	Taxability    string
	Taxable       decimal.Decimal
	Rate          decimal.Decimal
	Tax           decimal.Decimal
	Discount      decimal.Decimal
	TaxCalculated decimal.Decimal
	Exemption     decimal.Decimal
	TaxDetails    []*TaxDetail
}

func (tl *TaxLine) fields() []field {
	return []field{
		stringField("LineNo", &tl.LineNo, 0),
		stringField("TaxCode", &tl.TaxCode, 0),
		stringField("Taxability", &tl.Taxability, 0),
		decimalField("Taxable", &tl.Taxable),
		decimalField("Rate", &tl.Rate),
		decimalField("Tax", &tl.Tax),
		decimalField("Discount", &tl.Discount),
		decimalField("TaxCalculated", &tl.TaxCalculated),
		decimalField("Exemption", &tl.Exemption),
		hasMany[TaxDetail]("TaxDetails", &tl.TaxDetails),
	}
}

func (tl *TaxLine) validate() error { return nil }

// TaxAddress is an address used in the calculation.
type TaxAddress struct {
	Address     string
	AddressCode string
	Latitude    string
	Longitude   string
	City        string
	Country     string
	PostalCode  string
	Region      string
	TaxRegionId string
	JurisCode   string
	TaxDetails  []*TaxDetail
}

func (ta *TaxAddress) fields() []field {
	return []field{
		stringField("Address", &ta.Address, 0),
		stringField("AddressCode", &ta.AddressCode, 0),
		stringField("Latitude", &ta.Latitude, 0),
		stringField("Longitude", &ta.Longitude, 0),
		stringField("City", &ta.City, 0),
		stringField("Country", &ta.Country, 0),
		stringField("PostalCode", &ta.PostalCode, 0),
		stringField("Region", &ta.Region, 0),
		stringField("TaxRegionId", &ta.TaxRegionId, 0),
		stringField("JurisCode", &ta.JurisCode, 0),
		hasMany[TaxDetail]("TaxDetails", &ta.TaxDetails),
	}
}

func (ta *TaxAddress) validate() error { return nil }

// GetTaxResponse is the result of a quote.
type GetTaxResponse struct {
	BaseResponse
	Rate       decimal.Decimal
	Tax        decimal.Decimal
	TaxDetails []*TaxDetail
}

func (r *GetTaxResponse) fields() []field {
	return append(r.baseFields(),
		decimalField("Rate", &r.Rate),
		decimalField("Tax", &r.Tax),
		hasMany[TaxDetail]("TaxDetails", &r.TaxDetails),
	)
}

// PostTaxResponse is the result of PostTax.
type PostTaxResponse struct {
	BaseResponse
	DocCode            string
	DocId              string
	DocDate            Date
	Timestamp          Datetime
	TotalAmount        decimal.Decimal
	TotalDiscount      decimal.Decimal
	TotalExemption     decimal.Decimal
	TotalTaxable       decimal.Decimal
	TotalTax           decimal.Decimal
	TotalTaxCalculated decimal.Decimal
	TaxDate            Date
	TaxLines           []*TaxLine
	TaxDetails         []*TaxDetail
	TaxAddresses       []*TaxAddress
}

func (r *PostTaxResponse) fields() []field {
	return append(r.baseFields(),
		stringField("DocCode", &r.DocCode, 0),
		stringField("DocId", &r.DocId, 0),
		dateField("DocDate", &r.DocDate),
		datetimeField("Timestamp", &r.Timestamp),
		decimalField("TotalAmount", &r.TotalAmount),
		decimalField("TotalDiscount", &r.TotalDiscount),
		decimalField("TotalExemption", &r.TotalExemption),
		decimalField("TotalTaxable", &r.TotalTaxable),
		decimalField("TotalTax", &r.TotalTax),
		decimalField("TotalTaxCalculated", &r.TotalTaxCalculated),
		dateField("TaxDate", &r.TaxDate),
		hasMany[TaxLine]("TaxLines", &r.TaxLines),
		hasMany[TaxDetail]("TaxDetails", &r.TaxDetails),
		hasMany[TaxAddress]("TaxAddresses", &r.TaxAddresses),
	)
}

// ValidateAddressResponse holds the normalized address.
type ValidateAddressResponse struct {
	BaseResponse
	Address *Address
}

func (r *ValidateAddressResponse) fields() []field {
	return append(r.baseFields(),
		hasOne[Address]("Address", &r.Address),
	)
}

// CancelTaxResult is the body of a cancel response.
type CancelTaxResult struct {
	DocId         string
	TransactionId string
	ResultCode    string
	Messages      []*Message
}

func (cr *CancelTaxResult) fields() []field {
	return []field{
		stringField("DocId", &cr.DocId, 0),
		stringField("TransactionId", &cr.TransactionId, 0),
		stringField("ResultCode", &cr.ResultCode, 0),
		hasMany[Message]("Messages", &cr.Messages),
	}
}

func (cr *CancelTaxResult) validate() error { return nil }

// CancelTaxResponse differs from every other response: the result
// code and messages are nested in CancelTaxResult rather than at the
// top level.  It is kept separate from BaseResponse so the two shapes
// are never read the same way.
type CancelTaxResponse struct {
	CancelTaxResult *CancelTaxResult

	raw    Fields
	remote *RemoteRequestError
}

func (r *CancelTaxResponse) fields() []field {
	return []field{
		hasOne[CancelTaxResult]("CancelTaxResult", &r.CancelTaxResult),
	}
}

func (r *CancelTaxResponse) validate() error { return nil }

func (r *CancelTaxResponse) messages() []*Message {
	if r.CancelTaxResult == nil {
		return nil
	}
	return r.CancelTaxResult.Messages
}

func (r *CancelTaxResponse) resultCode() (string, bool) {
	if r.CancelTaxResult == nil {
		return "", false
	}
	return r.CancelTaxResult.ResultCode, r.raw.Fields("CancelTaxResult").Has("ResultCode")
}

// Raw returns the decoded response body.
func (r *CancelTaxResponse) Raw() Fields {
	return r.raw
}

// Err returns the *RemoteRequestError for a failed call or nil.
func (r *CancelTaxResponse) Err() error {
	if r.remote == nil {
		return nil
	}
	return r.remote
}

// IsSuccess reports whether CancelTaxResult.ResultCode is Success.
func (r *CancelTaxResponse) IsSuccess() (bool, error) {
	rc, ok := r.resultCode()
	return isSuccess(r.remote, ok, rc)
}

// ErrorDetails lists the (source, summary) pairs of
// CancelTaxResult.Messages for a failed cancel.
func (r *CancelTaxResponse) ErrorDetails() ([]ErrorDetail, error) {
	rc, ok := r.resultCode()
	return errorDetails(r.remote, ok, rc, r.messages())
}

func (r *CancelTaxResponse) failed() bool {
	rc, _ := r.resultCode()
	return r.remote != nil || isFailureCode(rc)
}

func (r *CancelTaxResponse) setResult(raw Fields, remote *RemoteRequestError) {
	r.raw, r.remote = raw, remote
}

func (r *BaseResponse) setResult(raw Fields, remote *RemoteRequestError) {
	r.raw, r.remote = raw, remote
}
