// Copyright 2019 James Cote
// All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package avatax

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const docStatusInvalid = "DocStatus is invalid for this operation"

// Quote selects the location and amount for GetTax.  SaleAmount,
// when set, is used instead of Document.Total().
type Quote struct {
	Latitude   float64
	Longitude  float64
	Document   *Document
	SaleAmount *decimal.Decimal
}

func validCoordinate(v, limit float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && math.Abs(v) <= limit
}

// GetTax estimates the tax of a sale at a location.  Either
// q.Document or q.SaleAmount must be given.  The document is not
// validated or sent; only its line total is used.
func (sv *Service) GetTax(ctx context.Context, q Quote) (*GetTaxResponse, error) {
	if err := sv.validate(ctx); err != nil {
		return nil, err
	}
	if !validCoordinate(q.Latitude, 90) || !validCoordinate(q.Longitude, 180) {
		return nil, misuse(CodeBadCoordinates, "invalid coordinates %v,%v", q.Latitude, q.Longitude)
	}
	var amount decimal.Decimal
	var docCode string
	switch {
	case q.SaleAmount != nil:
		amount = *q.SaleAmount
	case q.Document != nil:
		amount = q.Document.Total()
	default:
		return nil, misuse(CodeBadArgs, "a document or sale amount is required")
	}
	if q.Document != nil {
		docCode = q.Document.DocCode
	}

	log := sv.log("GetTax").WithField("doc_code", docCode)
	req := &Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("%s/tax/%.6f,%.6f/get", APIVersion, q.Latitude, q.Longitude),
		Query:  url.Values{"saleamount": {amount.String()}},
	}
	resp, err := send[GetTaxResponse](ctx, sv, log, req)
	if err != nil {
		return nil, err
	}
	sv.record(ctx, log, docCode, resp)
	return resp, nil
}

// PostTax calculates tax for doc and, when commit is true, records the
// transaction.  The service's CompanyCode, when set, replaces the
// document's.  Committing an order changes it to the matching invoice
// type.  A document sent without a DocCode receives the code assigned
// by the service.  When the post fails for any reason CompanyCode,
// Commit and DocType are restored.
func (sv *Service) PostTax(ctx context.Context, doc *Document, commit bool) (*PostTaxResponse, error) {
	if err := sv.validate(ctx); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, misuse(CodeNilEntity, "nil document")
	}
	log := sv.log("PostTax")
	// a post that does not succeed leaves doc as it was given
	restore := snapshotSubmission(doc)
	if sv.CompanyCode != "" {
		doc.CompanyCode = sv.CompanyCode
	}
	if commit {
		log.WithField("doc_code", doc.DocCode).Debugf("committing %s", doc.DocType)
		PromoteOnCommit(doc)
	}
	payload, err := Serialize(doc)
	if err != nil {
		restore()
		return nil, err
	}
	assigned := doc.DocCode != ""

	req := &Request{
		Method: http.MethodPost,
		Path:   APIVersion + "/tax/get",
		Body:   payload,
	}
	resp, err := send[PostTaxResponse](ctx, sv, log.WithField("doc_code", doc.DocCode), req)
	if err != nil {
		restore()
		return nil, err
	}
	if resp.failed() {
		restore()
	} else if !assigned {
		absorbAssignedCode(doc, resp)
	}
	sv.record(ctx, log, doc.DocCode, resp)
	return resp, nil
}

// PostTaxFields builds a Document from f, ignoring unknown keys, and
// posts it.
func (sv *Service) PostTaxFields(ctx context.Context, f Fields, commit bool) (*PostTaxResponse, error) {
	if err := sv.validate(ctx); err != nil {
		return nil, err
	}
	doc, err := construct[Document](f, Permissive, sv.log("PostTax"))
	if err != nil {
		return nil, err
	}
	return sv.PostTax(ctx, doc, commit)
}

// snapshotSubmission returns a func resetting the fields PostTax
// changes before sending.
func snapshotSubmission(doc *Document) func() {
	companyCode, commit, docType := doc.CompanyCode, doc.Commit, doc.DocType
	return func() {
		doc.CompanyCode, doc.Commit, doc.DocType = companyCode, commit, docType
	}
}

func absorbAssignedCode(doc *Document, resp *PostTaxResponse) {
	if doc.DocCode == "" && resp.DocCode != "" {
		doc.DocCode = resp.DocCode
	}
}

// CancelTax cancels a posted or committed transaction.  The document
// must carry a DocCode or DocId unless docID is given.  doc is not
// modified; tracking that it was canceled is left to the caller.
func (sv *Service) CancelTax(ctx context.Context, doc *Document, reason CancelCode, docID string) (*CancelTaxResponse, error) {
	if err := sv.validate(ctx); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, misuse(CodeNilEntity, "nil document")
	}
	if !reason.Valid() {
		return nil, invalid(CodeBadCancelCode, "CancelCode", "%q is not a valid cancel code", string(reason))
	}
	if docID == "" {
		docID = doc.DocId
	}
	if doc.DocCode == "" && docID == "" {
		return nil, misuse(CodeBadArgs, "a DocCode or DocId is required to cancel")
	}
	if doc.DocType == "" {
		return nil, invalid(CodeMissingDocType, "DocType", "DocType must be set")
	}

	companyCode := doc.CompanyCode
	if companyCode == "" {
		companyCode = sv.CompanyCode
	}
	var payload = make(Payload, 0, 5)
	if companyCode != "" {
		payload = append(payload, Pair{Key: "CompanyCode", Value: companyCode})
	}
	payload = append(payload,
		Pair{Key: "DocType", Value: string(doc.DocType)},
		Pair{Key: "CancelCode", Value: string(reason)},
	)
	if doc.DocCode != "" {
		payload = append(payload, Pair{Key: "DocCode", Value: doc.DocCode})
	}
	if docID != "" {
		payload = append(payload, Pair{Key: "DocId", Value: docID})
	}

	log := sv.log("CancelTax").WithField("doc_code", doc.DocCode)
	req := &Request{
		Method: http.MethodPost,
		Path:   APIVersion + "/tax/cancel",
		Body:   payload,
	}
	resp, err := send[CancelTaxResponse](ctx, sv, log, req)
	if err != nil {
		return nil, err
	}
	sv.record(ctx, log, doc.DocCode, resp)
	return resp, nil
}

// ValidateAddress normalizes an address.
func (sv *Service) ValidateAddress(ctx context.Context, a *Address) (*ValidateAddressResponse, error) {
	if err := sv.validate(ctx); err != nil {
		return nil, err
	}
	if a == nil {
		return nil, misuse(CodeNilEntity, "nil address")
	}
	payload, err := Serialize(a)
	if err != nil {
		return nil, err
	}
	var q = make(url.Values, len(payload))
	for _, kv := range payload {
		s, _ := toString(kv.Value)
		q.Set(kv.Key, s)
	}

	log := sv.log("ValidateAddress")
	req := &Request{
		Method: http.MethodGet,
		Path:   APIVersion + "/address/validate",
		Query:  q,
	}
	resp, err := send[ValidateAddressResponse](ctx, sv, log, req)
	if err != nil {
		return nil, err
	}
	sv.record(ctx, log, "", resp)
	return resp, nil
}

// ValidateAddressFields builds an Address from f, ignoring unknown
// keys, and validates it.
func (sv *Service) ValidateAddressFields(ctx context.Context, f Fields) (*ValidateAddressResponse, error) {
	if err := sv.validate(ctx); err != nil {
		return nil, err
	}
	a, err := construct[Address](f, Permissive, sv.log("ValidateAddress"))
	if err != nil {
		return nil, err
	}
	return sv.ValidateAddress(ctx, a)
}

// result is implemented by the four response types.
type result interface {
	Entity
	messages() []*Message
	failed() bool
	setResult(Fields, *RemoteRequestError)
	ErrorDetails() ([]ErrorDetail, error)
}

// send calls the transport and reads the reply into a response of type
// T.  A rejection by the service is attached to the response; only
// connectivity failures are returned as errors.
func send[T any, P interface {
	*T
	result
}](ctx context.Context, sv *Service, log logrus.FieldLogger, req *Request) (*T, error) {
	log.Infof("%q %s", req.Method, req.Path)
	if req.Body != nil {
		if b, err := req.Body.MarshalJSON(); err == nil {
			log.Debugf("payload %s", b)
		}
	}

	var status int
	var body Fields
	var text string
	var remote *RemoteRequestError

	raw, err := sv.Transport.Send(ctx, req)
	if err != nil {
		var re *RemoteError
		if !errors.As(err, &re) {
			var ce *ConnectivityError
			if !errors.As(err, &ce) {
				ce = &ConnectivityError{Cause: err}
			}
			log.WithError(err).Error("service unreachable")
			return nil, ce
		}
		status, body, text = re.StatusCode, re.Body, re.Text
		remote = &RemoteRequestError{StatusCode: status}
	} else {
		status, body = raw.StatusCode, raw.Body
	}

	// lenient permissive builds skip bad fields and never fail
	var t = new(T)
	_ = (&builder{mode: Permissive, log: log, lenient: true}).build(P(t), body)
	if remote == nil && P(t).failed() {
		remote = &RemoteRequestError{StatusCode: status}
	}
	if remote != nil && len(remote.Details) == 0 {
		remote.Details = messageDetails(P(t).messages())
		if len(remote.Details) == 0 {
			if text == "" {
				text = http.StatusText(status)
			}
			remote.Details = []ErrorDetail{{Source: fmt.Sprintf("HTTP %d", status), Summary: text}}
		}
	}
	P(t).setResult(body, remote)
	if remote != nil {
		logRemote(log, remote)
	}
	return t, nil
}

func logRemote(log logrus.FieldLogger, remote *RemoteRequestError) {
	for _, d := range remote.Details {
		// not an error, the document was already committed or canceled
		if strings.Contains(d.Summary, docStatusInvalid) {
			log.Warn(remote.Error())
			return
		}
	}
	log.Error(remote.Error())
}

func (sv *Service) record(ctx context.Context, log logrus.FieldLogger, docCode string, r result) {
	var err error
	if r.failed() {
		details, _ := r.ErrorDetails()
		err = sv.recorder().RecordFailure(ctx, docCode, details)
	} else {
		err = sv.recorder().RecordSuccess(ctx, docCode)
	}
	if err != nil {
		log.WithError(err).Error("audit record failed")
	}
}
