// Copyright 2019 James Cote
// All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package avatax_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jfcote87/avatax"
	"github.com/jfcote87/ctxclient"
	"github.com/jfcote87/testutils"
	"github.com/shopspring/decimal"
)

var jsonHeader = http.Header{"Content-Type": {"application/json; charset=utf-8"}}

func clientFunc(tr *testutils.Transport) ctxclient.Func {
	return func(ctx context.Context) (*http.Client, error) {
		return &http.Client{Transport: tr}, nil
	}
}

// checkRequest returns a 400 response describing the first mismatch.
func checkRequest(method, path, query string, next func(r *http.Request) (*http.Response, error)) func(r *http.Request) (*http.Response, error) {
	return func(r *http.Request) (*http.Response, error) {
		var msgs []string
		if r.Method != method {
			msgs = append(msgs, fmt.Sprintf("expected method %s; got %s", method, r.Method))
		}
		if r.URL.Path != path {
			msgs = append(msgs, fmt.Sprintf("expected path %s; got %s", path, r.URL.Path))
		}
		if query != "" && r.URL.RawQuery != query {
			msgs = append(msgs, fmt.Sprintf("expected query %s; got %s", query, r.URL.RawQuery))
		}
		if user, pwd, ok := r.BasicAuth(); !ok || user != "1100012345" || pwd != "LICENSEKEY" {
			msgs = append(msgs, fmt.Sprintf("expected basic auth; got %s %s", user, pwd))
		}
		if r.Header.Get("Accept") != "application/json" {
			msgs = append(msgs, "expected Accept application/json")
		}
		if len(msgs) > 0 {
			return testutils.MakeResponse(http.StatusBadRequest, []byte(strings.Join(msgs, "; ")), nil), nil
		}
		return next(r)
	}
}

func fileResponse(status int, fn string) func(r *http.Request) (*http.Response, error) {
	return func(r *http.Request) (*http.Response, error) {
		b, err := os.ReadFile("testfiles/" + fn)
		if err != nil {
			return nil, err
		}
		return testutils.MakeResponse(status, b, jsonHeader), nil
	}
}

const testConfig = `{
	"account_number": "1100012345",
	"license_key": "LICENSEKEY",
	"company_code": "DEFAULT",
	"environment": "development"
}`

func TestHTTPTransport_Service(t *testing.T) {
	tr := &testutils.Transport{}
	tr.Add(
		&testutils.RequestTester{
			ResponseFunc: checkRequest("GET", "/1.0/tax/47.627500,-122.332100/get", "saleamount=10.5",
				fileResponse(200, "getTaxSuccess.json")),
		},
		&testutils.RequestTester{
			ResponseFunc: checkRequest("POST", "/1.0/tax/get", "", func(r *http.Request) (*http.Response, error) {
				if ct := r.Header.Get("Content-Type"); ct != "text/json; charset=utf-8" {
					return testutils.MakeResponse(http.StatusBadRequest, []byte("content type "+ct), nil), nil
				}
				f, err := avatax.DecodeFields(r.Body)
				if err != nil || f.String("DocCode") != "INV-1001" || f.String("CompanyCode") != "DEFAULT" {
					return testutils.MakeResponse(http.StatusBadRequest, []byte(fmt.Sprintf("bad body %v %v", f, err)), nil), nil
				}
				return fileResponse(200, "postTaxSuccess.json")(r)
			}),
		},
	)
	sv, err := avatax.ServiceFromConfigJSON(bytes.NewReader([]byte(testConfig)), avatax.ConfigHTTPClientFunc(clientFunc(tr)))
	if err != nil {
		t.Fatalf("unable to build service from json: %v", err)
	}
	ctx := context.Background()
	amount := decimal.RequireFromString("10.5")

	qr, err := sv.GetTax(ctx, avatax.Quote{Latitude: 47.6275, Longitude: -122.3321, SaleAmount: &amount})
	if err != nil {
		t.Fatalf("GetTax: %v", err)
	}
	if ok, _ := qr.IsSuccess(); !ok {
		t.Fatalf("GetTax: expected success; got %v", qr.Err())
	}

	pr, err := sv.PostTax(ctx, newInvoice(t, "INV-1001"), false)
	if err != nil {
		t.Fatalf("PostTax: %v", err)
	}
	if ok, _ := pr.IsSuccess(); !ok {
		t.Fatalf("PostTax: expected success; got %v", pr.Err())
	}
}

func TestHTTPTransport_Errors(t *testing.T) {
	tr := &testutils.Transport{}
	tr.Add(
		&testutils.RequestTester{
			ResponseFunc: func(r *http.Request) (*http.Response, error) {
				return nil, errors.New("local server error")
			},
		},
		&testutils.RequestTester{ResponseFunc: fileResponse(500, "postTaxError.json")},
		&testutils.RequestTester{
			Method:   "POST",
			Response: testutils.MakeResponse(502, []byte("<html>Bad Gateway</html>"), nil),
		},
		&testutils.RequestTester{
			Method:   "POST",
			Response: testutils.MakeResponse(200, []byte("[]"), jsonHeader),
		},
		&testutils.RequestTester{
			Method:   "POST",
			Response: testutils.MakeResponse(503, []byte("Service Unavailable"), nil),
		},
	)
	ht := &avatax.HTTPTransport{
		BaseURL:        "https://avatax.example.com/",
		AccountNumber:  "1100012345",
		LicenseKey:     "LICENSEKEY",
		Timeout:        time.Second,
		HTTPClientFunc: clientFunc(tr),
	}
	ctx := context.Background()
	req := &avatax.Request{Method: "POST", Path: "1.0/tax/get", Body: avatax.Payload{{Key: "DocCode", Value: "X"}}}

	_, err := ht.Send(ctx, req)
	var ce *avatax.ConnectivityError
	if !errors.As(err, &ce) || !strings.Contains(err.Error(), "local server error") {
		t.Errorf("expected ConnectivityError; got %v", err)
	}

	_, err = ht.Send(ctx, req)
	var re *avatax.RemoteError
	if !errors.As(err, &re) || re.StatusCode != 500 || re.Body.String("ResultCode") != "Error" {
		t.Errorf("expected RemoteError with decoded body; got %v", err)
	}

	_, err = ht.Send(ctx, req)
	if !errors.As(err, &re) || re.StatusCode != 502 || re.Body != nil || re.Text != "<html>Bad Gateway</html>" {
		t.Errorf("expected RemoteError with text body; got %#v", err)
	}

	_, err = ht.Send(ctx, req)
	if !errors.As(err, &re) || re.StatusCode != 200 || re.Body != nil {
		t.Errorf("expected RemoteError for non object body; got %#v", err)
	}

	// a rejection without messages is reported with the status
	sv := &avatax.Service{Transport: ht}
	resp, err := sv.PostTax(ctx, newInvoice(t, "INV-5"), false)
	if err != nil {
		t.Fatalf("expected response; got %v", err)
	}
	details, _ := resp.ErrorDetails()
	if len(details) != 1 || details[0].Source != "HTTP 503" || details[0].Summary != "Service Unavailable" {
		t.Errorf("expected HTTP 503 detail; got %v", details)
	}
}

func TestHTTPTransport_ClientFuncError(t *testing.T) {
	cause := errors.New("no client for context")
	ht := &avatax.HTTPTransport{
		BaseURL:       "https://avatax.example.com",
		AccountNumber: "1100012345",
		LicenseKey:    "LICENSEKEY",
		HTTPClientFunc: func(ctx context.Context) (*http.Client, error) {
			return nil, cause
		},
	}
	_, err := ht.Send(context.Background(), &avatax.Request{Method: "GET", Path: "1.0/address/validate"})
	var ce *avatax.ConnectivityError
	if !errors.As(err, &ce) || !errors.Is(err, cause) {
		t.Errorf("expected ConnectivityError wrapping %v; got %#v", cause, err)
	}
}

func TestEnvironment(t *testing.T) {
	tests := []struct {
		in      string
		want    avatax.Environment
		wantErr bool
	}{
		{in: "", want: avatax.Development},
		{in: "sandbox", want: avatax.Development},
		{in: "Production", want: avatax.Production},
		{in: " live ", want: avatax.Production},
		{in: "staging", wantErr: true},
	}
	for _, tt := range tests {
		var e avatax.Environment
		err := e.UnmarshalText([]byte(tt.in))
		if (err != nil) != tt.wantErr || (!tt.wantErr && e != tt.want) {
			t.Errorf("UnmarshalText(%q) = %v, %v", tt.in, e, err)
		}
	}
	if avatax.Production.BaseURL() != "https://rest.avalara.net" || avatax.Development.BaseURL() != "https://development.avalara.net" {
		t.Errorf("unexpected base urls")
	}
}
