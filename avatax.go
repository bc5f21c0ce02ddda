// Copyright 2019 James Cote
// All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package avatax is a client for the AvaTax sales tax REST service.
//
// Build a Document from Addresses and Lines, then quote, post, commit
// or cancel it with a Service.  Field and structural problems are
// returned as a *ValidationError before anything is sent.  A rejection
// by the service is not an error: the typed response reports
// IsSuccess() false and lists ErrorDetails.  Only a failure to reach
// the service is returned as a *ConnectivityError.
package avatax // import "github.com/jfcote87/avatax"

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-faster/errors"
	"github.com/jfcote87/ctxclient"
	"github.com/sirupsen/logrus"
)

// Service sends documents and addresses to the tax service.  It is
// safe for concurrent use as long as its Recorder is.
type Service struct {
	// CompanyCode is copied onto every posted document when set.
	CompanyCode string
	// Transport must be set.  ServiceFromConfig uses an *HTTPTransport.
	Transport Transport
	// Recorder receives the outcome of each call.  nil discards.
	Recorder AuditRecorder
	// Logger defaults to a discarding logger.
	Logger logrus.FieldLogger
}

func (sv *Service) log(op string) logrus.FieldLogger {
	var l = sv.Logger
	if l == nil {
		l = nopLogger
	}
	return l.WithFields(logrus.Fields{"component": "avatax", "op": op})
}

func (sv *Service) recorder() AuditRecorder {
	if sv.Recorder == nil {
		return NopRecorder{}
	}
	return sv.Recorder
}

func (sv *Service) validate(ctx context.Context) error {
	if sv == nil {
		return misuse(CodeBadArgs, "nil Service")
	}
	if sv.Transport == nil {
		return misuse(CodeBadArgs, "nil Transport")
	}
	if ctx == nil {
		return misuse(CodeBadArgs, "nil context")
	}
	return nil
}

// EnvPrefix begins the name of every environment variable read by
// ConfigFromEnv.
const EnvPrefix = "AVATAX_"

// Config provides a format for serializing a Service definition.
type Config struct {
	AccountNumber string      `json:"account_number" env:"ACCOUNT_NUMBER"`
	LicenseKey    string      `json:"license_key" env:"LICENSE_KEY"`
	CompanyCode   string      `json:"company_code" env:"COMPANY_CODE"`
	Environment   Environment `json:"environment" env:"ENVIRONMENT" envDefault:"development"`
	// URL overrides the environment host
	URL     string        `json:"url,omitempty" env:"URL"`
	Timeout time.Duration `json:"-" env:"TIMEOUT" envDefault:"10s"`
}

// ConfigFromEnv reads a Config from AVATAX_ACCOUNT_NUMBER,
// AVATAX_LICENSE_KEY, AVATAX_COMPANY_CODE, AVATAX_ENVIRONMENT,
// AVATAX_URL and AVATAX_TIMEOUT.
func ConfigFromEnv() (Config, error) {
	return configFromEnv(nil)
}

// configFromEnv reads vars instead of the process environment when
// vars is not nil.
func configFromEnv(vars map[string]string) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{Prefix: EnvPrefix, Environment: vars})
	if err != nil {
		return cfg, errors.Wrap(err, "parse env")
	}
	return cfg, nil
}

// ServiceFromConfigJSON returns a service from json representation.
func ServiceFromConfigJSON(r io.Reader, opts ...ConfigOption) (*Service, error) {
	var cfg = Config{Timeout: DefaultTimeout}
	if err := json.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, err
	}
	return ServiceFromConfig(cfg, opts...)
}

// ServiceFromEnv returns a service configured by ConfigFromEnv.
func ServiceFromEnv(opts ...ConfigOption) (*Service, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return ServiceFromConfig(cfg, opts...)
}

// A ConfigOption is passed to ServiceFrom... funcs.
type ConfigOption interface {
	setValue(*Service, *HTTPTransport)
}

type cfgOption func(*Service, *HTTPTransport)

func (co cfgOption) setValue(sv *Service, t *HTTPTransport) {
	co(sv, t)
}

// ConfigHTTPClientFunc sets the HTTPClientFunc of the transport
// created by the ServiceFrom... funcs
func ConfigHTTPClientFunc(f ctxclient.Func) ConfigOption {
	return cfgOption(func(sv *Service, t *HTTPTransport) {
		t.HTTPClientFunc = f
	})
}

// ConfigRecorder sets the Service's AuditRecorder
func ConfigRecorder(r AuditRecorder) ConfigOption {
	return cfgOption(func(sv *Service, t *HTTPTransport) {
		sv.Recorder = r
	})
}

// ConfigLogger sets the Service's Logger
func ConfigLogger(l logrus.FieldLogger) ConfigOption {
	return cfgOption(func(sv *Service, t *HTTPTransport) {
		sv.Logger = l
	})
}

// ConfigTransport replaces the HTTPTransport built from the Config.
func ConfigTransport(tr Transport) ConfigOption {
	return cfgOption(func(sv *Service, t *HTTPTransport) {
		sv.Transport = tr
	})
}

// ServiceFromConfig creates a service from configuration.
func ServiceFromConfig(cfg Config, opts ...ConfigOption) (*Service, error) {
	if cfg.AccountNumber == "" || cfg.LicenseKey == "" {
		return nil, misuse(CodeBadArgs, "account number and license key must be specified")
	}
	t := &HTTPTransport{
		BaseURL:       cfg.URL,
		Environment:   cfg.Environment,
		AccountNumber: cfg.AccountNumber,
		LicenseKey:    cfg.LicenseKey,
		Timeout:       cfg.Timeout,
	}
	sv := &Service{
		CompanyCode: cfg.CompanyCode,
		Transport:   t,
	}
	for _, o := range opts {
		o.setValue(sv, t)
	}
	return sv, nil
}
