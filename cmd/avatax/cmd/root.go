// Copyright 2019 James Cote
// All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cmd implements the avatax command line.
package cmd

import (
	"io"
	"os"

	"github.com/go-faster/errors"
	"github.com/jfcote87/avatax"
	"github.com/jfcote87/avatax/audit"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const auditDBEnv = "AVATAX_AUDIT_DB"

// errRejected is returned after the response of a failed call has
// been written so the process exits non-zero.
var errRejected = errors.New("request rejected by service")

type app struct {
	verbose bool
	logJSON bool
	auditDB string

	log   *logrus.Logger
	store *audit.Store
	// newService is avatax.ServiceFromEnv outside of tests.
	newService func(opts ...avatax.ConfigOption) (*avatax.Service, error)
}

func newApp() *app {
	return &app{
		log:        logrus.New(),
		newService: avatax.ServiceFromEnv,
	}
}

// Execute runs the root command.
func Execute() error {
	a := newApp()
	defer a.close()
	return newRootCmd(a).Execute()
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "avatax",
		Short: "Quote, post and cancel sales tax documents",
		Long: `avatax sends tax documents and addresses to the AvaTax REST service.

Credentials and the target environment come from
AVATAX_ACCOUNT_NUMBER, AVATAX_LICENSE_KEY, AVATAX_COMPANY_CODE,
AVATAX_ENVIRONMENT (development or production) and AVATAX_URL.

Examples:
  # Estimate tax on a $100 sale in Seattle
  avatax quote --lat 47.6097 --lng -122.3331 --amount 100

  # Calculate and commit a document
  avatax post invoice.json --commit --audit-db audit.db

  # Void a committed invoice
  avatax cancel --doc-code INV-1001 --reason DocVoided`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
	}
	pf := root.PersistentFlags()
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log requests and payloads")
	pf.BoolVar(&a.logJSON, "log-json", false, "write logs as json")
	pf.StringVar(&a.auditDB, "audit-db", os.Getenv(auditDBEnv), "sqlite file recording call outcomes (env: "+auditDBEnv+")")

	root.AddCommand(
		newQuoteCmd(a),
		newPostCmd(a),
		newCancelCmd(a),
		newValidateAddressCmd(a),
		newRecordsCmd(a),
	)
	return root
}

func (a *app) setup(logOut io.Writer) error {
	a.log.SetOutput(logOut)
	a.log.SetLevel(logrus.WarnLevel)
	if a.verbose {
		a.log.SetLevel(logrus.DebugLevel)
	}
	if a.logJSON {
		a.log.SetFormatter(&logrus.JSONFormatter{})
	}
	if a.auditDB != "" && a.store == nil {
		s, err := audit.Open(a.auditDB)
		if err != nil {
			return errors.Wrap(err, "open audit db")
		}
		a.store = s
	}
	return nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.log.WithError(err).Error("close audit db")
	}
}

func (a *app) service() (*avatax.Service, error) {
	opts := []avatax.ConfigOption{avatax.ConfigLogger(a.log)}
	if a.store != nil {
		opts = append(opts, avatax.ConfigRecorder(a.store))
	}
	sv, err := a.newService(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "configure service")
	}
	return sv, nil
}
