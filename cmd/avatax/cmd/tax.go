// Copyright 2019 James Cote
// All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import (
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jfcote87/avatax"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newQuoteCmd(a *app) *cobra.Command {
	var lat, lng float64
	var amount, docFile string
	var snakeKeys bool
	c := &cobra.Command{
		Use:   "quote",
		Short: "Estimate tax for a sale at a location",
		Long: `Estimate tax for a sale at a latitude and longitude.  The sale amount
is given with --amount or computed from the lines of --doc.

Examples:
  avatax quote --lat 47.6097 --lng -122.3331 --amount 100
  avatax quote --lat 47.6097 --lng -122.3331 --doc order.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := avatax.Quote{Latitude: lat, Longitude: lng}
			if amount != "" {
				d, err := decimal.NewFromString(amount)
				if err != nil {
					return errors.Wrapf(err, "invalid amount %q", amount)
				}
				q.SaleAmount = &d
			}
			if docFile != "" {
				doc, err := readDocument(cmd, docFile, snakeKeys)
				if err != nil {
					return err
				}
				q.Document = doc
			}
			sv, err := a.service()
			if err != nil {
				return err
			}
			resp, err := sv.GetTax(cmd.Context(), q)
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), resp)
		},
	}
	c.Flags().Float64Var(&lat, "lat", 0, "latitude of the sale")
	c.Flags().Float64Var(&lng, "lng", 0, "longitude of the sale")
	c.Flags().StringVar(&amount, "amount", "", "sale amount")
	c.Flags().StringVar(&docFile, "doc", "", "json document whose line total is the sale amount (- for stdin)")
	c.Flags().BoolVar(&snakeKeys, "snake-keys", false, "convert snake_case keys of --doc to CamelCase")
	_ = c.MarkFlagRequired("lat")
	_ = c.MarkFlagRequired("lng")
	return c
}

func newPostCmd(a *app) *cobra.Command {
	var commit, snakeKeys, generateCode bool
	c := &cobra.Command{
		Use:   "post FILE",
		Short: "Calculate tax for a document and optionally commit it",
		Long: `Calculate tax for the json document in FILE (- for stdin).  Unknown
keys are ignored.  Lines must name their OriginCode and DestinationCode
addresses.  Committing an order posts it as the matching invoice.

Examples:
  avatax post invoice.json
  avatax post order.json --commit --generate-code`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd, args[0], snakeKeys)
			if err != nil {
				return err
			}
			if generateCode && doc.DocCode == "" {
				doc.DocCode = uuid.NewString()
			}
			sv, err := a.service()
			if err != nil {
				return err
			}
			resp, err := sv.PostTax(cmd.Context(), doc, commit)
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), resp)
		},
	}
	c.Flags().BoolVar(&commit, "commit", false, "commit the transaction")
	c.Flags().BoolVar(&snakeKeys, "snake-keys", false, "convert snake_case keys to CamelCase")
	c.Flags().BoolVar(&generateCode, "generate-code", false, "assign a random DocCode when the document has none")
	return c
}

func newCancelCmd(a *app) *cobra.Command {
	var docCode, docID, docType, reason, companyCode string
	c := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel a posted or committed document",
		Long: `Cancel a document by code or id.  --reason is one of PostFailed,
DocDeleted, DocVoided or AdjustmentCanceled.

Examples:
  avatax cancel --doc-code INV-1001 --reason DocVoided
  avatax cancel --doc-id 1234567 --doc-type ReturnInvoice --reason DocDeleted`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc := &avatax.Document{
				DocType:     avatax.DocType(docType),
				DocCode:     docCode,
				CompanyCode: companyCode,
			}
			sv, err := a.service()
			if err != nil {
				return err
			}
			resp, err := sv.CancelTax(cmd.Context(), doc, avatax.CancelCode(reason), docID)
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), resp)
		},
	}
	c.Flags().StringVar(&docCode, "doc-code", "", "code of the document")
	c.Flags().StringVar(&docID, "doc-id", "", "service assigned id of the document")
	c.Flags().StringVar(&docType, "doc-type", string(avatax.SalesInvoice), "type of the document")
	c.Flags().StringVar(&reason, "reason", string(avatax.DocVoided), "cancel code")
	c.Flags().StringVar(&companyCode, "company-code", "", "company of the document (default AVATAX_COMPANY_CODE)")
	return c
}

func readDocument(cmd *cobra.Command, name string, snakeKeys bool) (*avatax.Document, error) {
	f, err := readFields(cmd.InOrStdin(), name)
	if err != nil {
		return nil, err
	}
	if snakeKeys {
		f = normalizeKeys(f)
	}
	return avatax.NewDocument(f, avatax.Permissive)
}
