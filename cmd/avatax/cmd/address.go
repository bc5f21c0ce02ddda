// Copyright 2019 James Cote
// All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/jfcote87/avatax"
	"github.com/jfcote87/avatax/audit"
	"github.com/spf13/cobra"
)

func newValidateAddressCmd(a *app) *cobra.Command {
	var addr avatax.Address
	var snakeKeys bool
	c := &cobra.Command{
		Use:   "validate-address [FILE]",
		Short: "Normalize an address",
		Long: `Normalize an address given by flags or as a json object in FILE.

Examples:
  avatax validate-address --line1 "900 Winslow Way E" --city "Bainbridge Island" --region WA --postal-code 98110
  avatax validate-address address.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sv, err := a.service()
			if err != nil {
				return err
			}
			var resp *avatax.ValidateAddressResponse
			if len(args) == 1 {
				f, err := readFields(cmd.InOrStdin(), args[0])
				if err != nil {
					return err
				}
				if snakeKeys {
					f = normalizeKeys(f)
				}
				resp, err = sv.ValidateAddressFields(cmd.Context(), f)
				if err != nil {
					return err
				}
			} else if resp, err = sv.ValidateAddress(cmd.Context(), &addr); err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), resp)
		},
	}
	fl := c.Flags()
	fl.StringVar(&addr.Line1, "line1", "", "first address line")
	fl.StringVar(&addr.Line2, "line2", "", "second address line")
	fl.StringVar(&addr.Line3, "line3", "", "third address line")
	fl.StringVar(&addr.City, "city", "", "city")
	fl.StringVar(&addr.Region, "region", "", "state or province")
	fl.StringVar(&addr.PostalCode, "postal-code", "", "postal code")
	fl.StringVar(&addr.Country, "country", "", "country code")
	fl.BoolVar(&snakeKeys, "snake-keys", false, "convert snake_case keys of FILE to CamelCase")
	return c
}

func newRecordsCmd(a *app) *cobra.Command {
	var filter audit.RecordFilter
	c := &cobra.Command{
		Use:   "records",
		Short: "List audit records, newest first",
		Long: `List the outcomes recorded in the --audit-db database.

Examples:
  avatax records --audit-db audit.db --failures
  avatax records --audit-db audit.db --doc-code INV-1001`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.store == nil {
				return errors.New("--audit-db or " + auditDBEnv + " is required")
			}
			recs, err := a.store.ListRecords(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), encodeRecords(recs))
		},
	}
	c.Flags().BoolVar(&filter.FailuresOnly, "failures", false, "only failures without a later success")
	c.Flags().IntVar(&filter.Limit, "limit", audit.DefaultLimit, "maximum records listed")
	c.Flags().StringVar(&filter.DocCode, "doc-code", "", "only records of this document")
	return c
}

func encodeRecords(recs []audit.Record) []byte {
	var e jx.Encoder
	e.Arr(func(e *jx.Encoder) {
		for _, r := range recs {
			e.Obj(func(e *jx.Encoder) {
				e.Field("id", func(e *jx.Encoder) { e.Str(r.ID) })
				e.Field("doc_code", func(e *jx.Encoder) { e.Str(r.DocCode) })
				e.Field("logged_on", func(e *jx.Encoder) { e.Str(r.LoggedOn.Format(time.RFC3339)) })
				e.Field("success_on", func(e *jx.Encoder) {
					if r.SuccessOn == nil {
						e.Null()
						return
					}
					e.Str(r.SuccessOn.Format(time.RFC3339))
				})
				if len(r.FailureDetails) > 0 {
					e.Field("failure_details", func(e *jx.Encoder) { encodeDetails(e, r.FailureDetails) })
				}
			})
		}
	})
	return e.Bytes()
}
