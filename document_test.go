// Copyright 2019 James Cote
// All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package avatax_test

import (
	"errors"
	"testing"

	"github.com/jfcote87/avatax"
	"github.com/shopspring/decimal"
)

func TestDocument_Addresses(t *testing.T) {
	doc := avatax.NewSalesOrder()
	from := &avatax.Address{PostalCode: "98110"}
	if err := doc.AddFromAddress(from); err != nil {
		t.Fatalf("AddFromAddress: %v", err)
	}
	if from.AddressCode != avatax.DefaultFromAddressCode || doc.FromAddressCode() != avatax.DefaultFromAddressCode {
		t.Errorf("expected from code %q; got %q %q", avatax.DefaultFromAddressCode, from.AddressCode, doc.FromAddressCode())
	}
	to := &avatax.Address{AddressCode: "WH", PostalCode: "98101"}
	if err := doc.AddToAddress(to); err != nil {
		t.Fatalf("AddToAddress: %v", err)
	}
	if to.AddressCode != "WH" || doc.ToAddressCode() != "WH" {
		t.Errorf("expected existing code kept; got %q %q", to.AddressCode, doc.ToAddressCode())
	}

	if err := doc.AddFromAddress(&avatax.Address{}); avatax.CodeOf(err) != avatax.CodeHasFromAddress {
		t.Errorf("expected CodeHasFromAddress; got %v", err)
	}
	if err := doc.AddToAddress(&avatax.Address{}); avatax.CodeOf(err) != avatax.CodeHasToAddress {
		t.Errorf("expected CodeHasToAddress; got %v", err)
	}
	if err := doc.AddToAddress(nil); avatax.CodeOf(err) != avatax.CodeNilEntity {
		t.Errorf("expected CodeNilEntity; got %v", err)
	}
	if len(doc.Addresses) != 2 {
		t.Errorf("failed adds must not append; got %d addresses", len(doc.Addresses))
	}
	if err := doc.AddAddress(&avatax.Address{AddressCode: "ALT"}); err != nil || len(doc.Addresses) != 3 {
		t.Errorf("expected third address; got %v", err)
	}
}

func TestDocument_AddLine(t *testing.T) {
	doc := avatax.NewSalesInvoice()
	lines := []*avatax.Line{
		{Amount: decimal.NewFromInt(10)},
		{LineNo: "X", Qty: 3},
		{},
	}
	for _, l := range lines {
		if err := doc.AddLine(l); err != nil {
			t.Fatalf("AddLine: %v", err)
		}
	}
	want := []struct {
		lineNo string
		qty    int
	}{{"1", 1}, {"X", 3}, {"3", 1}}
	for i, w := range want {
		if l := doc.Lines[i]; l.LineNo != w.lineNo || l.Qty != w.qty {
			t.Errorf("line %d: expected %s/%d; got %s/%d", i, w.lineNo, w.qty, l.LineNo, l.Qty)
		}
	}
	if err := doc.AddLine(nil); avatax.CodeOf(err) != avatax.CodeNilEntity {
		t.Errorf("expected CodeNilEntity; got %v", err)
	}
	if !doc.Total().Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected total 10; got %s", doc.Total())
	}
}

func TestDocument_ResolveLineAddressCodes(t *testing.T) {
	tests := []struct {
		name  string
		setup func(d *avatax.Document)
		code  avatax.Code
		field string
	}{
		{name: "no origin", setup: func(d *avatax.Document) {
			d.AddToAddress(&avatax.Address{})
			d.AddLine(&avatax.Line{})
		}, code: avatax.CodeOriginNeeded, field: "Line 1"},
		{name: "no destination", setup: func(d *avatax.Document) {
			d.AddFromAddress(&avatax.Address{})
			d.AddLine(&avatax.Line{})
			d.AddLine(&avatax.Line{DestinationCode: "1"})
		}, code: avatax.CodeDestinationNeeded, field: "Line 1"},
		{name: "explicit codes", setup: func(d *avatax.Document) {
			d.AddAddress(&avatax.Address{AddressCode: "A"})
			d.AddAddress(&avatax.Address{AddressCode: "B"})
			d.AddLine(&avatax.Line{OriginCode: "A", DestinationCode: "B"})
		}},
		{name: "unknown code", setup: func(d *avatax.Document) {
			d.AddFromAddress(&avatax.Address{})
			d.AddToAddress(&avatax.Address{})
			d.AddLine(&avatax.Line{})
			d.AddLine(&avatax.Line{DestinationCode: "9"})
		}, code: avatax.CodeUnknownAddressCode, field: "Line 2"},
	}
	for _, tt := range tests {
		doc := avatax.NewSalesInvoice()
		tt.setup(doc)
		err := doc.ResolveLineAddressCodes()
		if tt.code == 0 {
			if err != nil {
				t.Errorf("%s: expected success; got %v", tt.name, err)
			}
			continue
		}
		var ve *avatax.ValidationError
		if !errors.As(err, &ve) || ve.Code != tt.code || ve.Field != tt.field {
			t.Errorf("%s: expected %d on %s; got %v", tt.name, tt.code, tt.field, err)
		}
	}

	doc := newInvoice(t, "")
	if err := doc.ResolveLineAddressCodes(); err != nil {
		t.Fatalf("expected resolution; got %v", err)
	}
	for _, l := range doc.Lines {
		if l.OriginCode != doc.FromAddressCode() || l.DestinationCode != doc.ToAddressCode() {
			t.Errorf("line %s: expected %s -> %s; got %s -> %s", l.LineNo, doc.FromAddressCode(), doc.ToAddressCode(), l.OriginCode, l.DestinationCode)
		}
	}
}

func TestDocument_ValidateForSubmission(t *testing.T) {
	doc := &avatax.Document{}
	if err := doc.ValidateForSubmission(); avatax.CodeOf(err) != avatax.CodeMissingDocType {
		t.Errorf("expected CodeMissingDocType; got %v", err)
	}
	doc.DocType = avatax.SalesInvoice
	if err := doc.ValidateForSubmission(); avatax.CodeOf(err) != avatax.CodeNoAddresses {
		t.Errorf("expected CodeNoAddresses; got %v", err)
	}
	doc.AddFromAddress(&avatax.Address{})
	doc.AddToAddress(&avatax.Address{})
	if err := doc.ValidateForSubmission(); avatax.CodeOf(err) != avatax.CodeNoLines {
		t.Errorf("expected CodeNoLines; got %v", err)
	}
	doc.AddLine(&avatax.Line{})
	if err := doc.ValidateForSubmission(); err != nil {
		t.Errorf("expected valid document; got %v", err)
	}
}

func TestDocument_AddOverride(t *testing.T) {
	amt := decimal.NewFromInt(0)
	valid := &avatax.TaxOverride{TaxOverrideType: avatax.OverrideTaxAmount, TaxAmount: &amt, Reason: "pre-collected"}

	doc := newInvoice(t, "INV-1")
	if err := doc.AddOverride(&avatax.TaxOverride{TaxOverrideType: avatax.OverrideTaxAmount, Reason: "x"}); avatax.CodeOf(err) != avatax.CodeRequired {
		t.Errorf("expected CodeRequired; got %v", err)
	}
	if err := doc.AddOverride(valid); err != nil {
		t.Fatalf("AddOverride: %v", err)
	}
	if err := doc.AddOverride(valid); avatax.CodeOf(err) != avatax.CodeHasOverride {
		t.Errorf("expected CodeHasOverride; got %v", err)
	}

	doc = newInvoice(t, "INV-2")
	doc.Commit = true
	if err := doc.AddOverride(valid); avatax.CodeOf(err) != avatax.CodeCommitted {
		t.Errorf("expected CodeCommitted; got %v", err)
	}
	if doc.TaxOverride != nil {
		t.Errorf("rejected override must not be attached")
	}
}

func TestPromoteOnCommit(t *testing.T) {
	tests := []struct {
		in, want avatax.DocType
	}{
		{avatax.SalesOrder, avatax.SalesInvoice},
		{avatax.ReturnOrder, avatax.ReturnInvoice},
		{avatax.PurchaseOrder, avatax.PurchaseInvoice},
		{avatax.InventoryTransferOrder, avatax.InventoryTransferInvoice},
		{avatax.SalesInvoice, avatax.SalesInvoice},
		{avatax.ReturnInvoice, avatax.ReturnInvoice},
	}
	for _, tt := range tests {
		doc := avatax.NewDocumentOfType(tt.in)
		avatax.PromoteOnCommit(doc)
		if doc.DocType != tt.want || !doc.Commit {
			t.Errorf("%s: expected committed %s; got %s %v", tt.in, tt.want, doc.DocType, doc.Commit)
		}
		avatax.PromoteOnCommit(doc)
		if doc.DocType != tt.want || !doc.Commit {
			t.Errorf("%s: second promotion expected %s; got %s %v", tt.in, tt.want, doc.DocType, doc.Commit)
		}
	}
}

func TestAddress_Describe(t *testing.T) {
	a := &avatax.Address{AddressType: "P", FipsCode: "53035", CarrierRoute: "R004", PostNet: "981101896"}
	if got := a.DescribeAddressType(); got != "PO Box address" {
		t.Errorf("DescribeAddressType = %q", got)
	}
	if got := a.DescribeFipsCode(); got != "County code" {
		t.Errorf("DescribeFipsCode = %q", got)
	}
	if got := a.DescribeCarrierRoute(); got != "Rural route" {
		t.Errorf("DescribeCarrierRoute = %q", got)
	}
	if got := a.DescribePostNet(); got != "Plus4 code" {
		t.Errorf("DescribePostNet = %q", got)
	}
	var empty avatax.Address
	if empty.DescribeAddressType() != "No Address Type" || empty.DescribeCarrierRoute() != "No Carrier Route" {
		t.Errorf("unexpected descriptions for empty address")
	}
}
