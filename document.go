// Copyright 2019 James Cote
// All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package avatax

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Address codes assigned by AddFromAddress and AddToAddress when the
// Address has none.
const (
	DefaultFromAddressCode = "1"
	DefaultToAddressCode   = "2"
)

// Document is the root transaction submitted for tax calculation.  A
// Document is not safe for concurrent use.
type Document struct {
	DocType                  DocType
	DocId                    string
	DocCode                  string
	DocDate                  Date
	CompanyCode              string
	CustomerCode             string
	Discount                 decimal.Decimal
	Commit                   bool
	CustomerUsageType        string
	PurchaseOrderNo          string
	ExemptionNo              string
	PaymentDate              Date
	ReferenceCode            string
	CurrencyCode             string
	BusinessIdentificationNo string
	DetailLevel              *DetailLevel
	TaxOverride              *TaxOverride
	Addresses                []*Address
	Lines                    []*Line

	fromAddressCode string
	toAddressCode   string
}

func (d *Document) fields() []field {
	return []field{
		enumField("DocType", &d.DocType, DocType.Valid),
		stringField("DocId", &d.DocId, 0),
		stringField("DocCode", &d.DocCode, 50),
		dateField("DocDate", &d.DocDate),
		stringField("CompanyCode", &d.CompanyCode, 25),
		stringField("CustomerCode", &d.CustomerCode, 50),
		decimalField("Discount", &d.Discount),
		boolField("Commit", &d.Commit),
		stringField("CustomerUsageType", &d.CustomerUsageType, 25),
		stringField("PurchaseOrderNo", &d.PurchaseOrderNo, 50),
		stringField("ExemptionNo", &d.ExemptionNo, 25),
		dateField("PaymentDate", &d.PaymentDate),
		stringField("ReferenceCode", &d.ReferenceCode, 50),
		stringField("CurrencyCode", &d.CurrencyCode, 3),
		stringField("BusinessIdentificationNo", &d.BusinessIdentificationNo, 25),
		hasOne[DetailLevel]("DetailLevel", &d.DetailLevel),
		hasOne[TaxOverride]("TaxOverride", &d.TaxOverride),
		hasMany[Address]("Addresses", &d.Addresses),
		hasMany[Line]("Lines", &d.Lines),
	}
}

func (d *Document) validate() error {
	return d.ValidateForSubmission()
}

// NewDocument constructs a Document from a mapping of wire names to
// values.  Nested Addresses, Lines, DetailLevel and TaxOverride may be
// mappings or built entities.
func NewDocument(f Fields, mode Mode) (*Document, error) {
	return construct[Document](f, mode, nil)
}

// NewDocumentOfType returns an empty Document of type dt.
func NewDocumentOfType(dt DocType) *Document {
	return &Document{DocType: dt}
}

// NewSalesOrder returns an empty SalesOrder document
func NewSalesOrder() *Document { return NewDocumentOfType(SalesOrder) }

// NewSalesInvoice returns an empty SalesInvoice document
func NewSalesInvoice() *Document { return NewDocumentOfType(SalesInvoice) }

// NewReturnOrder returns an empty ReturnOrder document
func NewReturnOrder() *Document { return NewDocumentOfType(ReturnOrder) }

// NewReturnInvoice returns an empty ReturnInvoice document
func NewReturnInvoice() *Document { return NewDocumentOfType(ReturnInvoice) }

// NewPurchaseOrder returns an empty PurchaseOrder document
func NewPurchaseOrder() *Document { return NewDocumentOfType(PurchaseOrder) }

// NewPurchaseInvoice returns an empty PurchaseInvoice document
func NewPurchaseInvoice() *Document { return NewDocumentOfType(PurchaseInvoice) }

// NewInventoryTransferOrder returns an empty InventoryTransferOrder document
func NewInventoryTransferOrder() *Document { return NewDocumentOfType(InventoryTransferOrder) }

// NewInventoryTransferInvoice returns an empty InventoryTransferInvoice document
func NewInventoryTransferInvoice() *Document { return NewDocumentOfType(InventoryTransferInvoice) }

// FromAddressCode returns the code recorded by AddFromAddress.
func (d *Document) FromAddressCode() string {
	return d.fromAddressCode
}

// ToAddressCode returns the code recorded by AddToAddress.
func (d *Document) ToAddressCode() string {
	return d.toAddressCode
}

// AddFromAddress appends the origin address.  An Address without a code
// is assigned DefaultFromAddressCode.  Lines without an OriginCode
// resolve to this address.  May be called once per Document.
func (d *Document) AddFromAddress(a *Address) error {
	if a == nil {
		return misuse(CodeNilEntity, "nil from address")
	}
	if d.fromAddressCode != "" {
		return invalid(CodeHasFromAddress, "Addresses", "document already has a from address (%s)", d.fromAddressCode)
	}
	if a.AddressCode == "" {
		a.AddressCode = DefaultFromAddressCode
	}
	d.fromAddressCode = a.AddressCode
	d.Addresses = append(d.Addresses, a)
	return nil
}

// AddToAddress appends the destination address.  An Address without a
// code is assigned DefaultToAddressCode.  Lines without a
// DestinationCode resolve to this address.  May be called once per
// Document.
func (d *Document) AddToAddress(a *Address) error {
	if a == nil {
		return misuse(CodeNilEntity, "nil to address")
	}
	if d.toAddressCode != "" {
		return invalid(CodeHasToAddress, "Addresses", "document already has a to address (%s)", d.toAddressCode)
	}
	if a.AddressCode == "" {
		a.AddressCode = DefaultToAddressCode
	}
	d.toAddressCode = a.AddressCode
	d.Addresses = append(d.Addresses, a)
	return nil
}

// AddAddress appends an address that lines reference by code.
func (d *Document) AddAddress(a *Address) error {
	if a == nil {
		return misuse(CodeNilEntity, "nil address")
	}
	d.Addresses = append(d.Addresses, a)
	return nil
}

// AddLine appends l.  A blank LineNo is set to the count of existing
// lines plus one and a zero Qty is set to 1.  l itself is modified.
func (d *Document) AddLine(l *Line) error {
	if l == nil {
		return misuse(CodeNilEntity, "nil line")
	}
	if l.LineNo == "" {
		l.LineNo = strconv.Itoa(len(d.Lines) + 1)
	}
	if l.Qty == 0 {
		l.Qty = 1
	}
	d.Lines = append(d.Lines, l)
	return nil
}

// AddOverride attaches a TaxOverride.  A committed document may not be
// overridden and only one override is allowed.
func (d *Document) AddOverride(o *TaxOverride) error {
	if o == nil {
		return misuse(CodeNilEntity, "nil tax override")
	}
	if d.Commit {
		return invalid(CodeCommitted, "TaxOverride", "cannot override a committed document")
	}
	if d.TaxOverride != nil {
		return invalid(CodeHasOverride, "TaxOverride", "document already has a tax override")
	}
	if err := Validate(o); err != nil {
		return prefixField(err, "TaxOverride")
	}
	d.TaxOverride = o
	return nil
}

// SetDetailLevel sets the requested response detail.
func (d *Document) SetDetailLevel(dl *DetailLevel) {
	d.DetailLevel = dl
}

// Total returns the sum of line amounts.
func (d *Document) Total() decimal.Decimal {
	var total = decimal.Zero
	for _, l := range d.Lines {
		if l != nil {
			total = total.Add(l.Amount)
		}
	}
	return total
}

// ResolveLineAddressCodes fills blank line origin and destination codes
// from the from and to addresses, then checks that every line code
// names one of the document's addresses.
func (d *Document) ResolveLineAddressCodes() error {
	var codes = make(map[string]bool, len(d.Addresses))
	for _, a := range d.Addresses {
		if a != nil {
			codes[a.AddressCode] = true
		}
	}
	for i, l := range d.Lines {
		if l == nil {
			return misuse(CodeNilEntity, "Lines[%d] is nil", i)
		}
		if l.OriginCode == "" {
			if d.fromAddressCode == "" {
				return invalid(CodeOriginNeeded, "Line "+l.LineNo, "origin address code needed")
			}
			l.OriginCode = d.fromAddressCode
		}
		if l.DestinationCode == "" {
			if d.toAddressCode == "" {
				return invalid(CodeDestinationNeeded, "Line "+l.LineNo, "destination address code needed")
			}
			l.DestinationCode = d.toAddressCode
		}
		if !codes[l.OriginCode] {
			return invalid(CodeUnknownAddressCode, "Line "+l.LineNo, "origin code %q matches no address", l.OriginCode)
		}
		if !codes[l.DestinationCode] {
			return invalid(CodeUnknownAddressCode, "Line "+l.LineNo, "destination code %q matches no address", l.DestinationCode)
		}
	}
	return nil
}

// ValidateForSubmission checks that the document may be sent: DocType
// must be set and at least one address and line must exist.  Line
// address codes are then resolved.
func (d *Document) ValidateForSubmission() error {
	switch {
	case d.DocType == "":
		return invalid(CodeMissingDocType, "DocType", "DocType must be set")
	case len(d.Addresses) == 0:
		return invalid(CodeNoAddresses, "Addresses", "document has no addresses")
	case len(d.Lines) == 0:
		return invalid(CodeNoLines, "Lines", "document has no lines")
	}
	return d.ResolveLineAddressCodes()
}

// PromoteOnCommit marks doc committed and changes an order type to its
// invoice type since the service ignores Commit on orders.
func PromoteOnCommit(doc *Document) {
	doc.Commit = true
	doc.DocType = doc.DocType.InvoiceType()
}

// Line is a taxable item of a Document.
type Line struct {
	LineNo            string
	DestinationCode   string
	OriginCode        string
	Qty               int
	Amount            decimal.Decimal
	ItemCode          string
	TaxCode           string
	CustomerUsageType string
	Description       string
	Discounted        bool
	TaxIncluded       bool
	Ref1              string
	Ref2              string
}

func (l *Line) fields() []field {
	return []field{
		stringField("LineNo", &l.LineNo, 50),
		stringField("DestinationCode", &l.DestinationCode, 50),
		stringField("OriginCode", &l.OriginCode, 50),
		intField("Qty", &l.Qty),
		decimalField("Amount", &l.Amount),
		stringField("ItemCode", &l.ItemCode, 50),
		stringField("TaxCode", &l.TaxCode, 25),
		stringField("CustomerUsageType", &l.CustomerUsageType, 25),
		stringField("Description", &l.Description, 255),
		boolField("Discounted", &l.Discounted),
		boolField("TaxIncluded", &l.TaxIncluded),
		stringField("Ref1", &l.Ref1, 50),
		stringField("Ref2", &l.Ref2, 50),
	}
}

func (l *Line) setDefaults() {
	l.Qty = 1
}

func (l *Line) validate() error {
	if l.Qty < 0 {
		return invalid(CodeBadInt, "Qty", "quantity may not be negative")
	}
	return nil
}

// NewLine constructs a Line from a mapping.  Qty defaults to 1.
func NewLine(f Fields, mode Mode) (*Line, error) {
	return construct[Line](f, mode, nil)
}

// DetailLevel flags the detail returned with a tax calculation.
type DetailLevel struct {
	Line       bool
	Summary    bool
	Document   bool
	Tax        bool
	Diagnostic bool
}

func (dl *DetailLevel) fields() []field {
	return []field{
		boolField("Line", &dl.Line),
		boolField("Summary", &dl.Summary),
		boolField("Document", &dl.Document),
		boolField("Tax", &dl.Tax),
		boolField("Diagnostic", &dl.Diagnostic),
	}
}

func (dl *DetailLevel) validate() error { return nil }

// NewDetailLevel constructs a DetailLevel from a mapping.
func NewDetailLevel(f Fields, mode Mode) (*DetailLevel, error) {
	return construct[DetailLevel](f, mode, nil)
}

// TaxOverride replaces the calculated tax amount, the tax date or
// marks the document exempt.  Reason is always required.
type TaxOverride struct {
	TaxOverrideType OverrideType
	TaxAmount       *decimal.Decimal
	TaxDate         Date
	Reason          string
}

func (o *TaxOverride) fields() []field {
	return []field{
		enumField("TaxOverrideType", &o.TaxOverrideType, OverrideType.Valid),
		optDecimalField("TaxAmount", &o.TaxAmount),
		dateField("TaxDate", &o.TaxDate),
		stringField("Reason", &o.Reason, 255),
	}
}

func (o *TaxOverride) validate() error {
	switch {
	case o.TaxOverrideType == "":
		return invalid(CodeRequired, "TaxOverrideType", "override type is required")
	case o.Reason == "":
		return invalid(CodeRequired, "Reason", "a reason is required for a tax override")
	case o.TaxOverrideType == OverrideTaxAmount && o.TaxAmount == nil:
		return invalid(CodeRequired, "TaxAmount", "TaxAmount is required for a TaxAmount override")
	case o.TaxOverrideType == OverrideTaxDate && o.TaxDate.IsNil():
		return invalid(CodeRequired, "TaxDate", "TaxDate is required for a TaxDate override")
	}
	return nil
}

// NewTaxOverride constructs a TaxOverride from a mapping.
func NewTaxOverride(f Fields, mode Mode) (*TaxOverride, error) {
	return construct[TaxOverride](f, mode, nil)
}
