// Copyright 2019 James Cote
// All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package avatax_test

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/jfcote87/avatax"
	"github.com/jfcote87/avatax/audit"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Example Config file.
var serviceConfig = `{
	"account_number": "Your Account Number",
	"license_key": "Your License Key",
	"company_code": "DEFAULT",
	"environment": "development"
}`

// ExampleService_PostTax builds an invoice shipped from a warehouse to
// a customer, calculates its tax and commits it.
func ExampleService_PostTax() {
	ctx := context.Background()
	sv, err := avatax.ServiceFromConfigJSON(bytes.NewReader([]byte(serviceConfig)),
		avatax.ConfigLogger(logrus.StandardLogger()))
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	doc := avatax.NewSalesOrder()
	doc.DocCode = "INV-1001"
	doc.CustomerCode = "CUST-1"
	doc.DocDate = avatax.NewDate(2019, 5, 1)
	if err = doc.AddFromAddress(&avatax.Address{Line1: "900 Winslow Way E", City: "Bainbridge Island", Region: "WA", PostalCode: "98110"}); err != nil {
		log.Fatalf("from address: %v", err)
	}
	if err = doc.AddToAddress(&avatax.Address{Line1: "435 Ericksen Ave", City: "Bainbridge Island", Region: "WA", PostalCode: "98110"}); err != nil {
		log.Fatalf("to address: %v", err)
	}
	if err = doc.AddLine(&avatax.Line{ItemCode: "SKU-1", Qty: 2, Amount: decimal.RequireFromString("100.00")}); err != nil {
		log.Fatalf("line: %v", err)
	}

	// commit promotes the SalesOrder to a SalesInvoice
	resp, err := sv.PostTax(ctx, doc, true)
	if err != nil {
		log.Fatalf("PostTax: %v", err)
	}
	if ok, _ := resp.IsSuccess(); !ok {
		details, _ := resp.ErrorDetails()
		for _, d := range details {
			log.Printf("%s", d)
		}
		return
	}
	fmt.Printf("%s tax %s\n", resp.DocCode, resp.TotalTax)
}

// ExampleService_GetTax estimates tax on a sale without a document.
func ExampleService_GetTax() {
	sv, err := avatax.ServiceFromEnv()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	amount := decimal.NewFromInt(100)
	resp, err := sv.GetTax(context.Background(), avatax.Quote{Latitude: 47.6097, Longitude: -122.3331, SaleAmount: &amount})
	if err != nil {
		log.Fatalf("GetTax: %v", err)
	}
	fmt.Printf("rate %s tax %s\n", resp.Rate, resp.Tax)
}

// ExampleService_CancelTax voids a committed invoice and keeps an
// audit log of the outcome.
func ExampleService_CancelTax() {
	store, err := audit.Open("avatax-audit.db")
	if err != nil {
		log.Fatalf("audit: %v", err)
	}
	defer store.Close()

	sv, err := avatax.ServiceFromEnv(avatax.ConfigRecorder(store))
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	doc := &avatax.Document{DocType: avatax.SalesInvoice, DocCode: "INV-1001"}
	resp, err := sv.CancelTax(context.Background(), doc, avatax.DocVoided, "")
	if err != nil {
		log.Fatalf("CancelTax: %v", err)
	}
	if ok, _ := resp.IsSuccess(); ok {
		fmt.Printf("canceled %s\n", resp.CancelTaxResult.TransactionId)
	}
}

func ExampleNewDocument() {
	doc, err := avatax.NewDocument(avatax.Fields{
		"DocType": "SalesInvoice",
		"DocCode": "INV-1002",
		"Addresses": []interface{}{
			avatax.Fields{"AddressCode": "WH", "PostalCode": "98110"},
			avatax.Fields{"AddressCode": "CUST", "PostalCode": "98101"},
		},
		"Lines": []interface{}{
			avatax.Fields{"LineNo": "1", "OriginCode": "WH", "DestinationCode": "CUST", "Amount": "25.00"},
		},
	}, avatax.Strict)
	if err != nil {
		log.Fatalf("NewDocument: %v", err)
	}
	p, err := avatax.Serialize(doc)
	if err != nil {
		log.Fatalf("Serialize: %v", err)
	}
	fmt.Println(p.Keys())
	// Output: [DocType DocCode Discount Commit Addresses Lines]
}
