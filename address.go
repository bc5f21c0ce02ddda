// Copyright 2019 James Cote
// All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package avatax

// Address is a location referenced by AddressCode from document lines.
// The descriptive codes (AddressType, FipsCode, CarrierRoute, PostNet,
// Latitude, Longitude, TaxRegionId) are filled by address validation.
type Address struct {
	AddressCode  string
	Line1        string
	Line2        string
	Line3        string
	PostalCode   string
	Region       string
	City         string
	Country      string
	AddressType  string
	County       string
	FipsCode     string
	CarrierRoute string
	PostNet      string
	TaxRegionId  string
	Latitude     string
	Longitude    string
}

func (a *Address) fields() []field {
	return []field{
		stringField("AddressCode", &a.AddressCode, 50),
		stringField("Line1", &a.Line1, 50),
		stringField("Line2", &a.Line2, 50),
		stringField("Line3", &a.Line3, 50),
		stringField("PostalCode", &a.PostalCode, 11),
		stringField("Region", &a.Region, 3),
		stringField("City", &a.City, 50),
		stringField("Country", &a.Country, 0),
		stringField("AddressType", &a.AddressType, 0),
		stringField("County", &a.County, 0),
		stringField("FipsCode", &a.FipsCode, 0),
		stringField("CarrierRoute", &a.CarrierRoute, 0),
		stringField("PostNet", &a.PostNet, 0),
		stringField("TaxRegionId", &a.TaxRegionId, 0),
		stringField("Latitude", &a.Latitude, 0),
		stringField("Longitude", &a.Longitude, 0),
	}
}

func (a *Address) validate() error { return nil }

// NewAddress constructs an Address from a mapping.
func NewAddress(f Fields, mode Mode) (*Address, error) {
	return construct[Address](f, mode, nil)
}

var addressTypes = map[string]string{
	"F": "Firm or company address",
	"G": "General Delivery address",
	"H": "High-rise or business complex",
	"P": "PO Box address",
	"R": "Rural route address",
	"S": "Street or residential address",
}

var carrierRoutes = map[byte]string{
	'B': "PO Box",
	'C': "City delivery",
	'G': "General delivery",
	'H': "Highway contract",
	'R': "Rural route",
}

// DescribeAddressType returns a readable name for AddressType.
func (a *Address) DescribeAddressType() string {
	if s, ok := addressTypes[a.AddressType]; ok {
		return s
	}
	return "No Address Type"
}

// DescribeFipsCode classifies FipsCode by length.
func (a *Address) DescribeFipsCode() string {
	switch n := len(a.FipsCode); {
	case n == 0:
		return "No FipsCode"
	case n <= 2:
		return "State code"
	case n <= 5:
		return "County code"
	case n <= 10:
		return "City code"
	}
	return "Unknown"
}

// DescribeCarrierRoute names the route type from the first character
// of CarrierRoute.
func (a *Address) DescribeCarrierRoute() string {
	if a.CarrierRoute == "" {
		return "No Carrier Route"
	}
	if s, ok := carrierRoutes[a.CarrierRoute[0]]; ok {
		return s
	}
	return "Unknown"
}

// DescribePostNet classifies PostNet by length.
func (a *Address) DescribePostNet() string {
	switch n := len(a.PostNet); {
	case n == 0:
		return "No PostNet"
	case n <= 5:
		return "Zip code"
	case n <= 9:
		return "Plus4 code"
	case n <= 11:
		return "Delivery point"
	case n == 12:
		return "Check digit"
	}
	return "Unknown"
}
