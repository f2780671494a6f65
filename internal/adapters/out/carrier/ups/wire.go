package ups

import "github.com/shopspring/decimal"

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	// UPS sends the lifetime in seconds as a string.
	ExpiresIn string `json:"expires_in"`
	Status    string `json:"status"`
}

type address struct {
	AddressLine          []string `json:"AddressLine"`
	City                 string   `json:"City"`
	StateProvinceCode    string   `json:"StateProvinceCode,omitempty"`
	PostalCode           string   `json:"PostalCode"`
	CountryCode          string   `json:"CountryCode"`
	ResidentialIndicator string   `json:"ResidentialAddressIndicator,omitempty"`
}

type code struct {
	Code        string `json:"Code"`
	Description string `json:"Description,omitempty"`
}

type phone struct {
	Number string `json:"Number"`
}

type party struct {
	Name          string  `json:"Name"`
	AttentionName string  `json:"AttentionName,omitempty"`
	EMailAddress  string  `json:"EMailAddress,omitempty"`
	Phone         *phone  `json:"Phone,omitempty"`
	ShipperNumber string  `json:"ShipperNumber,omitempty"`
	Address       address `json:"Address"`
}

type measurement struct {
	UnitOfMeasurement code   `json:"UnitOfMeasurement"`
	Weight            string `json:"Weight,omitempty"`
}

type dimensions struct {
	UnitOfMeasurement code   `json:"UnitOfMeasurement"`
	Length            string `json:"Length"`
	Width             string `json:"Width"`
	Height            string `json:"Height"`
}

type pkg struct {
	PackagingType code        `json:"PackagingType"`
	Dimensions    dimensions  `json:"Dimensions"`
	PackageWeight measurement `json:"PackageWeight"`
}

type addressValidationRequest struct {
	XAVRequest struct {
		AddressKeyFormat keyFormat `json:"AddressKeyFormat"`
	} `json:"XAVRequest"`
}

type keyFormat struct {
	AddressLine        []string `json:"AddressLine"`
	PoliticalDivision2 string   `json:"PoliticalDivision2"`
	PoliticalDivision1 string   `json:"PoliticalDivision1,omitempty"`
	PostcodePrimaryLow string   `json:"PostcodePrimaryLow"`
	CountryCode        string   `json:"CountryCode"`
}

type addressValidationResponse struct {
	XAVResponse struct {
		AddressClassification code `json:"AddressClassification"`
		Candidate             []struct {
			AddressClassification code      `json:"AddressClassification"`
			AddressKeyFormat      keyFormat `json:"AddressKeyFormat"`
		} `json:"Candidate"`
	} `json:"XAVResponse"`
}

type rateRequest struct {
	RateRequest struct {
		Shipment struct {
			Shipper  party `json:"Shipper"`
			ShipTo   party `json:"ShipTo"`
			ShipFrom party `json:"ShipFrom"`
			Package  []pkg `json:"Package"`
		} `json:"Shipment"`
	} `json:"RateRequest"`
}

type rateResponse struct {
	RateResponse struct {
		RatedShipment []ratedShipment `json:"RatedShipment"`
	} `json:"RateResponse"`
}

type ratedShipment struct {
	Service      code `json:"Service"`
	TotalCharges struct {
		CurrencyCode  string          `json:"CurrencyCode"`
		MonetaryValue decimal.Decimal `json:"MonetaryValue"`
	} `json:"TotalCharges"`
	GuaranteedDelivery struct {
		BusinessDaysInTransit string `json:"BusinessDaysInTransit"`
	} `json:"GuaranteedDelivery"`
}

type shipRequest struct {
	ShipmentRequest struct {
		Shipment struct {
			Description        string `json:"Description,omitempty"`
			Shipper            party  `json:"Shipper"`
			ShipTo             party  `json:"ShipTo"`
			ShipFrom           party  `json:"ShipFrom"`
			PaymentInformation struct {
				ShipmentCharge []shipmentCharge `json:"ShipmentCharge"`
			} `json:"PaymentInformation"`
			Service code  `json:"Service"`
			Package []pkg `json:"Package"`
		} `json:"Shipment"`
		LabelSpecification struct {
			LabelImageFormat code `json:"LabelImageFormat"`
		} `json:"LabelSpecification"`
	} `json:"ShipmentRequest"`
}

type shipmentCharge struct {
	Type        string `json:"Type"`
	BillShipper struct {
		AccountNumber string `json:"AccountNumber"`
	} `json:"BillShipper"`
}

type shipResponse struct {
	ShipmentResponse struct {
		ShipmentResults struct {
			ShipmentIdentificationNumber string `json:"ShipmentIdentificationNumber"`
			PackageResults               []struct {
				TrackingNumber string `json:"TrackingNumber"`
				ShippingLabel  struct {
					GraphicImage string `json:"GraphicImage"`
				} `json:"ShippingLabel"`
			} `json:"PackageResults"`
			LabelURL struct {
				URL string `json:"URL"`
			} `json:"LabelURL"`
		} `json:"ShipmentResults"`
	} `json:"ShipmentResponse"`
}

type trackResponse struct {
	TrackResponse struct {
		Shipment []struct {
			Package []struct {
				TrackingNumber string     `json:"trackingNumber"`
				CurrentStatus  statusInfo `json:"currentStatus"`
				Activity       []activity `json:"activity"`
			} `json:"package"`
			Warnings []struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"warnings"`
		} `json:"shipment"`
	} `json:"trackResponse"`
}

type statusInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Code        string `json:"code"`
}

type activity struct {
	Location struct {
		Address struct {
			City          string `json:"city"`
			StateProvince string `json:"stateProvince"`
			CountryCode   string `json:"countryCode"`
		} `json:"address"`
	} `json:"location"`
	Status statusInfo `json:"status"`
	Date   string     `json:"date"`
	Time   string     `json:"time"`
}
