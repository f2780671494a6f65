package fedex

import (
	"github.com/shopspring/decimal"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type address struct {
	StreetLines         []string `json:"streetLines"`
	City                string   `json:"city"`
	StateOrProvinceCode string   `json:"stateOrProvinceCode,omitempty"`
	PostalCode          string   `json:"postalCode"`
	CountryCode         string   `json:"countryCode"`
	Residential         bool     `json:"residential,omitempty"`
}

type contact struct {
	PersonName   string `json:"personName"`
	EmailAddress string `json:"emailAddress"`
	PhoneNumber  string `json:"phoneNumber,omitempty"`
}

type party struct {
	Contact *contact `json:"contact,omitempty"`
	Address address  `json:"address"`
}

type accountNumber struct {
	Value string `json:"value"`
}

type weight struct {
	Units string  `json:"units"`
	Value float64 `json:"value"`
}

type dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Units  string  `json:"units"`
}

type money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

type packageLineItem struct {
	Weight        weight     `json:"weight"`
	Dimensions    dimensions `json:"dimensions"`
	DeclaredValue money      `json:"declaredValue"`
}

type addressValidationRequest struct {
	AddressesToValidate []addressToValidate `json:"addressesToValidate"`
}

type addressToValidate struct {
	Address address `json:"address"`
}

type addressValidationResponse struct {
	Output struct {
		ResolvedAddresses []struct {
			StreetLinesToken    []string `json:"streetLinesToken"`
			City                string   `json:"city"`
			StateOrProvinceCode string   `json:"stateOrProvinceCode"`
			PostalCode          string   `json:"postalCode"`
			CountryCode         string   `json:"countryCode"`
			Classification      string   `json:"classification"`
		} `json:"resolvedAddresses"`
	} `json:"output"`
}

type rateRequest struct {
	AccountNumber     accountNumber `json:"accountNumber"`
	RequestedShipment struct {
		Shipper                   party             `json:"shipper"`
		Recipient                 party             `json:"recipient"`
		PickupType                string            `json:"pickupType"`
		RateRequestType           []string          `json:"rateRequestType"`
		RequestedPackageLineItems []packageLineItem `json:"requestedPackageLineItems"`
	} `json:"requestedShipment"`
}

type rateResponse struct {
	Output struct {
		RateReplyDetails []struct {
			ServiceType          string `json:"serviceType"`
			ServiceName          string `json:"serviceName"`
			RatedShipmentDetails []struct {
				TotalNetCharge decimal.Decimal `json:"totalNetCharge"`
				Currency       string          `json:"currency"`
			} `json:"ratedShipmentDetails"`
			OperationalDetail struct {
				TransitTime string `json:"transitTime"`
			} `json:"operationalDetail"`
		} `json:"rateReplyDetails"`
	} `json:"output"`
}

type shipRequest struct {
	LabelResponseOptions string        `json:"labelResponseOptions"`
	AccountNumber        accountNumber `json:"accountNumber"`
	RequestedShipment    struct {
		Shipper                   party             `json:"shipper"`
		Recipients                []party           `json:"recipients"`
		ServiceType               string            `json:"serviceType"`
		PackagingType             string            `json:"packagingType"`
		PickupType                string            `json:"pickupType"`
		ShippingChargesPayment    chargesPayment    `json:"shippingChargesPayment"`
		LabelSpecification        labelSpec         `json:"labelSpecification"`
		RequestedPackageLineItems []packageLineItem `json:"requestedPackageLineItems"`
	} `json:"requestedShipment"`
}

type chargesPayment struct {
	PaymentType string `json:"paymentType"`
}

type labelSpec struct {
	ImageType      string `json:"imageType"`
	LabelStockType string `json:"labelStockType"`
}

type shipResponse struct {
	Output struct {
		TransactionShipments []struct {
			MasterTrackingNumber string `json:"masterTrackingNumber"`
			PieceResponses       []struct {
				TrackingNumber   string `json:"trackingNumber"`
				PackageDocuments []struct {
					URL string `json:"url"`
				} `json:"packageDocuments"`
			} `json:"pieceResponses"`
		} `json:"transactionShipments"`
	} `json:"output"`
}

type trackRequest struct {
	IncludeDetailedScans bool           `json:"includeDetailedScans"`
	TrackingInfo         []trackingInfo `json:"trackingInfo"`
}

type trackingInfo struct {
	TrackingNumberInfo trackingNumberInfo `json:"trackingNumberInfo"`
}

type trackingNumberInfo struct {
	TrackingNumber string `json:"trackingNumber"`
}

type trackResponse struct {
	Output struct {
		CompleteTrackResults []struct {
			TrackResults []trackResult `json:"trackResults"`
		} `json:"completeTrackResults"`
	} `json:"output"`
}

type trackResult struct {
	LatestStatusDetail struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"latestStatusDetail"`
	ScanEvents []scanEvent `json:"scanEvents"`
	Error      *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type scanEvent struct {
	Date              string `json:"date"`
	EventType         string `json:"eventType"`
	EventDescription  string `json:"eventDescription"`
	DerivedStatusCode string `json:"derivedStatusCode"`
	ScanLocation      struct {
		City                string `json:"city"`
		StateOrProvinceCode string `json:"stateOrProvinceCode"`
		CountryCode         string `json:"countryCode"`
	} `json:"scanLocation"`
}
