package fedex_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"shipping/internal/adapters/out/carrier/fedex"
	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/domain/model/rate"
	"shipping/internal/core/domain/model/shipment"
	"shipping/internal/core/domain/services"
	"shipping/internal/core/ports"
	"shipping/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockFallbackRateSource struct {
	mock.Mock
}

func (m *MockFallbackRateSource) Effective(ctx context.Context, carrier string, in services.PricingInput) ([]rate.Option, error) {
	args := m.Called(ctx, carrier, in)
	if opts := args.Get(0); opts != nil {
		return opts.([]rate.Option), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockFallbackRateSource) LowestVersion(ctx context.Context, carrier string, in services.PricingInput) ([]rate.Option, error) {
	args := m.Called(ctx, carrier, in)
	if opts := args.Get(0); opts != nil {
		return opts.([]rate.Option), args.Error(1)
	}
	return nil, args.Error(1)
}

type fakeFedEx struct {
	mux        *http.ServeMux
	tokenCalls atomic.Int32
	lastRate   map[string]any
}

func newFakeFedEx(t *testing.T) (*fakeFedEx, *httptest.Server) {
	t.Helper()

	f := &fakeFedEx{mux: http.NewServeMux()}
	f.mux.HandleFunc("POST /oauth/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("client_secret") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, map[string]any{"access_token": "tok-1", "token_type": "bearer", "expires_in": 3600})
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth/token" && r.Header.Get("Authorization") != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newGateway(t *testing.T, baseURL, secret string, source ports.FallbackRateSource) *fedex.Gateway {
	t.Helper()

	g, err := fedex.NewGateway(fedex.Config{
		BaseURL:       baseURL,
		ClientID:      "client",
		ClientSecret:  secret,
		AccountNumber: "740561073",
		Timeout:       2 * time.Second,
		RatePerSecond: 100,
		Burst:         10,
	}, source, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return g
}

func address(t *testing.T, street, city, state, postcode, country string) kernel.Address {
	t.Helper()
	a, err := kernel.NewAddress(street, city, state, postcode, country)
	require.NoError(t, err)
	return a
}

func parcel(t *testing.T) kernel.Parcel {
	t.Helper()
	declared, err := kernel.NewMoneyFromString("25.00", "GBP")
	require.NoError(t, err)
	p, err := kernel.NewParcel(2, 30, 20, 10, declared, kernel.PackageParcel)
	require.NoError(t, err)
	return p
}

func TestGateway_Authenticate(t *testing.T) {
	t.Run("token is cached", func(t *testing.T) {
		fake, srv := newFakeFedEx(t)
		g := newGateway(t, srv.URL, "secret", nil)

		first, err := g.Authenticate(context.Background())
		require.NoError(t, err)
		second, err := g.Authenticate(context.Background())
		require.NoError(t, err)

		assert.Equal(t, "tok-1", first.AccessToken)
		assert.Equal(t, first, second)
		assert.Equal(t, int32(1), fake.tokenCalls.Load())
		assert.WithinDuration(t, time.Now().Add(55*time.Minute), first.ExpiresAt, 5*time.Second)
	})

	t.Run("bad credentials are an authentication error", func(t *testing.T) {
		_, srv := newFakeFedEx(t)
		g := newGateway(t, srv.URL, "wrong", nil)

		_, err := g.Authenticate(context.Background())

		require.ErrorIs(t, err, errs.ErrCarrierAuthentication)
	})

	t.Run("missing credentials are rejected at construction", func(t *testing.T) {
		_, err := fedex.NewGateway(fedex.Config{BaseURL: "http://localhost"}, nil, slog.Default())

		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})
}

func TestGateway_ValidateAddress(t *testing.T) {
	t.Run("repairs state in city and reads classification", func(t *testing.T) {
		fake, srv := newFakeFedEx(t)
		fake.mux.HandleFunc("POST /address/v1/addresses/resolve", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, map[string]any{"output": map[string]any{"resolvedAddresses": []any{map[string]any{
				"streetLinesToken": []string{"100 Main St, Austin"},
				"city":             "TX 78701",
				"postalCode":       "78701",
				"countryCode":      "US",
				"classification":   "BUSINESS",
			}}}})
		})
		g := newGateway(t, srv.URL, "secret", nil)
		input := address(t, "100 Main St", "Austin", "TX", "78701", "US")

		got := g.ValidateAddress(context.Background(), input)

		assert.Equal(t, ports.ClassificationCommercial, got.Classification)
		assert.Equal(t, "Austin", got.Address.City())
		assert.Equal(t, "TX", got.Address.State())
		assert.Equal(t, "100 Main St", got.Address.Street())
	})

	t.Run("failure returns input as unknown", func(t *testing.T) {
		fake, srv := newFakeFedEx(t)
		fake.mux.HandleFunc("POST /address/v1/addresses/resolve", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		g := newGateway(t, srv.URL, "secret", nil)
		input := address(t, "1 High St", "Leeds", "", "LS1 4AP", "GB")

		got := g.ValidateAddress(context.Background(), input)

		assert.Equal(t, ports.ClassificationUnknown, got.Classification)
		assert.True(t, input.Equal(got.Address))
	})
}

func TestGateway_QuoteRates(t *testing.T) {
	origin := address(t, "1 High St", "Leeds", "", "LS1 4AP", "GB")
	destination := address(t, "2 Low Rd", "York", "", "YO1 7HH", "GB")

	failValidation := func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}

	t.Run("maps live replies", func(t *testing.T) {
		fake, srv := newFakeFedEx(t)
		fake.mux.HandleFunc("POST /address/v1/addresses/resolve", failValidation)
		fake.mux.HandleFunc("POST /rate/v1/rates/quotes", func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&fake.lastRate))
			writeJSON(w, map[string]any{"output": map[string]any{"rateReplyDetails": []any{
				map[string]any{
					"serviceType":          "PRIORITY_OVERNIGHT",
					"serviceName":          "FedEx Priority Overnight",
					"ratedShipmentDetails": []any{map[string]any{"totalNetCharge": 31.5, "currency": "GBP"}},
					"operationalDetail":    map[string]any{"transitTime": "ONE_DAY"},
				},
				map[string]any{
					"serviceType":          "FEDEX_GROUND",
					"ratedShipmentDetails": []any{map[string]any{"totalNetCharge": "12.20", "currency": "GBP"}},
				},
				map[string]any{"serviceType": "NO_PRICE"},
			}}})
		})
		g := newGateway(t, srv.URL, "secret", nil)

		options, err := g.QuoteRates(context.Background(), origin, destination, parcel(t))

		require.NoError(t, err)
		require.Len(t, options, 2)
		assert.Equal(t, "PRIORITY_OVERNIGHT", options[0].ServiceCode)
		assert.Equal(t, "31.50", options[0].Price.Amount().StringFixed(2))
		assert.Equal(t, 1, options[0].EstimatedDays)
		assert.Equal(t, rate.SourceLive, options[0].Source)
		assert.Equal(t, "FedEx Ground", options[1].DisplayName)
		assert.Equal(t, 5, options[1].EstimatedDays)
		assert.Equal(t, fedex.Code, options[1].Carrier)

		requested := fake.lastRate["requestedShipment"].(map[string]any)
		recipient := requested["recipient"].(map[string]any)["address"].(map[string]any)
		assert.Equal(t, true, recipient["residential"])
	})

	t.Run("rejected request prices from the rate table", func(t *testing.T) {
		fake, srv := newFakeFedEx(t)
		fake.mux.HandleFunc("POST /address/v1/addresses/resolve", failValidation)
		fake.mux.HandleFunc("POST /rate/v1/rates/quotes", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = io.WriteString(w, `{"errors":[{"code":"WEIGHT.INVALID"}]}`)
		})
		source := &MockFallbackRateSource{}
		fallback := []rate.Option{{Carrier: fedex.Code, ServiceCode: "FEDEX_GROUND", Source: rate.SourceFallback}}
		source.On("Effective", mock.Anything, fedex.Code, mock.MatchedBy(func(in services.PricingInput) bool {
			return in.Residential && in.Source == rate.SourceFallback
		})).Return(fallback, nil).Once()
		g := newGateway(t, srv.URL, "secret", source)

		options, err := g.QuoteRates(context.Background(), origin, destination, parcel(t))

		require.NoError(t, err)
		assert.Equal(t, fallback, options)
		source.AssertExpectations(t)
	})

	t.Run("carrier outage is returned", func(t *testing.T) {
		fake, srv := newFakeFedEx(t)
		fake.mux.HandleFunc("POST /address/v1/addresses/resolve", failValidation)
		fake.mux.HandleFunc("POST /rate/v1/rates/quotes", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
		source := &MockFallbackRateSource{}
		g := newGateway(t, srv.URL, "secret", source)

		_, err := g.QuoteRates(context.Background(), origin, destination, parcel(t))

		require.ErrorIs(t, err, errs.ErrCarrierTransient)
		source.AssertNotCalled(t, "Effective", mock.Anything, mock.Anything, mock.Anything)
	})
}

func newBookableShipment(t *testing.T) *shipment.Shipment {
	t.Helper()

	contact, err := kernel.NewContact("Ada Lovelace", "ada@example.com", "+441130000000")
	require.NoError(t, err)
	sender, err := kernel.NewParty(address(t, "1 High St", "Leeds", "", "LS1 4AP", "GB"), contact)
	require.NoError(t, err)
	recipient, err := kernel.NewParty(address(t, "2 Low Rd", "York", "", "YO1 7HH", "GB"), contact)
	require.NoError(t, err)
	price, err := kernel.NewMoneyFromString("12.20", "GBP")
	require.NoError(t, err)

	now := time.Now()
	s, err := shipment.NewDraft(kernel.NewUUID(), "user-1", sender, recipient, parcel(t), price, now)
	require.NoError(t, err)
	require.NoError(t, s.SelectCarrier(fedex.Code, "FEDEX_GROUND", price, nil, now))
	return s
}

func TestGateway_BookShipment(t *testing.T) {
	t.Run("returns tracking number and label", func(t *testing.T) {
		fake, srv := newFakeFedEx(t)
		fake.mux.HandleFunc("POST /ship/v1/shipments", func(w http.ResponseWriter, r *http.Request) {
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "URL_ONLY", body["labelResponseOptions"])
			writeJSON(w, map[string]any{"output": map[string]any{"transactionShipments": []any{map[string]any{
				"masterTrackingNumber": "794644790138",
				"pieceResponses": []any{map[string]any{
					"trackingNumber":   "794644790138",
					"packageDocuments": []any{map[string]any{"url": "https://labels.example/794644790138.pdf"}},
				}},
			}}}})
		})
		g := newGateway(t, srv.URL, "secret", nil)

		booking, err := g.BookShipment(context.Background(), newBookableShipment(t))

		require.NoError(t, err)
		assert.Equal(t, "794644790138", booking.CarrierTrackingID)
		assert.Equal(t, "https://labels.example/794644790138.pdf", booking.LabelURL)
	})

	t.Run("carrier failure is a booking error", func(t *testing.T) {
		fake, srv := newFakeFedEx(t)
		fake.mux.HandleFunc("POST /ship/v1/shipments", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
		g := newGateway(t, srv.URL, "secret", nil)

		_, err := g.BookShipment(context.Background(), newBookableShipment(t))

		require.ErrorIs(t, err, errs.ErrCarrierBooking)
	})

	t.Run("missing tracking number is a booking error", func(t *testing.T) {
		fake, srv := newFakeFedEx(t)
		fake.mux.HandleFunc("POST /ship/v1/shipments", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, map[string]any{"output": map[string]any{}})
		})
		g := newGateway(t, srv.URL, "secret", nil)

		_, err := g.BookShipment(context.Background(), newBookableShipment(t))

		require.ErrorIs(t, err, errs.ErrCarrierBooking)
	})
}

func TestGateway_PollTracking(t *testing.T) {
	t.Run("maps status and scan events", func(t *testing.T) {
		fake, srv := newFakeFedEx(t)
		fake.mux.HandleFunc("POST /track/v1/trackingnumbers", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, map[string]any{"output": map[string]any{"completeTrackResults": []any{map[string]any{
				"trackResults": []any{map[string]any{
					"latestStatusDetail": map[string]any{"code": "DL", "description": "Delivered"},
					"scanEvents": []any{
						map[string]any{
							"date":              "2026-10-18T09:30:00+01:00",
							"eventDescription":  "Delivered",
							"derivedStatusCode": "DL",
							"scanLocation":      map[string]any{"city": "York", "countryCode": "GB"},
						},
						map[string]any{"date": "not a date", "derivedStatusCode": "IT"},
						map[string]any{
							"date":              "2026-10-17T18:00:00Z",
							"eventDescription":  "In transit",
							"derivedStatusCode": "IT",
							"scanLocation":      map[string]any{"city": "Leeds", "countryCode": "GB"},
						},
					},
				}},
			}}}})
		})
		g := newGateway(t, srv.URL, "secret", nil)

		report, err := g.PollTracking(context.Background(), "794644790138")

		require.NoError(t, err)
		assert.Equal(t, shipment.Delivered, report.Status)
		require.Len(t, report.Events, 2)
		assert.Equal(t, "delivered", report.Events[0].Status)
		assert.Equal(t, "York, GB", report.Events[0].Location)
		assert.Equal(t, "in_transit", report.Events[1].Status)
	})

	t.Run("unknown tracking number is rejected", func(t *testing.T) {
		fake, srv := newFakeFedEx(t)
		fake.mux.HandleFunc("POST /track/v1/trackingnumbers", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, map[string]any{"output": map[string]any{"completeTrackResults": []any{map[string]any{
				"trackResults": []any{map[string]any{
					"error": map[string]any{"code": "TRACKING.TRACKINGNUMBER.NOTFOUND", "message": "not found"},
				}},
			}}}})
		})
		g := newGateway(t, srv.URL, "secret", nil)

		_, err := g.PollTracking(context.Background(), "000")

		require.ErrorIs(t, err, errs.ErrCarrierRejected)
	})

	t.Run("expired token is refreshed on next call", func(t *testing.T) {
		fake, srv := newFakeFedEx(t)
		var calls atomic.Int32
		fake.mux.HandleFunc("POST /track/v1/trackingnumbers", func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			writeJSON(w, map[string]any{"output": map[string]any{"completeTrackResults": []any{map[string]any{
				"trackResults": []any{map[string]any{"latestStatusDetail": map[string]any{"code": "IT"}}},
			}}}})
		})
		g := newGateway(t, srv.URL, "secret", nil)

		_, err := g.PollTracking(context.Background(), "794644790138")
		require.ErrorIs(t, err, errs.ErrCarrierAuthentication)

		report, err := g.PollTracking(context.Background(), "794644790138")
		require.NoError(t, err)
		assert.Equal(t, shipment.InTransit, report.Status)
		assert.Equal(t, int32(2), fake.tokenCalls.Load())
	})
}
