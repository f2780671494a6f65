package commands_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"shipping/internal/core/application/usecases/commands"
	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/domain/model/payment"
	"shipping/internal/core/domain/model/rate"
	"shipping/internal/core/domain/model/shipment"
	"shipping/internal/core/ports"
	"shipping/internal/pkg/errs"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

type MockShipmentRepository struct{ mock.Mock }

func (m *MockShipmentRepository) Add(ctx context.Context, s *shipment.Shipment) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockShipmentRepository) Update(ctx context.Context, s *shipment.Shipment) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockShipmentRepository) Get(ctx context.Context, id kernel.UUID) (*shipment.Shipment, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*shipment.Shipment)
	return s, args.Error(1)
}

func (m *MockShipmentRepository) GetByTrackingCode(ctx context.Context, code shipment.TrackingCode) (*shipment.Shipment, error) {
	args := m.Called(ctx, code)
	s, _ := args.Get(0).(*shipment.Shipment)
	return s, args.Error(1)
}

func (m *MockShipmentRepository) TrackingCodeExists(ctx context.Context, code shipment.TrackingCode) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockShipmentRepository) LockDraftSubmission(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockShipmentRepository) FindRecentDraft(ctx context.Context, key string, since time.Time) (*shipment.Shipment, error) {
	args := m.Called(ctx, key, since)
	s, _ := args.Get(0).(*shipment.Shipment)
	return s, args.Error(1)
}

func (m *MockShipmentRepository) ListTrackable(ctx context.Context, carriers []string, limit int) ([]*shipment.Shipment, error) {
	args := m.Called(ctx, carriers, limit)
	s, _ := args.Get(0).([]*shipment.Shipment)
	return s, args.Error(1)
}

func (m *MockShipmentRepository) ListAwaitingBooking(ctx context.Context, maxAttempts, limit int) ([]*shipment.Shipment, error) {
	args := m.Called(ctx, maxAttempts, limit)
	s, _ := args.Get(0).([]*shipment.Shipment)
	return s, args.Error(1)
}

type MockPaymentRepository struct{ mock.Mock }

func (m *MockPaymentRepository) Add(ctx context.Context, r *payment.Record) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockPaymentRepository) Update(ctx context.Context, r *payment.Record) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockPaymentRepository) Get(ctx context.Context, id kernel.UUID) (*payment.Record, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*payment.Record)
	return r, args.Error(1)
}

func (m *MockPaymentRepository) ListByShipment(ctx context.Context, id kernel.UUID) ([]*payment.Record, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).([]*payment.Record)
	return r, args.Error(1)
}

type MockRateTableRepository struct{ mock.Mock }

func (m *MockRateTableRepository) Add(ctx context.Context, t *rate.Table) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockRateTableRepository) Get(ctx context.Context, id kernel.UUID) (*rate.Table, error) {
	args := m.Called(ctx, id)
	t, _ := args.Get(0).(*rate.Table)
	return t, args.Error(1)
}

func (m *MockRateTableRepository) ListByCarrier(ctx context.Context, carrier string) ([]*rate.Table, error) {
	args := m.Called(ctx, carrier)
	t, _ := args.Get(0).([]*rate.Table)
	return t, args.Error(1)
}

func (m *MockRateTableRepository) Activate(ctx context.Context, carrier string, version int) (*rate.Table, error) {
	args := m.Called(ctx, carrier, version)
	t, _ := args.Get(0).(*rate.Table)
	return t, args.Error(1)
}

// MockUoW satisfies every unit of work flavour used by the handlers.
type MockUoW struct {
	mock.Mock
	shipments  *MockShipmentRepository
	payments   *MockPaymentRepository
	rateTables *MockRateTableRepository
}

func newMockUoW() *MockUoW {
	return &MockUoW{
		shipments:  new(MockShipmentRepository),
		payments:   new(MockPaymentRepository),
		rateTables: new(MockRateTableRepository),
	}
}

func (m *MockUoW) Begin(ctx context.Context) error    { return m.Called(ctx).Error(0) }
func (m *MockUoW) Commit(ctx context.Context) error   { return m.Called(ctx).Error(0) }
func (m *MockUoW) Rollback(ctx context.Context) error { return m.Called(ctx).Error(0) }

func (m *MockUoW) ShipmentRepository() ports.ShipmentRepository   { return m.shipments }
func (m *MockUoW) PaymentRepository() ports.PaymentRepository     { return m.payments }
func (m *MockUoW) RateTableRepository() ports.RateTableRepository { return m.rateTables }

// expectTransactions allows any number of begin/commit/rollback cycles.
func (m *MockUoW) expectTransactions() {
	m.On("Begin", mock.Anything).Return(nil)
	m.On("Commit", mock.Anything).Return(nil)
	m.On("Rollback", mock.Anything).Return(nil)
}

type shipmentUoWFactory struct{ uow *MockUoW }

func (f shipmentUoWFactory) Create() commands.ShipmentUoW { return f.uow }

type paymentUoWFactory struct{ uow *MockUoW }

func (f paymentUoWFactory) Create() commands.PaymentUoW { return f.uow }

type rateTableUoWFactory struct{ uow *MockUoW }

func (f rateTableUoWFactory) Create() commands.RateTableUoW { return f.uow }

type MockGateway struct {
	mock.Mock
	code     string
	tracking bool
}

func (m *MockGateway) Code() string           { return m.code }
func (m *MockGateway) SupportsTracking() bool { return m.tracking }

func (m *MockGateway) Authenticate(ctx context.Context) (ports.Token, error) {
	args := m.Called(ctx)
	return args.Get(0).(ports.Token), args.Error(1)
}

func (m *MockGateway) ValidateAddress(_ context.Context, a kernel.Address) ports.AddressValidation {
	return ports.AddressValidation{Address: a, Classification: ports.ClassificationUnknown}
}

func (m *MockGateway) QuoteRates(ctx context.Context, o, d kernel.Address, p kernel.Parcel) ([]rate.Option, error) {
	args := m.Called(ctx, o, d, p)
	opts, _ := args.Get(0).([]rate.Option)
	return opts, args.Error(1)
}

func (m *MockGateway) ComputeFallbackRates(ctx context.Context, o, d kernel.Address, p kernel.Parcel) ([]rate.Option, error) {
	args := m.Called(ctx, o, d, p)
	opts, _ := args.Get(0).([]rate.Option)
	return opts, args.Error(1)
}

func (m *MockGateway) BookShipment(ctx context.Context, s *shipment.Shipment) (ports.Booking, error) {
	args := m.Called(ctx, s)
	return args.Get(0).(ports.Booking), args.Error(1)
}

func (m *MockGateway) PollTracking(ctx context.Context, id string) (ports.TrackingReport, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(ports.TrackingReport), args.Error(1)
}

type staticRegistry map[string]ports.CarrierGateway

func (r staticRegistry) Get(code string) (ports.CarrierGateway, error) {
	gw, ok := r[code]
	if !ok {
		return nil, errs.ErrUnknownCarrier
	}
	return gw, nil
}

func (r staticRegistry) Enabled() []string {
	var out []string
	for _, c := range []string{"fedex", "ups"} {
		if _, ok := r[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

type MockPaymentGateway struct{ mock.Mock }

func (m *MockPaymentGateway) Provider() string { return "stripe" }

func (m *MockPaymentGateway) Capture(ctx context.Context, req ports.CaptureRequest) (ports.CaptureResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(ports.CaptureResult), args.Error(1)
}

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) Notify(ctx context.Context, userID string, kind ports.NotificationKind, payload map[string]any) error {
	return m.Called(ctx, userID, kind, payload).Error(0)
}

type MockQuoteCache struct{ mock.Mock }

func (m *MockQuoteCache) Save(ctx context.Context, q *rate.Quote) error {
	return m.Called(ctx, q).Error(0)
}

func (m *MockQuoteCache) Get(ctx context.Context, id kernel.UUID) (*rate.Quote, error) {
	args := m.Called(ctx, id)
	q, _ := args.Get(0).(*rate.Quote)
	return q, args.Error(1)
}

func (m *MockQuoteCache) Delete(ctx context.Context, id kernel.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// recordingLocker counts lock calls per key.
type recordingLocker struct {
	mu    sync.Mutex
	locks map[string]int
}

func newRecordingLocker() *recordingLocker {
	return &recordingLocker{locks: make(map[string]int)}
}

func (l *recordingLocker) Lock(key string) func() {
	l.mu.Lock()
	l.locks[key]++
	l.mu.Unlock()
	return func() {}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func gbp(t *testing.T, amount string) kernel.Money {
	t.Helper()
	m, err := kernel.NewMoneyFromString(amount, "GBP")
	require.NoError(t, err)
	return m
}

func party(t *testing.T, street, city, postcode, email string) kernel.Party {
	t.Helper()
	addr, err := kernel.NewAddress(street, city, "", postcode, "GB")
	require.NoError(t, err)
	contact, err := kernel.NewContact("Test Person", email, "")
	require.NoError(t, err)
	p, err := kernel.NewParty(addr, contact)
	require.NoError(t, err)
	return p
}

func sender(t *testing.T) kernel.Party {
	return party(t, "10 Downing St", "London", "SW1A 2AA", "sender@example.com")
}

func recipient(t *testing.T) kernel.Party {
	return party(t, "1 Piccadilly", "Manchester", "M1 1AA", "recipient@example.com")
}

func testParcel(t *testing.T) kernel.Parcel {
	t.Helper()
	p, err := kernel.NewParcel(2, 30, 20, 10, gbp(t, "50"), kernel.PackageParcel)
	require.NoError(t, err)
	return p
}

func newDraft(t *testing.T) *shipment.Shipment {
	t.Helper()
	s, err := shipment.NewDraft(kernel.NewUUID(), "user-1", sender(t), recipient(t), testParcel(t), gbp(t, "9.99"), fixedNow)
	require.NoError(t, err)
	code, err := shipment.ParseTrackingCode("SHPABCDEFGHIJ")
	require.NoError(t, err)
	require.NoError(t, s.AssignTrackingCode(code))
	return s
}

func draftWithCarrier(t *testing.T, price string) *shipment.Shipment {
	t.Helper()
	s := newDraft(t)
	require.NoError(t, s.SelectCarrier("fedex", "FEDEX_GROUND", gbp(t, price), nil, fixedNow))
	return s
}

func paidShipment(t *testing.T) *shipment.Shipment {
	t.Helper()
	s := draftWithCarrier(t, "12.50")
	require.NoError(t, s.MarkPaid("pi_123", fixedNow))
	return s
}

func bookedShipment(t *testing.T) *shipment.Shipment {
	t.Helper()
	s := paidShipment(t)
	require.NoError(t, s.MarkBooked("794600000001", "https://labels.example/1.pdf", fixedNow))
	return s
}
