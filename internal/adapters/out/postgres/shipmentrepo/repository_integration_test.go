package shipmentrepo_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	pgadapter "shipping/internal/adapters/out/postgres"
	"shipping/internal/adapters/out/postgres/shipmentrepo"
	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/domain/model/shipment"
	"shipping/internal/pkg/errs"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type MockAggregateTracker struct {
	mock.Mock
}

func (m *MockAggregateTracker) TrackAggregate(id kernel.UUID, aggregate any) {
	m.Called(id, aggregate)
}

type ShipmentRepositoryIntegrationTestSuite struct {
	suite.Suite
	container  *postgres.PostgresContainer
	db         *gorm.DB
	repository *shipmentrepo.GormShipmentRepository
	tracker    *MockAggregateTracker
	now        time.Time
}

func TestShipmentRepositoryIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ShipmentRepositoryIntegrationTestSuite))
}

func (suite *ShipmentRepositoryIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	suite.Require().NoError(pgadapter.Migrate(connStr, slog.New(slog.NewTextHandler(io.Discard, nil))))

	db, err := gorm.Open(postgresdriver.Open(connStr), &gorm.Config{})
	suite.Require().NoError(err)
	suite.db = db
}

func (suite *ShipmentRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE payments, shipments").Error)

	suite.tracker = new(MockAggregateTracker)
	suite.tracker.On("TrackAggregate", mock.Anything, mock.Anything).Maybe()
	suite.repository = shipmentrepo.NewGormShipmentRepository(suite.db, suite.tracker)
	suite.now = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
}

func (suite *ShipmentRepositoryIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *ShipmentRepositoryIntegrationTestSuite) TestAdd_AssignsFirstVersion() {
	ctx := context.Background()
	s := suite.newDraft("requester-1", "SHP234567ABCD", suite.now)

	suite.Require().NoError(suite.repository.Add(ctx, s))

	suite.Equal(1, s.Version())
	suite.tracker.AssertCalled(suite.T(), "TrackAggregate", s.ID(), s)
}

func (suite *ShipmentRepositoryIntegrationTestSuite) TestAdd_WithoutTrackingCode_Fails() {
	s := suite.newDraft("requester-1", "", suite.now)

	err := suite.repository.Add(context.Background(), s)

	suite.Require().ErrorIs(err, errs.ErrValueIsRequired)
	suite.tracker.AssertNotCalled(suite.T(), "TrackAggregate", mock.Anything, mock.Anything)
}

func (suite *ShipmentRepositoryIntegrationTestSuite) TestGet_RoundTripsEveryField() {
	ctx := context.Background()
	s := suite.newDraft("requester-1", "SHP234567ABCD", suite.now)
	price := money(suite.T(), "18.40")
	quoteID := kernel.NewUUID()
	suite.Require().NoError(s.SelectCarrier("fedex", "FEDEX_GROUND", price, &quoteID, suite.now))
	suite.Require().NoError(s.MarkPaid("pi_123", suite.now.Add(time.Minute)))
	suite.Require().NoError(s.MarkBooked("794600000001", "https://labels.example/1.pdf", suite.now.Add(2*time.Minute)))
	suite.Require().NoError(suite.repository.Add(ctx, s))

	restored, err := suite.repository.Get(ctx, s.ID())
	suite.Require().NoError(err)

	suite.Equal(s.TrackingCode(), restored.TrackingCode())
	suite.Equal("requester-1", restored.RequesterID())
	suite.Equal("SW1A 2AA", restored.Sender().Address.PostalCode())
	suite.Equal("ops@example.com", restored.Sender().Contact.Email())
	suite.Equal("M1 1AA", restored.Recipient().Address.PostalCode())
	suite.InDelta(2.5, restored.Parcel().WeightKg(), 0.0001)
	suite.Equal(kernel.PackageParcel, restored.Parcel().PackageType())
	suite.Equal("fedex", restored.Carrier())
	suite.Equal("FEDEX_GROUND", restored.ServiceCode())
	suite.True(price.Equal(restored.Price()))
	suite.Require().NotNil(restored.QuoteID())
	suite.True(quoteID.IsEqual(*restored.QuoteID()))
	suite.Equal(shipment.Processing, restored.Status())
	suite.Equal(shipment.Paid, restored.PaymentStatus())
	suite.Equal("pi_123", restored.PaymentReference())
	suite.Equal("794600000001", restored.CarrierTrackingID())
	suite.Equal("https://labels.example/1.pdf", restored.LabelURL())
	suite.Equal(1, restored.BookingAttempts())
	suite.Require().Len(restored.History(), 1)
	suite.Equal("processing", restored.History()[0].Status)
	suite.Equal(1, restored.Version())
}

func (suite *ShipmentRepositoryIntegrationTestSuite) TestGet_NonExistent_ReturnsNotFound() {
	restored, err := suite.repository.Get(context.Background(), kernel.NewUUID())

	suite.Nil(restored)
	var notFound *errs.ObjectNotFoundError
	suite.Require().ErrorAs(err, &notFound)
}

func (suite *ShipmentRepositoryIntegrationTestSuite) TestGetByTrackingCode() {
	ctx := context.Background()
	s := suite.newDraft("requester-1", "SHP234567ABCD", suite.now)
	suite.Require().NoError(suite.repository.Add(ctx, s))

	found, err := suite.repository.GetByTrackingCode(ctx, "SHP234567ABCD")
	suite.Require().NoError(err)
	suite.True(s.ID().IsEqual(found.ID()))

	_, err = suite.repository.GetByTrackingCode(ctx, "SHPZZZZZZZZZZ")
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *ShipmentRepositoryIntegrationTestSuite) TestTrackingCodeExists() {
	ctx := context.Background()
	suite.Require().NoError(suite.repository.Add(ctx, suite.newDraft("requester-1", "SHP234567ABCD", suite.now)))

	exists, err := suite.repository.TrackingCodeExists(ctx, "SHP234567ABCD")
	suite.Require().NoError(err)
	suite.True(exists)

	exists, err = suite.repository.TrackingCodeExists(ctx, "SHP234567ABCE")
	suite.Require().NoError(err)
	suite.False(exists)
}

func (suite *ShipmentRepositoryIntegrationTestSuite) TestUpdate_BumpsVersion() {
	ctx := context.Background()
	s := suite.newDraft("requester-1", "SHP234567ABCD", suite.now)
	suite.Require().NoError(suite.repository.Add(ctx, s))

	suite.Require().NoError(s.SelectCarrier("ups", "11", money(suite.T(), "9.99"), nil, suite.now))
	suite.Require().NoError(suite.repository.Update(ctx, s))
	suite.Equal(2, s.Version())

	restored, err := suite.repository.Get(ctx, s.ID())
	suite.Require().NoError(err)
	suite.Equal("ups", restored.Carrier())
	suite.Equal(2, restored.Version())
}

func (suite *ShipmentRepositoryIntegrationTestSuite) TestUpdate_StaleVersion_ReturnsConcurrentModification() {
	ctx := context.Background()
	s := suite.newDraft("requester-1", "SHP234567ABCD", suite.now)
	suite.Require().NoError(suite.repository.Add(ctx, s))

	first, err := suite.repository.Get(ctx, s.ID())
	suite.Require().NoError(err)
	second, err := suite.repository.Get(ctx, s.ID())
	suite.Require().NoError(err)

	suite.Require().NoError(first.SelectCarrier("ups", "11", money(suite.T(), "9.99"), nil, suite.now))
	suite.Require().NoError(suite.repository.Update(ctx, first))

	suite.Require().NoError(second.SelectCarrier("fedex", "FEDEX_GROUND", money(suite.T(), "11.00"), nil, suite.now))
	err = suite.repository.Update(ctx, second)

	suite.Require().ErrorIs(err, errs.ErrConcurrentModification)
	restored, getErr := suite.repository.Get(ctx, s.ID())
	suite.Require().NoError(getErr)
	suite.Equal("ups", restored.Carrier())
}

func (suite *ShipmentRepositoryIntegrationTestSuite) TestUpdate_Missing_ReturnsNotFound() {
	s := suite.newDraft("requester-1", "SHP234567ABCD", suite.now)

	err := suite.repository.Update(context.Background(), s)

	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *ShipmentRepositoryIntegrationTestSuite) TestFindRecentDraft() {
	ctx := context.Background()
	older := suite.newDraft("requester-1", "SHP234567ABCD", suite.now.Add(-20*time.Minute))
	recent := suite.newDraft("requester-1", "SHP234567ABCE", suite.now.Add(-2*time.Minute))
	other := suite.newDraft("requester-2", "SHP234567ABCF", suite.now.Add(-time.Minute))
	for _, s := range []*shipment.Shipment{older, recent, other} {
		suite.Require().NoError(suite.repository.Add(ctx, s))
	}

	found, err := suite.repository.FindRecentDraft(ctx, recent.DedupKey(), suite.now.Add(-10*time.Minute))
	suite.Require().NoError(err)
	suite.True(recent.ID().IsEqual(found.ID()))

	_, err = suite.repository.FindRecentDraft(ctx, older.DedupKey(), suite.now)
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *ShipmentRepositoryIntegrationTestSuite) TestFindRecentDraft_IgnoresPaidShipments() {
	ctx := context.Background()
	s := suite.newDraft("requester-1", "SHP234567ABCD", suite.now)
	suite.Require().NoError(s.SelectCarrier("ups", "11", money(suite.T(), "9.99"), nil, suite.now))
	suite.Require().NoError(s.MarkPaid("pi_1", suite.now))
	suite.Require().NoError(suite.repository.Add(ctx, s))

	_, err := suite.repository.FindRecentDraft(ctx, s.DedupKey(), suite.now.Add(-time.Minute))

	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *ShipmentRepositoryIntegrationTestSuite) TestLockDraftSubmission_HeldUntilTransactionEnds() {
	ctx := context.Background()
	key := "requester-1|SW1A1AA|GB|M11AA|GB|sender@example.com|1.000"

	holder := suite.db.Begin()
	defer holder.Rollback()
	suite.Require().NoError(shipmentrepo.NewGormShipmentRepository(holder, suite.tracker).LockDraftSubmission(ctx, key))

	blocked := suite.db.Begin()
	defer blocked.Rollback()
	waitCtx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()
	err := shipmentrepo.NewGormShipmentRepository(blocked, suite.tracker).LockDraftSubmission(waitCtx, key)
	suite.Require().Error(err)

	other := suite.db.Begin()
	defer other.Rollback()
	suite.Require().NoError(shipmentrepo.NewGormShipmentRepository(other, suite.tracker).LockDraftSubmission(ctx, key+"x"))

	suite.Require().NoError(holder.Rollback().Error)

	next := suite.db.Begin()
	defer next.Rollback()
	suite.Require().NoError(shipmentrepo.NewGormShipmentRepository(next, suite.tracker).LockDraftSubmission(ctx, key))
}

func (suite *ShipmentRepositoryIntegrationTestSuite) TestListTrackable() {
	ctx := context.Background()
	booked := suite.bookedShipment("SHP234567ABCD", "fedex")
	upsBooked := suite.bookedShipment("SHP234567ABCE", "ups")
	draft := suite.newDraft("requester-1", "SHP234567ABCF", suite.now)
	for _, s := range []*shipment.Shipment{booked, upsBooked, draft} {
		suite.Require().NoError(suite.repository.Add(ctx, s))
	}

	found, err := suite.repository.ListTrackable(ctx, []string{"fedex"}, 10)
	suite.Require().NoError(err)
	suite.Require().Len(found, 1)
	suite.True(booked.ID().IsEqual(found[0].ID()))

	found, err = suite.repository.ListTrackable(ctx, nil, 10)
	suite.Require().NoError(err)
	suite.Empty(found)
}

func (suite *ShipmentRepositoryIntegrationTestSuite) TestListAwaitingBooking() {
	ctx := context.Background()
	flagged := suite.paidShipment("SHP234567ABCD")
	suite.Require().NoError(flagged.FlagBookingFailure("carrier timeout", suite.now))
	exhausted := suite.paidShipment("SHP234567ABCE")
	for range 3 {
		suite.Require().NoError(exhausted.FlagBookingFailure("carrier timeout", suite.now))
	}
	notFlagged := suite.paidShipment("SHP234567ABCF")
	for _, s := range []*shipment.Shipment{flagged, exhausted, notFlagged} {
		suite.Require().NoError(suite.repository.Add(ctx, s))
	}

	found, err := suite.repository.ListAwaitingBooking(ctx, 3, 10)
	suite.Require().NoError(err)

	suite.Require().Len(found, 1)
	suite.True(flagged.ID().IsEqual(found[0].ID()))
	suite.True(found[0].NeedsSupport())
	suite.Equal("carrier timeout", found[0].SupportNote())
}

func (suite *ShipmentRepositoryIntegrationTestSuite) newDraft(requesterID string, code shipment.TrackingCode, createdAt time.Time) *shipment.Shipment {
	sender := party(suite.T(), "Ops Desk", "ops@example.com", "SW1A 2AA", "London")
	recipient := party(suite.T(), "Jo Bloggs", "jo@example.com", "M1 1AA", "Manchester")
	if requesterID == "requester-2" {
		recipient = party(suite.T(), "Sam Lee", "sam@example.com", "LS1 4AP", "Leeds")
	}
	parcel, err := kernel.NewParcel(2.5, 30, 20, 10, money(suite.T(), "40.00"), kernel.PackageParcel)
	suite.Require().NoError(err)

	s, err := shipment.NewDraft(kernel.NewUUID(), requesterID, sender, recipient, parcel, money(suite.T(), "12.50"), createdAt)
	suite.Require().NoError(err)
	if code != "" {
		suite.Require().NoError(s.AssignTrackingCode(code))
	}
	return s
}

func (suite *ShipmentRepositoryIntegrationTestSuite) paidShipment(code shipment.TrackingCode) *shipment.Shipment {
	s := suite.newDraft("requester-1", code, suite.now)
	suite.Require().NoError(s.SelectCarrier("fedex", "FEDEX_GROUND", money(suite.T(), "18.40"), nil, suite.now))
	suite.Require().NoError(s.MarkPaid("pi_"+code.String(), suite.now))
	return s
}

func (suite *ShipmentRepositoryIntegrationTestSuite) bookedShipment(code shipment.TrackingCode, carrier string) *shipment.Shipment {
	s := suite.newDraft("requester-1", code, suite.now)
	suite.Require().NoError(s.SelectCarrier(carrier, "GROUND", money(suite.T(), "18.40"), nil, suite.now))
	suite.Require().NoError(s.MarkPaid("pi_"+code.String(), suite.now))
	suite.Require().NoError(s.MarkBooked("TRK"+code.String(), "", suite.now))
	return s
}

func party(t *testing.T, name, email, postcode, city string) kernel.Party {
	t.Helper()
	addr, err := kernel.NewAddress("1 High Street", city, "", postcode, "GB")
	if err != nil {
		t.Fatal(err)
	}
	contact, err := kernel.NewContact(name, email, "")
	if err != nil {
		t.Fatal(err)
	}
	p, err := kernel.NewParty(addr, contact)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func money(t *testing.T, amount string) kernel.Money {
	t.Helper()
	m, err := kernel.NewMoneyFromString(amount, "GBP")
	if err != nil {
		t.Fatal(err)
	}
	return m
}
