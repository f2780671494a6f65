package ratetablerepo_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	pgadapter "shipping/internal/adapters/out/postgres"
	"shipping/internal/adapters/out/postgres/ratetablerepo"
	"shipping/internal/core/domain/model/kernel"
	"shipping/internal/core/domain/model/rate"
	"shipping/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const testCarrier = "dhl"

type MockAggregateTracker struct {
	mock.Mock
}

func (m *MockAggregateTracker) TrackAggregate(id kernel.UUID, aggregate any) {
	m.Called(id, aggregate)
}

type RateTableRepositoryIntegrationTestSuite struct {
	suite.Suite
	container  *postgres.PostgresContainer
	db         *gorm.DB
	repository *ratetablerepo.GormRateTableRepository
	tracker    *MockAggregateTracker
}

func TestRateTableRepositoryIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RateTableRepositoryIntegrationTestSuite))
}

func (suite *RateTableRepositoryIntegrationTestSuite) SetupSuite() {
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

func (suite *RateTableRepositoryIntegrationTestSuite) SetupTest() {
	// Seeded carriers stay; only the test carrier is reset.
	suite.Require().NoError(suite.db.Exec("DELETE FROM rate_tables WHERE carrier = ?", testCarrier).Error)

	suite.tracker = new(MockAggregateTracker)
	suite.tracker.On("TrackAggregate", mock.Anything, mock.Anything).Maybe()
	suite.repository = ratetablerepo.NewGormRateTableRepository(suite.db, suite.tracker)
}

func (suite *RateTableRepositoryIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *RateTableRepositoryIntegrationTestSuite) TestSeededTables() {
	ctx := context.Background()

	for _, carrier := range []string{"fedex", "ups"} {
		suite.Run(carrier, func() {
			tables, err := suite.repository.ListByCarrier(ctx, carrier)
			suite.Require().NoError(err)

			suite.Require().Len(tables, 1)
			suite.True(tables[0].IsActive())
			suite.Equal(1, tables[0].Version())
			suite.Len(tables[0].Services(), 3)
		})
	}
}

func (suite *RateTableRepositoryIntegrationTestSuite) TestAddAndGet() {
	ctx := context.Background()
	table := suite.newTable(1)

	suite.Require().NoError(suite.repository.Add(ctx, table))

	restored, err := suite.repository.Get(ctx, table.ID())
	suite.Require().NoError(err)
	suite.Equal(testCarrier, restored.Carrier())
	suite.False(restored.IsActive())
	suite.Equal("GBP", restored.Currency())
	suite.InDelta(5000, restored.Divisor(), 0.001)
	suite.Require().Len(restored.Services(), 1)
	service := restored.Services()[0]
	suite.Equal("EXPRESS", service.ServiceCode)
	suite.True(decimal.RequireFromString("6.25").Equal(service.Base))
	suite.True(decimal.RequireFromString("1.40").Equal(service.PerKg))
	suite.Equal(2, service.EstimatedDays)
	suite.True(decimal.RequireFromString("9.5").Equal(restored.Surcharges().FuelPct))
}

func (suite *RateTableRepositoryIntegrationTestSuite) TestGet_NonExistent_ReturnsNotFound() {
	_, err := suite.repository.Get(context.Background(), kernel.NewUUID())

	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *RateTableRepositoryIntegrationTestSuite) TestActivate_SwitchesActiveVersion() {
	ctx := context.Background()
	suite.Require().NoError(suite.repository.Add(ctx, suite.newTable(1)))
	suite.Require().NoError(suite.repository.Add(ctx, suite.newTable(2)))

	_, err := suite.repository.Activate(ctx, testCarrier, 1)
	suite.Require().NoError(err)

	activated, err := suite.repository.Activate(ctx, "DHL", 2)
	suite.Require().NoError(err)
	suite.True(activated.IsActive())
	suite.Equal(2, activated.Version())

	tables, err := suite.repository.ListByCarrier(ctx, testCarrier)
	suite.Require().NoError(err)
	suite.Require().Len(tables, 2)
	suite.False(tables[0].IsActive())
	suite.True(tables[1].IsActive())
}

func (suite *RateTableRepositoryIntegrationTestSuite) TestActivate_UnknownVersion_ReturnsNotFound() {
	_, err := suite.repository.Activate(context.Background(), testCarrier, 9)

	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *RateTableRepositoryIntegrationTestSuite) newTable(version int) *rate.Table {
	table, err := rate.NewTable(
		kernel.NewUUID(),
		testCarrier,
		version,
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		"GBP",
		[]rate.ServiceRate{{
			ServiceCode:   "EXPRESS",
			DisplayName:   "Express",
			Base:          decimal.RequireFromString("6.25"),
			PerKg:         decimal.RequireFromString("1.40"),
			EstimatedDays: 2,
		}},
		rate.Surcharges{
			FuelPct:         decimal.RequireFromString("9.5"),
			DeliveryAreaPct: decimal.Zero,
			ResidentialPct:  decimal.RequireFromString("3"),
		},
		0,
	)
	suite.Require().NoError(err)
	return table
}
