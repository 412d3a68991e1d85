//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Parastud/ParkEase/internal/application"
	bookingDomain "github.com/Parastud/ParkEase/internal/domain/booking"
	bookingEvents "github.com/Parastud/ParkEase/internal/events"
	"github.com/Parastud/ParkEase/internal/pkg/events"
	"github.com/Parastud/ParkEase/internal/pkg/kafka"
	"github.com/Parastud/ParkEase/internal/repository"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB           *gorm.DB
	KafkaBrokers []string
	Cleanup      func()
}

// parkingStack holds wired-up service components.
type parkingStack struct {
	Bookings        *application.BookingService
	Spots           *repository.GormSpotRepository
	Ledger          *repository.GormAvailabilityLedger
	Sweeper         *application.ExpirySweeper
	Consumer        *bookingEvents.BookingEventConsumer
	Notifications   *repository.GormNotificationRepository
	CleanupProducer func()
}

// setupContainers starts PostgreSQL and Kafka testcontainers and returns a connected GORM DB.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_parking",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=test password=test dbname=test_parking sslmode=disable", pgHost, pgPort.Port())

	// Poll until GORM can actually connect and ping.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return false
		}
		sqlDB, err := db.DB()
		if err != nil {
			return false
		}
		return sqlDB.Ping() == nil
	}, 30*time.Second, 1*time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, db.AutoMigrate(
		&repository.SpotModel{},
		&repository.BookingModel{},
		&repository.OwnerProfileModel{},
		&repository.NotificationModel{},
	))

	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	createTopics(t, kafkaBrokers, events.TopicBookingEvents)

	cleanup := func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	}

	return &testInfra{
		DB:           db,
		KafkaBrokers: kafkaBrokers,
		Cleanup:      cleanup,
	}
}

// setupParkingStack wires up the full service stack against real containers.
func setupParkingStack(t *testing.T, db *gorm.DB, brokers []string) *parkingStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	clock := time.Now

	spotRepo := repository.NewGormSpotRepository(db)
	bookingRepo := repository.NewGormBookingRepository(db)
	notificationRepo := repository.NewGormNotificationRepository(db)
	ledger := repository.NewGormAvailabilityLedger(db, logger)

	producer := kafka.NewProducer(brokers, logger)
	emitter := application.NewKafkaNotificationEmitter(producer, logger)
	pricing := bookingDomain.NewHourlyPricingStrategy()

	bookingSvc := application.NewBookingService(bookingRepo, spotRepo, ledger, pricing, emitter, logger, clock)
	sweeper := application.NewExpirySweeper(bookingRepo, ledger, emitter, logger, clock, time.Minute)

	groupID := fmt.Sprintf("test-parking-%s", uuid.New().String()[:8])
	consumer := bookingEvents.NewBookingEventConsumer(brokers, groupID, notificationRepo, logger, clock)

	return &parkingStack{
		Bookings:        bookingSvc,
		Spots:           spotRepo,
		Ledger:          ledger,
		Sweeper:         sweeper,
		Consumer:        consumer,
		Notifications:   notificationRepo,
		CleanupProducer: func() { _ = producer.Close() },
	}
}

// seedSpot inserts a parking spot directly and returns its ID.
func seedSpot(t *testing.T, db *gorm.DB, ownerID uuid.UUID, total int, requiresApproval bool) uuid.UUID {
	t.Helper()
	now := time.Now().UTC()
	model := repository.SpotModel{
		ID:                uuid.New(),
		OwnerID:           ownerID,
		Title:             "Integration Lot",
		Description:       "seeded",
		Address:           "12 MG Road",
		Latitude:          12.9716,
		Longitude:         77.5946,
		PricePerHourCents: 2000,
		Currency:          "INR",
		TotalSpots:        total,
		AvailableSpots:    total,
		RequiresApproval:  requiresApproval,
		Features:          []byte(`{}`),
		ImageURLs:         []byte(`[]`),
		Version:           1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	require.NoError(t, db.Create(&model).Error, "failed to seed spot")
	return model.ID
}

// spotAvailability reads the live available count straight from the table.
func spotAvailability(t *testing.T, db *gorm.DB, spotID uuid.UUID) int {
	t.Helper()
	var model repository.SpotModel
	require.NoError(t, db.Where("id = ?", spotID).First(&model).Error)
	return model.AvailableSpots
}

// waitForBookingStatus polls the bookings table until the status matches.
func waitForBookingStatus(t *testing.T, db *gorm.DB, bookingID uuid.UUID, expectedStatus string, timeout time.Duration) repository.BookingModel {
	t.Helper()
	var result repository.BookingModel
	require.Eventually(t, func() bool {
		var model repository.BookingModel
		err := db.Where("id = ?", bookingID).First(&model).Error
		if err != nil {
			return false
		}
		if model.Status == expectedStatus {
			result = model
			return true
		}
		return false
	}, timeout, 200*time.Millisecond, "booking did not transition to %s", expectedStatus)
	return result
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the expected type.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType string, timeout time.Duration) kafka.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		ce, err := kafka.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == expectedType {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	err = controllerConn.CreateTopics(topicConfigs...)
	require.NoError(t, err, "failed to create Kafka topics")

	// Give Kafka a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
}
