package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bnasmart/gateway-backend/pkg/db/models"
	"github.com/bnasmart/gateway-backend/pkg/enums"
)

func setupOutboxTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY DEFAULT (
    lower(hex(randomblob(4))) || '-' ||
    lower(hex(randomblob(2))) || '-4' ||
    substr(lower(hex(randomblob(2))), 2) || '-a' ||
    substr(lower(hex(randomblob(2))), 2) || '-' ||
    lower(hex(randomblob(6)))
  ),
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`
	index := `
CREATE UNIQUE INDEX IF NOT EXISTS ux_outbox_events_event_aggregate
  ON outbox_events (event_type, aggregate_type, aggregate_id)
  WHERE published_at IS NULL;`
	require.NoError(t, db.Exec(schema).Error)
	require.NoError(t, db.Exec(index).Error)
	return db
}

func TestServiceEmitPersistsEnvelope(t *testing.T) {
	db := setupOutboxTestDB(t)
	service := NewService(NewRepository(db), nil)
	aggregateID := uuid.New()

	err := service.Emit(context.Background(), db, DomainEvent{
		EventType:     enums.EventOrderPaid,
		AggregateType: enums.AggregateOrder,
		AggregateID:   aggregateID,
		Source:        &SourceRef{TransactionID: "tx_1", Origin: "webhook"},
		Data:          map[string]string{"orderKey": "wc-100"},
		Version:       1,
	})
	require.NoError(t, err)

	var row models.OutboxEvent
	require.NoError(t, db.First(&row).Error)
	assert.Equal(t, enums.EventOrderPaid, row.EventType)
	assert.Equal(t, enums.AggregateOrder, row.AggregateType)
	assert.Equal(t, aggregateID, row.AggregateID)
	assert.Nil(t, row.PublishedAt)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(row.Payload, &envelope))
	assert.Equal(t, 1, envelope.Version)
	assert.NotEmpty(t, envelope.EventID)
	assert.False(t, envelope.OccurredAt.IsZero())
	require.NotNil(t, envelope.Source)
	assert.Equal(t, "tx_1", envelope.Source.TransactionID)
	assert.JSONEq(t, `{"orderKey":"wc-100"}`, string(envelope.Data))
}

func TestServiceEmitRequiresTransaction(t *testing.T) {
	db := setupOutboxTestDB(t)
	service := NewService(NewRepository(db), nil)

	err := service.Emit(context.Background(), nil, DomainEvent{
		EventType:     enums.EventOrderPaid,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
	})
	require.Error(t, err)
}

func TestServiceEmitIfNotExistsSuppressesDuplicate(t *testing.T) {
	db := setupOutboxTestDB(t)
	service := NewService(NewRepository(db), nil)
	aggregateID := uuid.New()

	event := DomainEvent{
		EventType:     enums.EventOrderPaid,
		AggregateType: enums.AggregateOrder,
		AggregateID:   aggregateID,
		Data:          map[string]string{"orderKey": "wc-100"},
		Version:       1,
	}
	require.NoError(t, service.EmitIfNotExists(context.Background(), db, event))
	require.NoError(t, service.EmitIfNotExists(context.Background(), db, event))

	var count int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRepositoryFetchUnpublishedSkipsExhaustedAndPublished(t *testing.T) {
	db := setupOutboxTestDB(t)
	repo := NewRepository(db)
	base := time.Now().Add(-time.Hour)

	fresh := insertOutboxRow(t, db, enums.EventOrderPaid, base)
	exhausted := insertOutboxRow(t, db, enums.EventOrderFailed, base.Add(time.Minute))
	published := insertOutboxRow(t, db, enums.EventCustomerSynced, base.Add(2*time.Minute))

	require.NoError(t, db.Model(&models.OutboxEvent{}).Where("id = ?", exhausted).Update("attempt_count", 10).Error)
	require.NoError(t, db.Model(&models.OutboxEvent{}).Where("id = ?", published).Update("published_at", time.Now()).Error)

	rows, err := repo.FetchUnpublished(50, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, fresh, rows[0].ID)
}

func TestRepositoryMarkPublishedAndFailed(t *testing.T) {
	db := setupOutboxTestDB(t)
	repo := NewRepository(db)
	id := insertOutboxRow(t, db, enums.EventOrderPaid, time.Now())

	require.NoError(t, repo.MarkFailed(id, errors.New("topic unavailable")))

	var row models.OutboxEvent
	require.NoError(t, db.Where("id = ?", id).First(&row).Error)
	assert.Equal(t, 1, row.AttemptCount)
	require.NotNil(t, row.LastError)
	assert.Equal(t, "topic unavailable", *row.LastError)

	require.NoError(t, repo.MarkPublished(id))
	require.NoError(t, db.Where("id = ?", id).First(&row).Error)
	assert.NotNil(t, row.PublishedAt)

	rows, err := repo.FetchUnpublished(50, 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func insertOutboxRow(t *testing.T, db *gorm.DB, eventType enums.OutboxEventType, created time.Time) uuid.UUID {
	t.Helper()
	row := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{"version":1,"data":{}}`),
		CreatedAt:     created,
	}
	require.NoError(t, db.Create(&row).Error)
	return row.ID
}
