// Package events publishes leadership-change and snapshot events so alerting
// and analytics consumers never have to poll the database.
package events

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Ramsey-B/banyan/pkg/kafka"
	"github.com/Ramsey-B/banyan/pkg/models"
	"github.com/Ramsey-B/banyan/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// ChangeEvent is the wire shape of a leadership-change event
type ChangeEvent struct {
	SchemaVersion     string            `json:"schema_version"`
	EventType         string            `json:"event_type"`
	UnitID            string            `json:"unit_id"`
	PersonName        string            `json:"person_name"`
	ChangeType        models.ChangeType `json:"change_type"`
	OldTitle          string            `json:"old_title,omitempty"`
	NewTitle          string            `json:"new_title,omitempty"`
	SignificanceScore int               `json:"significance_score"`
	Confidence        models.Confidence `json:"confidence"`
	SourceType        string            `json:"source_type"`
	Timestamp         time.Time         `json:"timestamp"`
}

// SnapshotEvent is the wire shape of an org-chart snapshot event
type SnapshotEvent struct {
	SchemaVersion string    `json:"schema_version"`
	EventType     string    `json:"event_type"`
	UnitID        string    `json:"unit_id"`
	SnapshotDate  string    `json:"snapshot_date"`
	MaxDepth      int       `json:"max_depth"`
	Departments   []string  `json:"departments"`
	Timestamp     time.Time `json:"timestamp"`
}

// Emitter publishes pipeline events. A nil Emitter is a no-op so callers
// never branch on whether Kafka is enabled.
type Emitter struct {
	producer      *kafka.Producer
	logger        *zap.Logger
	changeTopic   string
	snapshotTopic string
}

// NewEmitter creates an event emitter
func NewEmitter(producer *kafka.Producer, logger *zap.Logger, changeTopic, snapshotTopic string) *Emitter {
	return &Emitter{
		producer:      producer,
		logger:        logger,
		changeTopic:   changeTopic,
		snapshotTopic: snapshotTopic,
	}
}

// EmitChange publishes one detected leadership change
func (e *Emitter) EmitChange(ctx context.Context, change *models.LeadershipChange) error {
	if e == nil {
		return nil
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitChange")
	defer span.End()

	event := &ChangeEvent{
		SchemaVersion:     SchemaVersion,
		EventType:         "leadership.change_detected",
		UnitID:            change.UnitID,
		PersonName:        change.PersonName,
		ChangeType:        change.ChangeType,
		OldTitle:          change.OldTitle,
		NewTitle:          change.NewTitle,
		SignificanceScore: change.SignificanceScore,
		Confidence:        change.Confidence,
		SourceType:        change.SourceType,
		Timestamp:         time.Now().UTC(),
	}

	headers := map[string]string{
		"event_type":  event.EventType,
		"change_type": string(change.ChangeType),
	}
	if err := e.producer.Publish(ctx, e.changeTopic, change.UnitID, event, headers); err != nil {
		e.logger.Error("failed to emit change event",
			zap.String("unit_id", change.UnitID),
			zap.Error(err))
		return err
	}
	return nil
}

// EmitSnapshot publishes one built org-chart snapshot
func (e *Emitter) EmitSnapshot(ctx context.Context, snapshot *models.OrgChartSnapshot) error {
	if e == nil {
		return nil
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitSnapshot")
	defer span.End()

	event := &SnapshotEvent{
		SchemaVersion: SchemaVersion,
		EventType:     "leadership.snapshot_built",
		UnitID:        snapshot.UnitID,
		SnapshotDate:  snapshot.SnapshotDate.Format("2006-01-02"),
		MaxDepth:      snapshot.MaxDepth,
		Departments:   snapshot.Departments,
		Timestamp:     time.Now().UTC(),
	}

	headers := map[string]string{"event_type": event.EventType}
	if err := e.producer.Publish(ctx, e.snapshotTopic, snapshot.UnitID, event, headers); err != nil {
		e.logger.Error("failed to emit snapshot event",
			zap.String("unit_id", snapshot.UnitID),
			zap.Error(err))
		return err
	}
	return nil
}
