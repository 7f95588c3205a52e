// Package kafka publishes completed zipcode analyses to a report topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/stormbuster/hailrisk/internal/config"
	"github.com/stormbuster/hailrisk/internal/domain"
	"github.com/stormbuster/hailrisk/internal/observability"
)

// Writer produces analysis records to the report sink topic.
type Writer struct {
	writer  *kafkago.Writer
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger, metrics: metrics}
}

// PublishAnalyses serializes and publishes analyses to the sink topic in a
// single WriteMessages call. Entries carrying a batch error marker are
// published too: downstream consumers see partial results, never silent drops.
func (w *Writer) PublishAnalyses(ctx context.Context, analyses []domain.ZipcodeAnalysis) error {
	if len(analyses) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(analyses))
	for i := range analyses {
		msg, err := serializeToMessage(analyses[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish analyses: %w", err)
	}
	w.metrics.AnalysesPublished.Add(float64(len(analyses)))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a ZipcodeAnalysis into a Kafka message keyed
// by zipcode, so all reports for one zipcode land on one partition.
func serializeToMessage(a domain.ZipcodeAnalysis) (kafkago.Message, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize analysis: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(a.Zipcode),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "risk_level", Value: []byte(a.RiskLevel)},
			{Key: "analyzed_at", Value: []byte(a.AnalysisTimestamp.Format(time.RFC3339))},
		},
	}, nil
}
