//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/stormbuster/hailrisk/internal/adapter/kafka"
	"github.com/stormbuster/hailrisk/internal/analysis"
	"github.com/stormbuster/hailrisk/internal/config"
	"github.com/stormbuster/hailrisk/internal/domain"
	"github.com/stormbuster/hailrisk/internal/observability"
	"github.com/stormbuster/hailrisk/internal/store"
)

const testSinkTopic = "test-risk-reports"

const testSnapshot = `[
	{"date": "2024-04-26", "zipcode": "75201", "magnitude": "225", "lat": "32.7767", "lon": "-96.7970"},
	{"date": "2024-05-12", "zipcode": "75201", "magnitude": "1.75", "lat": "32.7801", "lon": "-96.8004"},
	{"date": "2024-06-03", "zipcode": "76102", "magnitude": "1.00", "lat": "32.7555", "lon": "-97.3308"}
]`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka launches a single-broker Kafka container and returns its
// bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("test-cluster"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "find controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// publishedReport holds a deserialized message read from the sink topic.
type publishedReport struct {
	Analysis domain.ZipcodeAnalysis
	Key      string
	Headers  map[string]string
}

func readReport(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedReport {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var a domain.ZipcodeAnalysis
	require.NoError(t, json.Unmarshal(msg.Value, &a), "unmarshal sink message")

	return publishedReport{Analysis: a, Key: string(msg.Key), Headers: headers}
}

// TestPublishAnalyses runs analysis over a small snapshot and verifies that
// every zipcode report round-trips through Kafka with the expected key,
// headers, and ranking.
func TestPublishAnalyses(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaBrokers:   []string{broker},
		KafkaSinkTopic: testSinkTopic,
	}

	snapshotPath := filepath.Join(t.TempDir(), "hail_events.json")
	require.NoError(t, os.WriteFile(snapshotPath, []byte(testSnapshot), 0o600))

	metrics := observability.NewMetricsForTesting()
	st := store.New(discardLogger(), metrics)
	require.NoError(t, st.Load(snapshotPath))

	engine := domain.NewRecommendationEngine(nil, discardLogger())
	orch := analysis.New(st, engine, domain.DefaultRiskWeights, 4, discardLogger(), metrics)

	analyses := orch.AnalyzeAll(ctx)
	require.Len(t, analyses, 2)

	writer := kafka.NewWriter(cfg, discardLogger(), metrics)
	t.Cleanup(func() { _ = writer.Close() })
	require.NoError(t, writer.PublishAnalyses(ctx, analyses))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	byZip := map[string]publishedReport{}
	for len(byZip) < 2 {
		r := readReport(ctx, t, consumer)
		byZip[r.Key] = r
	}

	dallas, ok := byZip["75201"]
	require.True(t, ok, "expected a report keyed 75201")
	assert.Equal(t, "75201", dallas.Analysis.Zipcode)
	assert.Equal(t, 2, dallas.Analysis.HailFrequency)
	assert.Equal(t, string(dallas.Analysis.RiskLevel), dallas.Headers["risk_level"])
	_, err := time.Parse(time.RFC3339, dallas.Headers["analyzed_at"])
	assert.NoError(t, err, "analyzed_at should be valid RFC3339")

	fortWorth, ok := byZip["76102"]
	require.True(t, ok, "expected a report keyed 76102")
	assert.Equal(t, 1, fortWorth.Analysis.HailFrequency)
	assert.Greater(t, dallas.Analysis.RiskScore, fortWorth.Analysis.RiskScore,
		"two larger-magnitude events should outrank one small one")
}
