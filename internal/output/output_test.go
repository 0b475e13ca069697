package output

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"
	saramamocks "github.com/IBM/sarama/mocks"
	"github.com/chrisdamba/orderpulse/internal/models"
	"github.com/chrisdamba/orderpulse/internal/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var eventTime = time.Date(2024, 1, 1, 9, 15, 0, 0, time.UTC)

func deliveredChange() store.Change {
	return store.Change{
		Type: store.ChangeDelivered,
		Order: &models.Order{
			ID:           "o-1",
			CustomerName: "Priya Patel",
			Status:       models.OrderStatusDelivered,
			Latitude:     12.9,
			Longitude:    77.6,
			Amount:       1200,
		},
	}
}

func TestSerializeChange(t *testing.T) {
	msg, ok, err := SerializeChange(deliveredChange(), eventTime)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.TopicOrderDelivery, msg.Topic)
	assert.JSONEq(t, `{
		"timestamp": 1704100500000,
		"eventType": "order_delivered",
		"orderId": "o-1",
		"customerName": "Priya Patel",
		"status": "DELIVERED",
		"latitude": 12.9,
		"longitude": 77.6,
		"amount": 1200
	}`, string(msg.Message))

	loc := deliveredChange()
	loc.Type = store.ChangeLocation
	msg, ok, err = SerializeChange(loc, eventTime)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.TopicOrderLocation, msg.Topic)

	_, ok, err = SerializeChange(store.Change{Type: store.ChangeLoaded}, eventTime)
	require.NoError(t, err)
	assert.False(t, ok)

	sel := deliveredChange()
	sel.Type = store.ChangeSelected
	_, ok, err = SerializeChange(sel, eventTime)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	out := NewConsoleOutput(&buf)
	require.NoError(t, out.WriteMessage("topic-a", []byte(`{"a":1}`)))
	require.NoError(t, out.Close())
	assert.Equal(t, "[topic-a] {\"a\":1}\n", buf.String())
}

func TestJSONOutput_PartitionsByTimestamp(t *testing.T) {
	base := t.TempDir()
	out := NewJSONOutput(base)

	msg, _, err := SerializeChange(deliveredChange(), eventTime)
	require.NoError(t, err)
	require.NoError(t, out.WriteMessage(msg.Topic, msg.Message))
	require.NoError(t, out.WriteMessage(msg.Topic, msg.Message))
	require.NoError(t, out.Close())

	path := filepath.Join(base, models.TopicOrderDelivery, "year=2024/month=01/day=01/hour=09", "data.json")
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	lines := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		assert.JSONEq(t, string(msg.Message), scanner.Text())
		lines++
	}
	assert.Equal(t, 2, lines)
}

func TestJSONOutput_RejectsInvalidEvents(t *testing.T) {
	out := NewJSONOutput(t.TempDir())
	assert.Error(t, out.WriteMessage("t", []byte("not json")))
	assert.Error(t, out.WriteMessage("t", []byte(`{"orderId":"x"}`)))
}

func newMockSyncProducer(t *testing.T) *saramamocks.SyncProducer {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	return saramamocks.NewSyncProducer(t, cfg)
}

func TestSaramaProducer_WriteMessage(t *testing.T) {
	mock := newMockSyncProducer(t)
	mock.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		if string(val) != `{"orderId":"o-1"}` {
			return errors.New("unexpected payload")
		}
		return nil
	})
	mock.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewSaramaProducerFrom(mock, zaptest.NewLogger(t))
	require.NoError(t, p.WriteMessage(models.TopicOrderDelivery, []byte(`{"orderId":"o-1"}`)))
	err := p.WriteMessage(models.TopicOrderDelivery, []byte(`{}`))
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)

	require.NoError(t, p.Close())
	assert.Error(t, p.WriteMessage("t", nil))
	assert.NoError(t, p.Close())
}

type execCall struct {
	sql  string
	args []any
}

type fakeExecer struct {
	mu      sync.Mutex
	execs   []execCall
	copied  [][]interface{}
	execErr error
}

func (f *fakeExecer) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.execErr != nil {
		return pgconn.CommandTag{}, f.execErr
	}
	f.execs = append(f.execs, execCall{sql: sql, args: args})
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakeExecer) CopyFrom(_ context.Context, _ pgx.Identifier, _ []string, rows pgx.CopyFromSource) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return n, err
		}
		f.copied = append(f.copied, vals)
		n++
	}
	return n, rows.Err()
}

func TestPostgresOutput(t *testing.T) {
	db := &fakeExecer{}
	out := NewPostgresOutput(db)

	require.NoError(t, out.WriteMessage("topic-a", []byte(`{"a":1}`)))
	require.Len(t, db.execs, 1)
	assert.Equal(t, []any{"topic-a", `{"a":1}`}, db.execs[0].args)

	assert.Error(t, out.WriteMessage("topic-a", []byte("nope")))

	n, err := out.WriteBatch(context.Background(), []EventMessage{
		{Topic: "a", Message: []byte(`{}`)},
		{Topic: "b", Message: []byte(`[]`)},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, [][]interface{}{{"a", "{}"}, {"b", "[]"}}, db.copied)

	db.execErr = errors.New("relation does not exist")
	assert.ErrorIs(t, out.WriteMessage("topic-a", []byte(`{}`)), db.execErr)
}

type recordingOutput struct {
	mu       sync.Mutex
	messages []EventMessage
	closed   bool
	block    chan struct{}
}

func (r *recordingOutput) WriteMessage(topic string, msg []byte) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, EventMessage{Topic: topic, Message: msg})
	return nil
}

func (r *recordingOutput) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *recordingOutput) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

func TestForwarder_PublishesStoreChanges(t *testing.T) {
	out := &recordingOutput{}
	f := NewForwarder(out, 16, zaptest.NewLogger(t))

	f.Handle(store.Change{Type: store.ChangeLoaded})
	f.Handle(deliveredChange())
	loc := deliveredChange()
	loc.Type = store.ChangeLocation
	f.Handle(loc)

	require.NoError(t, f.Close())
	assert.True(t, out.closed)
	require.Equal(t, 2, out.count())
	assert.Equal(t, models.TopicOrderDelivery, out.messages[0].Topic)
	assert.Equal(t, models.TopicOrderLocation, out.messages[1].Topic)

	f.Handle(deliveredChange())
	assert.Equal(t, 2, out.count())
	assert.NoError(t, f.Close())
}

func TestForwarder_DropsWhenQueueFull(t *testing.T) {
	out := &recordingOutput{block: make(chan struct{})}
	f := NewForwarder(out, 1, zaptest.NewLogger(t))

	for i := 0; i < 10; i++ {
		f.Handle(deliveredChange())
	}
	close(out.block)
	require.NoError(t, f.Close())

	assert.GreaterOrEqual(t, out.count(), 1)
	assert.LessOrEqual(t, out.count(), 2)
}

func TestForwarder_UsesBatchWriter(t *testing.T) {
	db := &fakeExecer{}
	f := NewForwarder(NewPostgresOutput(db), 64, zaptest.NewLogger(t))

	for i := 0; i < 20; i++ {
		f.Handle(deliveredChange())
	}
	require.NoError(t, f.Close())

	assert.Equal(t, 20, len(db.execs)+len(db.copied))
}
