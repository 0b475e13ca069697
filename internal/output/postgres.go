package output

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Execer is satisfied by *pgxpool.Pool and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// PostgresOutput stores each message as a JSONB row in order_events.
type PostgresOutput struct {
	db      Execer
	timeout time.Duration
}

func NewPostgresOutput(db Execer) *PostgresOutput {
	return &PostgresOutput{db: db, timeout: 5 * time.Second}
}

func (p *PostgresOutput) WriteMessage(topic string, msg []byte) error {
	if !json.Valid(msg) {
		return fmt.Errorf("invalid event on %s: not JSON", topic)
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	_, err := p.db.Exec(ctx, `INSERT INTO order_events (topic, payload) VALUES ($1, $2)`, topic, string(msg))
	if err != nil {
		return fmt.Errorf("failed to insert into order_events: %w", err)
	}
	return nil
}

// WriteBatch copies many messages in one round trip.
func (p *PostgresOutput) WriteBatch(ctx context.Context, messages []EventMessage) (int64, error) {
	n, err := p.db.CopyFrom(
		ctx,
		pgx.Identifier{"order_events"},
		[]string{"topic", "payload"},
		pgx.CopyFromSlice(len(messages), func(i int) ([]interface{}, error) {
			return []interface{}{messages[i].Topic, string(messages[i].Message)}, nil
		}),
	)
	if err != nil {
		return n, fmt.Errorf("failed to copy into order_events: %w", err)
	}
	return n, nil
}

// Close leaves the pool to its owner.
func (p *PostgresOutput) Close() error {
	return nil
}
