package postgres

import (
	"context"
	"fmt"
)

// schemaDDL bootstraps the append-only event store table. The composite
// primary key on (stream_id, version) is relied upon as the authoritative
// optimistic-concurrency backstop; event_id is globally unique as a
// deduplication guard. Rows are never updated or deleted.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS wallet_events (
		stream_id  UUID         NOT NULL,
		version    INTEGER      NOT NULL CHECK (version >= 0),
		event_type VARCHAR(200) NOT NULL,
		payload    JSONB        NOT NULL,
		metadata   JSONB        NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ  NOT NULL DEFAULT now(),
		event_id   UUID         NOT NULL,
		PRIMARY KEY (stream_id, version)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS wallet_events_event_id_key ON wallet_events (event_id)`,
}

// Migrate applies the event store schema. Statements are idempotent, so the
// bootstrap can run on every deploy.
func Migrate(ctx context.Context, pool Pool) error {
	for _, stmt := range schemaDDL {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
