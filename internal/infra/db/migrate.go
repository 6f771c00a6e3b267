package db

import "database/sql"

// MigrateUp creates the two durable relations the bot owns: the user→topic
// subscription table and the per-user notification ledger.
//
// notified_articles carries a BIGSERIAL column alongside its composite primary
// key; pruning orders by it to approximate insertion order without a separate
// timestamp index.
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS user_subscriptions (
    user_id    BIGINT NOT NULL,
    topic      TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (user_id, topic)
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS notified_articles (
    id          BIGSERIAL,
    user_id     BIGINT NOT NULL,
    article_id  TEXT NOT NULL,
    notified_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (user_id, article_id)
)`); err != nil {
		return err
	}

	indexes := []string{
		// prune scans a user's rows in insertion order
		`CREATE INDEX IF NOT EXISTS idx_notified_articles_user_insertion ON notified_articles(user_id, id)`,
		// poll tick snapshots subscriptions grouped by topic
		`CREATE INDEX IF NOT EXISTS idx_user_subscriptions_topic ON user_subscriptions(topic)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	return nil
}

// MigrateDown rolls back the database schema.
// Use with caution: this deletes all subscription and ledger data.
func MigrateDown(db *sql.DB) error {
	dropStatements := []string{
		`DROP INDEX IF EXISTS idx_notified_articles_user_insertion`,
		`DROP INDEX IF EXISTS idx_user_subscriptions_topic`,
		`DROP TABLE IF EXISTS notified_articles`,
		`DROP TABLE IF EXISTS user_subscriptions`,
	}

	for _, stmt := range dropStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
