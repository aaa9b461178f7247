package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateRenders, downCreateRenders)
}

func upCreateRenders(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.Exec(`
	CREATE TABLE renders (
		id SERIAL PRIMARY KEY,
		slug VARCHAR NOT NULL UNIQUE,
		headline VARCHAR NOT NULL,
		source_url VARCHAR,
		output_path VARCHAR NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		slide_count INTEGER NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	);
	`)
	if err != nil {
		return err
	}
	return nil
}

func downCreateRenders(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.Exec(`
	DROP TABLE renders;
	`)
	if err != nil {
		return err
	}
	return nil
}
