package db

import (
	"context"

	"github.com/jmoiron/sqlx"
)

func RunMigrations(db *sqlx.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS calorie_entries (
    id SERIAL PRIMARY KEY,
    entry_date DATE NOT NULL,
    meal_type TEXT NOT NULL CHECK (meal_type IN ('Breakfast', 'Lunch', 'Dinner', 'Snacks')),
    meal_name TEXT NOT NULL,
    calories INTEGER NOT NULL CHECK (calories > 0),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_calorie_entries_date ON calorie_entries (entry_date);

CREATE TABLE IF NOT EXISTS daily_stats (
    entry_date DATE PRIMARY KEY,
    total_calories INTEGER NOT NULL DEFAULT 0,
    breakfast_calories INTEGER NOT NULL DEFAULT 0,
    lunch_calories INTEGER NOT NULL DEFAULT 0,
    dinner_calories INTEGER NOT NULL DEFAULT 0,
    snacks_calories INTEGER NOT NULL DEFAULT 0,
    is_excluded BOOLEAN NOT NULL DEFAULT false,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS api_keys (
    id UUID PRIMARY KEY,
    user_email TEXT NOT NULL,
    name TEXT NOT NULL,
    key_hash TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    last_used_at TIMESTAMPTZ,
    is_active BOOLEAN NOT NULL DEFAULT true
);

CREATE INDEX IF NOT EXISTS idx_api_keys_owner_active ON api_keys (user_email) WHERE is_active;
`
	_, err := db.ExecContext(context.Background(), schema)
	if err != nil {
		return err
	}

	alters := `
DO $$ BEGIN
    IF NOT EXISTS (
        SELECT 1 FROM information_schema.columns WHERE table_name='daily_stats' AND column_name='is_excluded'
    ) THEN
        ALTER TABLE daily_stats ADD COLUMN is_excluded BOOLEAN NOT NULL DEFAULT false;
    END IF;
    IF NOT EXISTS (
        SELECT 1 FROM information_schema.columns WHERE table_name='api_keys' AND column_name='last_used_at'
    ) THEN
        ALTER TABLE api_keys ADD COLUMN last_used_at TIMESTAMPTZ;
    END IF;
END $$;`
	_, err = db.ExecContext(context.Background(), alters)
	return err
}
