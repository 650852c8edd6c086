package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"MODEL_TRAINING_SAMPLES", "MODEL_EPOCHS", "MODEL_BATCH_SIZE",
		"MODEL_VALIDATION_SPLIT", "MODEL_LEARNING_RATE", "MODEL_SEED",
		"PG_ENABLED", "DATABASE_URL", "PG_DSN",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.Model.TrainingSamples)
	assert.Equal(t, 50, cfg.Model.Epochs)
	assert.Equal(t, 32, cfg.Model.BatchSize)
	assert.InDelta(t, 0.2, cfg.Model.ValidationSplit, 1e-12)
	assert.InDelta(t, 0.001, cfg.Model.LearningRate, 1e-12)
	assert.Equal(t, int64(0), cfg.Model.Seed)
	assert.False(t, cfg.PostgreSQL.Enabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("MODEL_EPOCHS", "5")
	t.Setenv("MODEL_SEED", "42")
	t.Setenv("PG_ENABLED", "true")
	t.Setenv("MODEL_BATCH_SIZE", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Model.Epochs)
	assert.Equal(t, int64(42), cfg.Model.Seed)
	assert.True(t, cfg.PostgreSQL.Enabled)
	assert.Equal(t, 32, cfg.Model.BatchSize, "invalid values fall back to the default")
}

func TestLoad_RejectsInvalidTraining(t *testing.T) {
	t.Setenv("MODEL_VALIDATION_SPLIT", "1.5")

	_, err := Load()
	assert.Error(t, err)
}

func TestGetPostgreSQLDSN(t *testing.T) {
	cfg := &Config{PostgreSQL: PostgreSQLConfig{
		Host: "db", Port: 5433, User: "u", Password: "p", Database: "d", SSLMode: "disable",
	}}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=d sslmode=disable", cfg.GetPostgreSQLDSN())

	cfg.PostgreSQL.DSN = "postgres://x"
	assert.Equal(t, "postgres://x", cfg.GetPostgreSQLDSN())
}
