package postgres

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/golang-sql/civil"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplychain/internal/storage"
)

func TestToCopyVal(t *testing.T) {
	t.Parallel()

	got := toCopyVal(decimal.RequireFromString("-12.350"))
	num, ok := got.(pgtype.Numeric)
	require.True(t, ok, "got %T", got)
	assert.True(t, num.Valid)
	assert.Equal(t, 0, num.Int.Cmp(big.NewInt(-12350)))
	assert.EqualValues(t, -3, num.Exp)

	got = toCopyVal(civil.Date{Year: 2017, Month: 11, Day: 23})
	date, ok := got.(pgtype.Date)
	require.True(t, ok, "got %T", got)
	assert.Equal(t, time.Date(2017, 11, 23, 0, 0, 0, 0, time.UTC), date.Time)

	assert.Equal(t, int64(7), toCopyVal(int64(7)))
	assert.Equal(t, "x", toCopyVal("x"))
	assert.Nil(t, toCopyVal(nil))
}

func TestSplitFQN(t *testing.T) {
	t.Parallel()
	assert.Equal(t, pgx.Identifier{"public", "q1"}, splitFQN("public.q1"))
	assert.Equal(t, pgx.Identifier{"q1"}, splitFQN("q1"))
}

// TestFactoryRegistration swaps the constructor hook so no server is needed.
func TestFactoryRegistration(t *testing.T) {
	var (
		gotDSN string
		closed bool
	)
	orig := newRepository
	newRepository = func(_ context.Context, dsn string) (*Repository, func(), error) {
		gotDSN = dsn
		return &Repository{}, func() { closed = true }, nil
	}
	t.Cleanup(func() { newRepository = orig })

	repo, err := storage.New(context.Background(), storage.Config{Kind: "postgres", DSN: "postgres://u@h/db"})
	require.NoError(t, err)
	repo.Close()

	assert.Equal(t, "postgres://u@h/db", gotDSN)
	assert.True(t, closed)
}
