package db

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"market_gateway/internal/platform/config"
)

func TestDialector(t *testing.T) {
	t.Parallel()

	tests := []struct {
		driver   string
		wantName string
		wantErr  bool
	}{
		{driver: "", wantName: "sqlite"},
		{driver: "sqlite", wantName: "sqlite"},
		{driver: "Postgres", wantName: "postgres"},
		{driver: "mysql", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			t.Parallel()

			d, err := Dialector(config.DBConfig{Driver: tt.driver, DSN: "x"})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, d.Name())
		})
	}
}

func TestDialector_EmptyDSN(t *testing.T) {
	t.Parallel()

	_, err := Dialector(config.DBConfig{Driver: "sqlite"})
	assert.Error(t, err)
}

type migrated struct {
	ID   uint
	Code string
}

func TestOpen_SQLiteMemory(t *testing.T) {
	t.Parallel()

	db, err := Open(config.DBConfig{Driver: "sqlite", DSN: ":memory:"}, zerolog.Nop(), &migrated{})
	require.NoError(t, err)

	require.NoError(t, db.Create(&migrated{Code: "AAPL"}).Error)
	var n int64
	require.NoError(t, db.Model(&migrated{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestConnectWithRetry_SuccessOnFirstTry(t *testing.T) {
	t.Parallel()

	want := &gorm.DB{}
	calls := 0
	opener := func(gorm.Dialector) (*gorm.DB, error) {
		calls++
		return want, nil
	}

	d, _ := Dialector(config.DBConfig{DSN: ":memory:"})
	got, err := ConnectWithRetry(d, time.Second, time.Millisecond, opener, zerolog.Nop())

	require.NoError(t, err)
	assert.Same(t, want, got)
	assert.Equal(t, 1, calls)
}

func TestConnectWithRetry_RetriesOnFailure(t *testing.T) {
	t.Parallel()

	want := &gorm.DB{}
	calls := 0
	opener := func(gorm.Dialector) (*gorm.DB, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("connection refused")
		}
		return want, nil
	}

	d, _ := Dialector(config.DBConfig{DSN: ":memory:"})
	got, err := ConnectWithRetry(d, 5*time.Second, 5*time.Millisecond, opener, zerolog.Nop())

	require.NoError(t, err)
	assert.Same(t, want, got)
	assert.Equal(t, 3, calls)
}

func TestConnectWithRetry_Timeout(t *testing.T) {
	t.Parallel()

	calls := 0
	opener := func(gorm.Dialector) (*gorm.DB, error) {
		calls++
		return nil, errors.New("connection refused")
	}

	d, _ := Dialector(config.DBConfig{DSN: ":memory:"})
	_, err := ConnectWithRetry(d, 20*time.Millisecond, 5*time.Millisecond, opener, zerolog.Nop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Greater(t, calls, 1)
}
