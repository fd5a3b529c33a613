package tenant

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"
	"time"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mizanhq/reports-backend/internal/domain"
)

func TestSplitServerAddress(t *testing.T) {
	tests := []struct {
		address string
		host    string
		port    int
	}{
		{"db.example.com", "db.example.com", 1433},
		{"db.example.com:1444", "db.example.com", 1444},
		{"  db.example.com  ", "db.example.com", 1433},
		{"db.example.com:", "db.example.com", 1433},
		{"10.0.0.5:50123", "10.0.0.5", 50123},
	}

	for _, tt := range tests {
		host, port := splitServerAddress(tt.address)
		assert.Equal(t, tt.host, host, "address %q", tt.address)
		assert.Equal(t, tt.port, port, "address %q", tt.address)
	}
}

func TestBuildDSN(t *testing.T) {
	cfg := domain.ConnectionConfig{
		ServerAddress: "db.example.com:1444",
		DatabaseName:  "PharmacyDB",
		Username:      "reader",
		Password:      "s:cr/et@1",
	}
	dsn := buildDSN(cfg, Options{ConnectTimeout: 15 * time.Second}.withDefaults())

	u, err := url.Parse(dsn)
	require.NoError(t, err)

	assert.Equal(t, "sqlserver", u.Scheme)
	assert.Equal(t, "db.example.com:1444", u.Host)
	assert.Equal(t, "reader", u.User.Username())
	password, _ := u.User.Password()
	assert.Equal(t, "s:cr/et@1", password)
	assert.Equal(t, "PharmacyDB", u.Query().Get("database"))
	assert.Equal(t, "disable", u.Query().Get("encrypt"))
	assert.Equal(t, "15", u.Query().Get("dial timeout"))
}

func TestClassifyLoginFailuresAreFatal(t *testing.T) {
	for _, number := range []int32{4060, 18456, 18452, 18461, 229, 297} {
		err := fmt.Errorf("query failed: %w", mssql.Error{Number: number})
		assert.Equal(t, ClassFatal, Classify(err), "number %d", number)
	}
}

func TestClassifyTransientFailuresAreRetryable(t *testing.T) {
	// Deadlock victim: the server is healthy, the query just lost a race.
	deadlock := fmt.Errorf("query failed: %w", mssql.Error{Number: 1205})
	assert.Equal(t, ClassRetryable, Classify(deadlock))

	assert.Equal(t, ClassRetryable, Classify(context.DeadlineExceeded))
	assert.Equal(t, ClassRetryable, Classify(fmt.Errorf("fetch: %w", context.Canceled)))

	opErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	assert.Equal(t, ClassRetryable, Classify(fmt.Errorf("connect: %w", opErr)))
}

func TestClassifyUnknownErrorsAreFatal(t *testing.T) {
	assert.Equal(t, ClassFatal, Classify(errors.New("invalid column name 'Foo'")))
}
