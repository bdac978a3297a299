package driver

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"difly/internal/core"
)

func TestEndpointRedactedClearsPassword(t *testing.T) {
	ep := Endpoint{Host: "db", Password: "secret"}
	redacted := ep.Redacted()
	assert.Empty(t, redacted.Password)
	assert.Equal(t, "secret", ep.Password, "Redacted must not mutate the receiver")
}

func TestEndpointDsnURLEscapesSpecialCharacters(t *testing.T) {
	ep := Endpoint{Host: "localhost", Port: 5432, Database: "my db", User: "u", Password: "p@ss/word"}
	dsn := ep.dsnURL("postgres")
	assert.Contains(t, dsn, "my%20db")
	assert.Contains(t, dsn, "p%40ss%2Fword")
}

func TestEndpointDsnURLOmitsUserInfoWhenNoUser(t *testing.T) {
	ep := Endpoint{Host: "localhost", Port: 3306, Database: "app"}
	dsn := ep.dsnURL("mysql")
	assert.NotContains(t, dsn, "@localhost")
}

func TestRegisterAndNewRoundTrip(t *testing.T) {
	const testDialect = core.Dialect("test-dialect-driver")
	called := false
	Register(testDialect, func() Driver {
		called = true
		return nil
	})

	d, err := New(testDialect)
	require.NoError(t, err)
	assert.Nil(t, d)
	assert.True(t, called)
}

func TestNewUnregisteredDialectErrors(t *testing.T) {
	_, err := New(core.Dialect("never-registered"))
	assert.Error(t, err)
}

func TestWithLockRunsUnsynchronizedWhenNoMutex(t *testing.T) {
	h := &Handle{}
	ran := false
	err := WithLock(h, func() error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestWithLockSerializesWhenMutexPresent(t *testing.T) {
	var mu sync.Mutex
	h := &Handle{Mutex: &mu}

	mu.Lock()
	unlocked := make(chan struct{})
	go func() {
		_ = WithLock(h, func() error {
			close(unlocked)
			return nil
		})
	}()

	select {
	case <-unlocked:
		t.Fatal("WithLock ran fn while mutex was held")
	default:
	}
	mu.Unlock()
	<-unlocked
}

func TestHandleCloseNilSafe(t *testing.T) {
	var h *Handle
	assert.NoError(t, h.Close())
	assert.NoError(t, (&Handle{}).Close())
}
