package goroutine

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

func TestRun_RecoversPanic(t *testing.T) {
	log, hook := test.NewNullLogger()
	rh := NewRecoveryHandler(log)

	ok := rh.Run("boom", func() { panic("fail") })

	assert.False(t, ok)
	if assert.Len(t, hook.Entries, 1) {
		assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
		assert.Equal(t, "boom", hook.LastEntry().Data["task"])
	}
}

func TestRun_NoPanic(t *testing.T) {
	log, hook := test.NewNullLogger()
	rh := NewRecoveryHandler(log)

	called := false
	assert.True(t, rh.Run("ok", func() { called = true }))
	assert.True(t, called)
	assert.Empty(t, hook.Entries)
}
