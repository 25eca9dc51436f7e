package logger

import (
	"bytes"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRollbarLoggerWritesToStd(t *testing.T) {
	var buf bytes.Buffer
	l := NewRollbarLogger(log.New(&buf, "", 0), Options{})

	l.Warn("email failed", errors.New("boom"), map[string]interface{}{"user_id": "u1"})
	l.Info("started")

	out := buf.String()
	assert.Contains(t, out, "WARN email failed boom map[user_id:u1]")
	assert.Contains(t, out, "INFO started")
}
