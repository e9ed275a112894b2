package logger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/bizmob/ledger/logger"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, logger.ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, logger.ParseLevel(" warn "))
	assert.Equal(t, zapcore.InfoLevel, logger.ParseLevel("loud"))
	assert.Equal(t, zapcore.InfoLevel, logger.ParseLevel(""))
}

func TestNew(t *testing.T) {
	log, err := logger.New("error")
	require.NoError(t, err)

	assert.False(t, log.Core().Enabled(zapcore.WarnLevel))
	assert.True(t, log.Core().Enabled(zapcore.ErrorLevel))
}

func TestNamed_NilBase(t *testing.T) {
	assert.NotNil(t, logger.Named(nil, "api"))
}
