package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	_, err := New("info", "json")
	require.NoError(t, err)

	_, err = New("debug", "console")
	require.NoError(t, err)

	_, err = New("loud", "json")
	assert.Error(t, err)
}

func TestContextLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := NewNop()
	scoped := &Logger{zap.New(core)}

	ctx := NewContext(context.Background(), scoped.With(StringField("job", "refresh")))
	base.InfoContext(ctx, "hello", IntField("n", 1))
	base.DebugContext(ctx, "dropped")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "hello", entries[0].Message)
	assert.Equal(t, map[string]interface{}{"job": "refresh", "n": int64(1)}, entries[0].ContextMap())

	assert.Same(t, base, base.FromContext(context.Background()))
}
