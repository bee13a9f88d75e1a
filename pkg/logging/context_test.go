package logging_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/tally/pkg/logging"
)

func TestWithLoggerAndFromContext(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		tl := logging.NewTestLogger(t)
		ctx := logging.WithLogger(context.Background(), tl.Logger)

		logger := logging.FromContext(ctx)
		require.NotNil(t, logger)
		logger.Info().Msg("hello from context")
		assert.True(t, tl.Contains("hello from context"))
	})

	t.Run("nil context falls back to default", func(t *testing.T) {
		//nolint:staticcheck // exercising the nil-context fallback
		logger := logging.FromContext(nil)
		assert.NotNil(t, logger)
	})

	t.Run("bare context falls back to default", func(t *testing.T) {
		logger := logging.FromContext(context.Background())
		assert.NotNil(t, logger)
	})

	t.Run("nil logger stored as default", func(t *testing.T) {
		ctx := logging.WithLogger(context.Background(), nil)
		assert.NotNil(t, logging.FromContext(ctx))
	})
}

func TestWithJob(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)
	ctx = logging.WithJob(ctx, "7e3f")

	logging.FromContext(ctx).Info().Msg("processing")
	assert.True(t, tl.Contains(`"job_id":"7e3f"`), "output: %s", tl.Output())
}

func TestWithStage(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)
	ctx = logging.WithStage(ctx, "matching")

	logging.FromContext(ctx).Info().Msg("processing")
	assert.True(t, tl.Contains(`"stage":"matching"`), "output: %s", tl.Output())
}

func TestWithField(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
		want  string
	}{
		{name: "string", key: "vendor", value: "acme", want: `"vendor":"acme"`},
		{name: "int", key: "lines", value: 42, want: `"lines":42`},
		{name: "bool", key: "dry_run", value: true, want: `"dry_run":true`},
		{name: "float", key: "confidence", value: 0.8, want: `"confidence":0.8`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := logging.NewTestLogger(t)
			ctx := logging.WithLogger(context.Background(), tl.Logger)
			ctx = logging.WithField(ctx, tt.key, tt.value)

			logging.FromContext(ctx).Info().Msg("event")
			assert.True(t, tl.Contains(tt.want), "output: %s", tl.Output())
		})
	}
}

func TestCtxAlias(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)
	assert.Equal(t, logging.FromContext(ctx), logging.Ctx(ctx))
}
