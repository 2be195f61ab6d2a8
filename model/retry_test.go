package model

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyEmbedder struct {
	failures int
	calls    int
}

func (f *flakyEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("model is loading")
	}
	return [][]float32{{1}}, nil
}

func TestRetryEmbedder(t *testing.T) {
	old := retryBackoff
	retryBackoff = time.Millisecond
	defer func() { retryBackoff = old }()

	f := &flakyEmbedder{failures: 2}
	vecs, err := WithRetry(f, 3).Embed(context.Background(), []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}}, vecs)
	assert.Equal(t, 3, f.calls)

	f = &flakyEmbedder{failures: 5}
	_, err = WithRetry(f, 2).Embed(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Equal(t, 2, f.calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f = &flakyEmbedder{}
	_, err = WithRetry(f, 3).Embed(ctx, []string{"a"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, f.calls)
}
