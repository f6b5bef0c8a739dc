package embedder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"hash provider", Config{Provider: "hash", CacheSize: 100}, false},
		{"uppercase provider", Config{Provider: "HASH"}, false},
		{"empty provider defaults to hash", Config{}, false},
		{"unknown provider", Config{Provider: "openai"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emb, err := New(tt.cfg)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedProvider)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, ProviderHash, emb.Provider())
			assert.Equal(t, Dimension, emb.Dimension())
		})
	}
}

func TestNewCacheSize(t *testing.T) {
	emb, err := New(Config{CacheSize: 10})
	require.NoError(t, err)
	assert.NotNil(t, emb.(*HashProvider).cache)

	emb, err = New(Config{CacheSize: 0})
	require.NoError(t, err)
	assert.Nil(t, emb.(*HashProvider).cache)
}
