package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalDesk/config"
	"signalDesk/internal/ports"
)

func TestNewMarketData(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = rdb.Close() })

	tests := []struct {
		name        string
		live        bool
		rdb         *redis.Client
		wantName    string
		wantBinance bool
	}{
		{"simulated", false, nil, "simulated", false},
		{"simulated cached", false, rdb, "simulated+redis", false},
		{"live", true, nil, "composite", true},
		{"live cached", true, rdb, "composite+redis", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{UseLiveData: tt.live, CacheTTL: time.Minute, ProviderTimeout: time.Second}

			md, err := NewMarketData(cfg, ports.NopLogger{}, tt.rdb)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, md.Provider.Name())
			assert.Equal(t, tt.rdb != nil, md.Cache != nil)
			assert.Equal(t, tt.wantBinance, md.Binance != nil)
		})
	}
}

func TestNewRedis_Disabled(t *testing.T) {
	rdb, err := NewRedis(context.Background(), &config.Config{}, ports.NopLogger{})
	require.NoError(t, err)
	assert.Nil(t, rdb)
}
