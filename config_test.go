package pushhub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetDefaults(t *testing.T) {
	cfg := &Config{}
	SetDefaults(cfg)

	assert.Equal(t, 30*time.Second, cfg.PollTimeout)
	assert.Equal(t, 5*time.Second, cfg.EvictInterval)
	assert.False(t, cfg.DefaultWatchActive)
	assert.Empty(t, cfg.ClientIDPrefix)
}

func TestSetDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := &Config{PollTimeout: time.Minute, EvictInterval: time.Second}
	SetDefaults(cfg)

	assert.Equal(t, time.Minute, cfg.PollTimeout)
	assert.Equal(t, time.Second, cfg.EvictInterval)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid",
			cfg:  Config{PollTimeout: 30 * time.Second, EvictInterval: 5 * time.Second},
		},
		{
			name:    "negative poll timeout",
			cfg:     Config{PollTimeout: -time.Second, EvictInterval: time.Second},
			wantErr: true,
		},
		{
			name:    "negative evict interval",
			cfg:     Config{PollTimeout: time.Second, EvictInterval: -time.Second},
			wantErr: true,
		},
		{
			name:    "evict interval exceeds poll timeout",
			cfg:     Config{PollTimeout: time.Second, EvictInterval: 2 * time.Second},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
