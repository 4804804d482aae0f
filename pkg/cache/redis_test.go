package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/juanketo/BBMApp-sub000/pkg/config"
)

func TestOptions(t *testing.T) {
	opts := Options(config.RedisConfig{Host: "cache", Port: 6380, Password: "pw", DB: 2})
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, "bbm-pricing", opts.ClientName)
	assert.Equal(t, 500*time.Millisecond, opts.ReadTimeout)
}
