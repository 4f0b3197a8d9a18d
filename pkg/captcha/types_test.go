package captcha

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProxy(t *testing.T) {
	t.Run("full credentials", func(t *testing.T) {
		proxy, err := ParseProxy("proxy.example.com:8080:alice:s3cret")
		require.NoError(t, err)
		assert.Equal(t, "proxy.example.com", proxy.Host)
		assert.Equal(t, 8080, proxy.Port)
		assert.Equal(t, "alice", proxy.Login)
		assert.Equal(t, "s3cret", proxy.Password)
		assert.Equal(t, "proxy.example.com:8080", proxy.Address())
	})

	t.Run("host and port only", func(t *testing.T) {
		proxy, err := ParseProxy("10.0.0.1:3128")
		require.NoError(t, err)
		assert.Equal(t, "10.0.0.1", proxy.Host)
		assert.Equal(t, 3128, proxy.Port)
		assert.Empty(t, proxy.Login)
		assert.Empty(t, proxy.Password)
	})

	t.Run("invalid inputs", func(t *testing.T) {
		for _, raw := range []string{"", "hostonly", "host:port:user", "host:notaport", "host:0", ":8080"} {
			_, err := ParseProxy(raw)
			assert.Error(t, err, "input %q", raw)
		}
	})
}

func TestApplyProxy(t *testing.T) {
	t.Run("switches to proxied task type", func(t *testing.T) {
		spec := TaskSpec{Type: taskTurnstileProxyless}
		err := applyProxy(&spec, taskTurnstile, "proxy.example.com:8080:bob:pw")
		require.NoError(t, err)

		assert.Equal(t, taskTurnstile, spec.Type)
		assert.Equal(t, "proxy.example.com:8080", spec.Proxy)
		assert.Equal(t, "bob", spec.ProxyLogin)
		assert.Equal(t, "pw", spec.ProxyPassword)
	})

	t.Run("no proxy keeps proxyless type", func(t *testing.T) {
		spec := TaskSpec{Type: taskHCaptchaProxyless}
		err := applyProxy(&spec, taskHCaptcha, "")
		require.NoError(t, err)
		assert.Equal(t, taskHCaptchaProxyless, spec.Type)
		assert.Empty(t, spec.Proxy)
	})

	t.Run("bad proxy string propagates", func(t *testing.T) {
		spec := TaskSpec{Type: taskRecaptchaV2Proxyles}
		err := applyProxy(&spec, taskRecaptchaV2, "garbage")
		assert.Error(t, err)
	})
}
