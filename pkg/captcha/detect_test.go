package captcha

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect_Turnstile(t *testing.T) {
	page := `<html><body>
		<form>
			<div class="cf-turnstile" data-sitekey="0x4AAAAAAA"></div>
		</form>
		<script src="https://challenges.cloudflare.com/turnstile/v0/api.js"></script>
	</body></html>`

	desc, err := Detect(page)
	require.NoError(t, err)
	assert.Equal(t, VariantTurnstile, desc.Variant)
	assert.Equal(t, "0x4AAAAAAA", desc.SiteKey)
}

func TestDetect_RecaptchaV2(t *testing.T) {
	t.Run("widget div", func(t *testing.T) {
		page := `<div class="g-recaptcha" data-sitekey="6LcV2Widget"></div>`

		desc, err := Detect(page)
		require.NoError(t, err)
		assert.Equal(t, VariantRecaptchaV2, desc.Variant)
		assert.Equal(t, "6LcV2Widget", desc.SiteKey)
	})

	t.Run("anchor iframe", func(t *testing.T) {
		page := `<iframe src="https://www.google.com/recaptcha/api2/anchor?ar=1&k=6LcFrameKey&co=aHR0"></iframe>`

		desc, err := Detect(page)
		require.NoError(t, err)
		assert.Equal(t, VariantRecaptchaV2, desc.Variant)
		assert.Equal(t, "6LcFrameKey", desc.SiteKey)
	})
}

func TestDetect_RecaptchaV3(t *testing.T) {
	t.Run("render param carries site key", func(t *testing.T) {
		page := `<script src="https://www.google.com/recaptcha/api.js?render=6LcV3SiteKey"></script>`

		desc, err := Detect(page)
		require.NoError(t, err)
		assert.Equal(t, VariantRecaptchaV3, desc.Variant)
		assert.Equal(t, "6LcV3SiteKey", desc.SiteKey)
	})

	t.Run("explicit render is not v3", func(t *testing.T) {
		page := `<script src="https://www.google.com/recaptcha/api.js?render=explicit"></script>`

		desc, err := Detect(page)
		require.NoError(t, err)
		assert.Equal(t, VariantNone, desc.Variant)
	})

	t.Run("visible v2 widget outranks v3 loader", func(t *testing.T) {
		page := `<script src="https://www.google.com/recaptcha/api.js?render=6LcLoader"></script>
			<div class="g-recaptcha" data-sitekey="6LcWidget"></div>`

		desc, err := Detect(page)
		require.NoError(t, err)
		assert.Equal(t, VariantRecaptchaV2, desc.Variant)
		assert.Equal(t, "6LcWidget", desc.SiteKey)
	})
}

func TestDetect_HCaptcha(t *testing.T) {
	page := `<div class="h-captcha" data-sitekey="10000000-ffff"></div>
		<script src="https://js.hcaptcha.com/1/api.js"></script>`

	desc, err := Detect(page)
	require.NoError(t, err)
	assert.Equal(t, VariantHCaptcha, desc.Variant)
	assert.Equal(t, "10000000-ffff", desc.SiteKey)
}

func TestDetect_TurnstilePriorityTieBreak(t *testing.T) {
	// Both Turnstile and reCAPTCHA markers present: Turnstile wins.
	page := `<html><body>
		<div class="cf-turnstile" data-sitekey="turnstile-key"></div>
		<div class="g-recaptcha" data-sitekey="recaptcha-key"></div>
	</body></html>`

	desc, err := Detect(page)
	require.NoError(t, err)
	assert.Equal(t, VariantTurnstile, desc.Variant)
	assert.Equal(t, "turnstile-key", desc.SiteKey)
}

func TestDetect_None(t *testing.T) {
	page := `<html><body><h1>Plain page</h1><form><input name="q"></form></body></html>`

	desc, err := Detect(page)
	require.NoError(t, err)
	assert.Equal(t, VariantNone, desc.Variant)
	assert.Empty(t, desc.SiteKey)
}

func TestDetect_KeepsFirstSiteKey(t *testing.T) {
	// A keyless loader script must not erase the key extracted from the
	// widget element.
	page := `<div class="cf-turnstile" data-sitekey="widget-key"></div>
		<script src="https://challenges.cloudflare.com/turnstile/v0/api.js"></script>`

	desc, err := Detect(page)
	require.NoError(t, err)
	assert.Equal(t, "widget-key", desc.SiteKey)
}
