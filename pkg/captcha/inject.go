package captcha

import (
	"fmt"
)

// Evaluator runs a JavaScript expression in page context. playwright.Page
// satisfies this interface directly.
type Evaluator interface {
	Evaluate(expression string, arg ...interface{}) (interface{}, error)
}

// Per-variant injection scripts. Each variant expects the solved token in a
// different place: a hidden response field, a response textarea, or a
// registered completion callback. The token is passed as an argument, never
// interpolated into the script.
const (
	injectTurnstileJS = `(token) => {
  const fields = document.querySelectorAll('input[name="cf-turnstile-response"]');
  fields.forEach((field) => { field.value = token; });
  if (fields.length === 0 && !window.__surfTurnstileToken) {
    window.__surfTurnstileToken = token;
  }
  if (typeof window.tsCallback === 'function') {
    window.tsCallback(token);
  }
  return fields.length;
}`

	injectRecaptchaV2JS = `(token) => {
  const areas = document.querySelectorAll('textarea[name="g-recaptcha-response"], #g-recaptcha-response');
  areas.forEach((area) => {
    area.style.display = 'block';
    area.value = token;
  });
  const cfg = window.___grecaptcha_cfg;
  if (cfg && cfg.clients) {
    Object.values(cfg.clients).forEach((client) => {
      Object.values(client).forEach((section) => {
        if (section && typeof section === 'object') {
          Object.values(section).forEach((entry) => {
            if (entry && typeof entry.callback === 'function') {
              entry.callback(token);
            }
          });
        }
      });
    });
  }
  return areas.length;
}`

	injectRecaptchaV3JS = `(token) => {
  window.__surfRecaptchaToken = token;
  const fields = document.querySelectorAll('input[name="g-recaptcha-response"], textarea[name="g-recaptcha-response"]');
  fields.forEach((field) => { field.value = token; });
  return fields.length;
}`

	injectHCaptchaJS = `(token) => {
  const fields = document.querySelectorAll('textarea[name="h-captcha-response"], textarea[name="g-recaptcha-response"]');
  fields.forEach((field) => { field.value = token; });
  if (window.hcaptcha && typeof window.hcaptchaCallback === 'function') {
    window.hcaptchaCallback(token);
  }
  return fields.length;
}`
)

// Inject applies a solved token into the page's expected target for the
// given variant. An unrecognized variant is an error, never a silent no-op.
func Inject(page Evaluator, variant Variant, token string) error {
	if token == "" {
		return fmt.Errorf("captcha inject: empty token")
	}

	var script string
	switch variant {
	case VariantTurnstile:
		script = injectTurnstileJS
	case VariantRecaptchaV2:
		script = injectRecaptchaV2JS
	case VariantRecaptchaV3:
		script = injectRecaptchaV3JS
	case VariantHCaptcha:
		script = injectHCaptchaJS
	default:
		return fmt.Errorf("captcha inject: unrecognized variant %q", variant)
	}

	if _, err := page.Evaluate(script, token); err != nil {
		return fmt.Errorf("captcha inject: apply %s token: %w", variant, err)
	}
	return nil
}
