package captcha

import (
	"context"
	"fmt"
)

// Task type identifiers used by the solving service. Each variant has a
// proxyless form and a proxied form selected by whether the caller supplied
// proxy credentials.
const (
	taskTurnstile           = "AntiTurnstileTask"
	taskTurnstileProxyless  = "AntiTurnstileTaskProxyLess"
	taskRecaptchaV2         = "ReCaptchaV2Task"
	taskRecaptchaV2Proxyles = "ReCaptchaV2TaskProxyLess"
	taskRecaptchaV3Proxyles = "ReCaptchaV3TaskProxyLess"
	taskHCaptcha            = "HCaptchaTask"
	taskHCaptchaProxyless   = "HCaptchaTaskProxyLess"
)

// SolveOptions carries the optional knobs shared by the variant helpers.
type SolveOptions struct {
	// ProxyString is an optional "host:port:user:pass" proxy to solve
	// through. Empty means the proxyless task types.
	ProxyString string

	// PageAction is the reCAPTCHA v3 action name. Defaults to "verify".
	PageAction string

	// MinScore is the reCAPTCHA v3 minimum score. Zero lets the service
	// choose.
	MinScore float64
}

// SolveTurnstile solves a Cloudflare Turnstile challenge on the given page.
func (c *Client) SolveTurnstile(ctx context.Context, pageURL, siteKey string, opts SolveOptions) (string, error) {
	spec := TaskSpec{
		Type:       taskTurnstileProxyless,
		WebsiteURL: pageURL,
		WebsiteKey: siteKey,
	}
	if err := applyProxy(&spec, taskTurnstile, opts.ProxyString); err != nil {
		return "", err
	}
	return c.Solve(ctx, spec)
}

// SolveRecaptchaV2 solves a reCAPTCHA v2 widget.
func (c *Client) SolveRecaptchaV2(ctx context.Context, pageURL, siteKey string, opts SolveOptions) (string, error) {
	spec := TaskSpec{
		Type:       taskRecaptchaV2Proxyles,
		WebsiteURL: pageURL,
		WebsiteKey: siteKey,
	}
	if err := applyProxy(&spec, taskRecaptchaV2, opts.ProxyString); err != nil {
		return "", err
	}
	return c.Solve(ctx, spec)
}

// SolveRecaptchaV3 solves a score-based reCAPTCHA v3 challenge. The service
// only offers a proxyless task type for v3, so proxy options are ignored.
func (c *Client) SolveRecaptchaV3(ctx context.Context, pageURL, siteKey string, opts SolveOptions) (string, error) {
	action := opts.PageAction
	if action == "" {
		action = "verify"
	}
	spec := TaskSpec{
		Type:       taskRecaptchaV3Proxyles,
		WebsiteURL: pageURL,
		WebsiteKey: siteKey,
		PageAction: action,
		MinScore:   opts.MinScore,
	}
	return c.Solve(ctx, spec)
}

// SolveHCaptcha solves an hCaptcha widget.
func (c *Client) SolveHCaptcha(ctx context.Context, pageURL, siteKey string, opts SolveOptions) (string, error) {
	spec := TaskSpec{
		Type:       taskHCaptchaProxyless,
		WebsiteURL: pageURL,
		WebsiteKey: siteKey,
	}
	if err := applyProxy(&spec, taskHCaptcha, opts.ProxyString); err != nil {
		return "", err
	}
	return c.Solve(ctx, spec)
}

// SolveDetected dispatches on a detector result. VariantNone is an error:
// the caller should not reach for the solver without a detected widget.
func (c *Client) SolveDetected(ctx context.Context, desc Descriptor, pageURL string, opts SolveOptions) (string, error) {
	if desc.SiteKey == "" && desc.Variant != VariantNone {
		return "", fmt.Errorf("captcha solve: %s detected but no site key extracted", desc.Variant)
	}

	switch desc.Variant {
	case VariantTurnstile:
		return c.SolveTurnstile(ctx, pageURL, desc.SiteKey, opts)
	case VariantRecaptchaV2:
		return c.SolveRecaptchaV2(ctx, pageURL, desc.SiteKey, opts)
	case VariantRecaptchaV3:
		return c.SolveRecaptchaV3(ctx, pageURL, desc.SiteKey, opts)
	case VariantHCaptcha:
		return c.SolveHCaptcha(ctx, pageURL, desc.SiteKey, opts)
	default:
		return "", fmt.Errorf("captcha solve: no solvable variant in descriptor (%s)", desc.Variant)
	}
}

// applyProxy switches the spec to the proxied task type and fills the
// structured proxy fields when a proxy string was supplied.
func applyProxy(spec *TaskSpec, proxiedType, proxyString string) error {
	if proxyString == "" {
		return nil
	}

	proxy, err := ParseProxy(proxyString)
	if err != nil {
		return err
	}

	spec.Type = proxiedType
	spec.Proxy = proxy.Address()
	spec.ProxyLogin = proxy.Login
	spec.ProxyPassword = proxy.Password
	return nil
}
