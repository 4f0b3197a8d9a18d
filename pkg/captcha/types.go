// Package captcha solves page captchas through an external task-based
// solving service and provides the page-side heuristics to detect which
// captcha variant is present and to apply a solved token back into the page.
package captcha

import (
	"fmt"
	"strconv"
	"strings"
)

// Variant identifies a captcha widget family. The set is closed; detection
// and injection both dispatch exhaustively over it.
type Variant string

const (
	// VariantNone means no captcha markers were found.
	VariantNone Variant = "none"

	// VariantTurnstile is Cloudflare Turnstile.
	VariantTurnstile Variant = "turnstile"

	// VariantRecaptchaV2 is Google reCAPTCHA v2 (visible challenge widget).
	VariantRecaptchaV2 Variant = "recaptcha-v2"

	// VariantRecaptchaV3 is Google reCAPTCHA v3 (score-based, no widget).
	VariantRecaptchaV3 Variant = "recaptcha-v3"

	// VariantHCaptcha is hCaptcha.
	VariantHCaptcha Variant = "hcaptcha"
)

// Descriptor is the result of inspecting page markup for captcha widgets.
type Descriptor struct {
	// Variant is the detected captcha family, or VariantNone.
	Variant Variant

	// SiteKey is the public site key extracted from the markup, when the
	// markers carried one.
	SiteKey string
}

// TaskStatus is the lifecycle state of a solving task.
type TaskStatus string

const (
	// StatusPending means the service is still working on the task.
	StatusPending TaskStatus = "pending"

	// StatusReady means the task finished and a solution is available.
	StatusReady TaskStatus = "ready"

	// StatusFailed means the service gave up on the task.
	StatusFailed TaskStatus = "failed"
)

// Task tracks one solving job from submission to a terminal status. A task
// is created exactly once per solve request and mutated only by poll
// responses.
type Task struct {
	ID       string
	Status   TaskStatus
	Solution string
}

// TaskSpec describes the work sent to the solving service. Field names
// follow the service's wire format.
type TaskSpec struct {
	Type          string  `json:"type"`
	WebsiteURL    string  `json:"websiteURL"`
	WebsiteKey    string  `json:"websiteKey"`
	PageAction    string  `json:"pageAction,omitempty"`
	MinScore      float64 `json:"minScore,omitempty"`
	IsInvisible   bool    `json:"isInvisible,omitempty"`
	Proxy         string  `json:"proxy,omitempty"`
	ProxyLogin    string  `json:"proxyLogin,omitempty"`
	ProxyPassword string  `json:"proxyPassword,omitempty"`
}

// Proxy holds structured proxy credentials for proxied task types.
type Proxy struct {
	Host     string
	Port     int
	Login    string
	Password string
}

// Address returns the host:port form used in task specs.
func (p Proxy) Address() string {
	return fmt.Sprintf("%s:%d", p.Host, p.Port)
}

// ParseProxy parses a "host:port" or "host:port:user:pass" proxy string
// into structured fields.
func ParseProxy(raw string) (Proxy, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 2 && len(parts) != 4 {
		return Proxy{}, fmt.Errorf("invalid proxy string %q: want host:port or host:port:user:pass", raw)
	}

	port, err := strconv.Atoi(parts[1])
	if err != nil || port <= 0 || port > 65535 {
		return Proxy{}, fmt.Errorf("invalid proxy port %q", parts[1])
	}

	p := Proxy{Host: parts[0], Port: port}
	if p.Host == "" {
		return Proxy{}, fmt.Errorf("invalid proxy string %q: empty host", raw)
	}
	if len(parts) == 4 {
		p.Login = parts[2]
		p.Password = parts[3]
	}
	return p, nil
}

// ServiceError reports a failure from the solving backend: a non-zero
// errorId on submission or polling, a malformed response, or a task that
// reached the failed status.
type ServiceError struct {
	Code    int
	Message string
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("captcha service error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("captcha service error %d", e.Code)
}

// TimeoutError reports that the polling budget was exhausted while the task
// was still pending.
type TimeoutError struct {
	TaskID   string
	Attempts int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("captcha task %s still pending after %d polls", e.TaskID, e.Attempts)
}
