package captcha

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Detect inspects page markup for captcha widgets and returns a descriptor
// for the first match in a fixed priority order: Turnstile, then reCAPTCHA
// v2, then reCAPTCHA v3, then hCaptcha. Pages are assumed to host at most
// one active widget; when markers coexist the priority order breaks the tie
// with Turnstile winning.
func Detect(pageHTML string) (Descriptor, error) {
	doc, err := html.Parse(strings.NewReader(pageHTML))
	if err != nil {
		return Descriptor{Variant: VariantNone}, fmt.Errorf("captcha detect: parse page: %w", err)
	}

	found := map[Variant]string{}
	walk(doc, func(n *html.Node) {
		inspectNode(n, found)
	})

	for _, variant := range []Variant{VariantTurnstile, VariantRecaptchaV2, VariantRecaptchaV3, VariantHCaptcha} {
		if key, ok := found[variant]; ok {
			return Descriptor{Variant: variant, SiteKey: key}, nil
		}
	}
	return Descriptor{Variant: VariantNone}, nil
}

// inspectNode records captcha markers found on a single element. Later
// sightings of a variant never overwrite an earlier extracted site key.
func inspectNode(n *html.Node, found map[Variant]string) {
	if n.Type != html.ElementNode {
		return
	}

	classes := attrValue(n, "class")
	siteKey := attrValue(n, "data-sitekey")

	if hasClass(classes, "cf-turnstile") {
		record(found, VariantTurnstile, siteKey)
	}
	if hasClass(classes, "g-recaptcha") && siteKey != "" {
		record(found, VariantRecaptchaV2, siteKey)
	}
	if hasClass(classes, "h-captcha") {
		record(found, VariantHCaptcha, siteKey)
	}

	switch n.Data {
	case "script":
		inspectScript(attrValue(n, "src"), found)
	case "iframe":
		inspectFrame(attrValue(n, "src"), found)
	}
}

// inspectScript matches captcha loader script URLs. A reCAPTCHA loader with
// a concrete render= key and no visible widget is the v3 pattern; the
// priority order ensures a v2 widget seen elsewhere on the page wins.
func inspectScript(src string, found map[Variant]string) {
	switch {
	case strings.Contains(src, "challenges.cloudflare.com/turnstile"):
		record(found, VariantTurnstile, "")
	case strings.Contains(src, "/recaptcha/api.js"), strings.Contains(src, "/recaptcha/enterprise.js"):
		render := queryParam(src, "render")
		if render != "" && render != "explicit" {
			record(found, VariantRecaptchaV3, render)
		}
	case strings.Contains(src, "js.hcaptcha.com"), strings.Contains(src, "hcaptcha.com/1/api.js"):
		record(found, VariantHCaptcha, "")
	}
}

// inspectFrame matches rendered widget iframes, which carry the site key in
// the k= query parameter.
func inspectFrame(src string, found map[Variant]string) {
	switch {
	case strings.Contains(src, "challenges.cloudflare.com"):
		record(found, VariantTurnstile, queryParam(src, "sitekey"))
	case strings.Contains(src, "/recaptcha/api2/anchor"), strings.Contains(src, "/recaptcha/enterprise/anchor"):
		record(found, VariantRecaptchaV2, queryParam(src, "k"))
	case strings.Contains(src, "hcaptcha.com") && strings.Contains(src, "frame="):
		record(found, VariantHCaptcha, queryParam(src, "sitekey"))
	}
}

func record(found map[Variant]string, variant Variant, siteKey string) {
	if existing, ok := found[variant]; ok && existing != "" {
		return
	}
	found[variant] = siteKey
}

func walk(n *html.Node, visit func(*html.Node)) {
	visit(n)
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		walk(child, visit)
	}
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if strings.EqualFold(attr.Key, key) {
			return attr.Val
		}
	}
	return ""
}

func hasClass(classAttr, class string) bool {
	for _, c := range strings.Fields(classAttr) {
		if c == class {
			return true
		}
	}
	return false
}

func queryParam(rawURL, key string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Query().Get(key)
}
