package captcha

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEvaluator records evaluated scripts and arguments.
type fakeEvaluator struct {
	script string
	args   []interface{}
	err    error
}

func (f *fakeEvaluator) Evaluate(expression string, arg ...interface{}) (interface{}, error) {
	f.script = expression
	f.args = arg
	return nil, f.err
}

func TestInject_VariantDispatch(t *testing.T) {
	cases := []struct {
		variant Variant
		marker  string
	}{
		{VariantTurnstile, "cf-turnstile-response"},
		{VariantRecaptchaV2, "g-recaptcha-response"},
		{VariantRecaptchaV3, "__surfRecaptchaToken"},
		{VariantHCaptcha, "h-captcha-response"},
	}

	for _, tc := range cases {
		t.Run(string(tc.variant), func(t *testing.T) {
			page := &fakeEvaluator{}
			err := Inject(page, tc.variant, "token-abc")
			require.NoError(t, err)

			assert.Contains(t, page.script, tc.marker, "script must target the variant's injection point")
			require.Len(t, page.args, 1)
			assert.Equal(t, "token-abc", page.args[0], "token must be passed as an argument, not interpolated")
		})
	}
}

func TestInject_UnrecognizedVariantFailsLoudly(t *testing.T) {
	page := &fakeEvaluator{}

	err := Inject(page, Variant("funcaptcha"), "token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecognized variant")
	assert.Empty(t, page.script, "no script may run for an unknown variant")

	err = Inject(page, VariantNone, "token")
	assert.Error(t, err)
}

func TestInject_EmptyToken(t *testing.T) {
	page := &fakeEvaluator{}
	err := Inject(page, VariantTurnstile, "")
	require.Error(t, err)
	assert.Empty(t, page.script)
}

func TestInject_EvaluateFailure(t *testing.T) {
	page := &fakeEvaluator{err: errors.New("execution context destroyed")}
	err := Inject(page, VariantRecaptchaV2, "token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recaptcha-v2")
}
