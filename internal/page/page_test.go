package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderVariants(t *testing.T) {
	testcases := []struct {
		variant  Variant
		title    string
		heading  string
		hasProbe bool
	}{
		{Trust, "<title>Certificate Trust Test</title>", "Certificate Trust Established!", true},
		{Simple, "<title>Certificate Test - Success!</title>", "Certificate Trust Successful!", false},
	}

	for _, c := range testcases {
		t.Run(string(c.variant), func(t *testing.T) {
			body, err := Render(c.variant, Data{})
			require.NoError(t, err)

			html := string(body)
			assert.Contains(t, html, "Certificate Trust")
			assert.Contains(t, html, c.title)
			assert.Contains(t, html, c.heading)
			assert.Contains(t, html, `href="http://localhost:5173/"`)
			if c.hasProbe {
				assert.Contains(t, html, "new WebSocket(")
				assert.Contains(t, html, "localhost:9443")
				assert.Contains(t, html, "WSS Connection Success!")
				assert.Contains(t, html, "WSS Connection Failed")
			} else {
				assert.NotContains(t, html, "<script>")
			}
		})
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	first, err := Render(Trust, Data{})
	require.NoError(t, err)
	second, err := Render(Trust, Data{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRenderCustomURLs(t *testing.T) {
	body, err := Render(Simple, Data{ChatURL: "http://localhost:3000/chat"})
	require.NoError(t, err)
	assert.Contains(t, string(body), `href="http://localhost:3000/chat"`)
	assert.NotContains(t, string(body), "5173")
}

func TestRenderNormalisesVariantName(t *testing.T) {
	expected, err := Render(Trust, Data{})
	require.NoError(t, err)

	for _, name := range []string{"Trust", "TRUST", " trust "} {
		body, err := Render(Variant(name), Data{})
		require.NoError(t, err, name)
		assert.Equal(t, expected, body, name)
	}
}

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant(" Trust ")
	require.NoError(t, err)
	assert.Equal(t, Trust, v)

	v, err = ParseVariant("SIMPLE")
	require.NoError(t, err)
	assert.Equal(t, Simple, v)

	_, err = ParseVariant("fancy")
	assert.ErrorIs(t, err, ErrUnknownVariant)

	_, err = Render(Variant("fancy"), Data{})
	assert.ErrorIs(t, err, ErrUnknownVariant)
}
