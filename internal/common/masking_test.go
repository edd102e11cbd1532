package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskHeaders(t *testing.T) {
	headers := map[string]string{
		"Authorization": "Bearer abc",
		"X-Api-Key":     "secret",
		"Accept":        "application/json",
	}

	masked := MaskHeaders(headers)
	assert.Equal(t, MaskedValue, masked["Authorization"])
	assert.Equal(t, MaskedValue, masked["X-Api-Key"])
	assert.Equal(t, "application/json", masked["Accept"])

	// Input must be untouched.
	assert.Equal(t, "Bearer abc", headers["Authorization"])
}

func TestMaskHeaders_ExtraNames(t *testing.T) {
	headers := map[string]string{"X-Custom-Token": "abc", "Accept": "*/*"}
	masked := MaskHeaders(headers, "x-custom-token")
	assert.Equal(t, MaskedValue, masked["X-Custom-Token"])
	assert.Equal(t, "*/*", masked["Accept"])
}

func TestMaskHeaders_Nil(t *testing.T) {
	assert.Nil(t, MaskHeaders(nil))
}

func TestIsSensitiveHeader(t *testing.T) {
	assert.True(t, IsSensitiveHeader("authorization"))
	assert.True(t, IsSensitiveHeader(" Proxy-Authorization "))
	assert.False(t, IsSensitiveHeader("Accept"))
}

func TestMaskIfContains(t *testing.T) {
	assert.Equal(t, "dial tcp: "+MaskedValue+" rejected", MaskIfContains("dial tcp: s3cr3t rejected", "s3cr3t"))
	assert.Equal(t, "no secret here", MaskIfContains("no secret here", "s3cr3t"))
	assert.Equal(t, "text", MaskIfContains("text", ""))
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLogLevel("debug"))
	assert.Equal(t, LogLevelWarn, ParseLogLevel("WARNING"))
	assert.Equal(t, LogLevelError, ParseLogLevel(" error "))
	assert.Equal(t, LogLevelInfo, ParseLogLevel("bogus"))
}
