package output_test

import (
	"bytes"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"go.trai.ch/modman/internal/ui/output"
)

func TestColorProfile(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.Equal(t, termenv.Ascii, output.ColorProfile(), "NO_COLOR should force Ascii profile")

	t.Setenv("NO_COLOR", "")
	p := output.ColorProfile()
	assert.True(t, p >= termenv.TrueColor && p <= termenv.Ascii, "should return a valid profile")
}

func TestNew(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	out := output.New(&buf)

	_, err := out.WriteString(out.String("plain").Bold().String())
	assert.NoError(t, err)
	assert.Equal(t, "plain", buf.String())
}

func TestIsTerminal_NonFile(t *testing.T) {
	assert.False(t, output.IsTerminal(&bytes.Buffer{}))
}

func TestHumanBytes(t *testing.T) {
	assert.Equal(t, "512 B", output.HumanBytes(512))
	assert.Equal(t, "1.0 KiB", output.HumanBytes(1024))
	assert.Equal(t, "1.5 MiB", output.HumanBytes(1536*1024))
}
