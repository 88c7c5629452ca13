package cmd

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"pte/internal/config"
)

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCodeError, getExitCode(errors.New("boom")))

	validation := &config.ValidationError{}
	assert.Equal(t, ExitCodeConfigInvalid, getExitCode(validation))

	wrapped := errors.Join(errors.New("context"), validation)
	assert.Equal(t, ExitCodeConfigInvalid, getExitCode(wrapped))
}

func TestVersionIsSettable(t *testing.T) {
	SetVersion("1.2.3-test")
	assert.Equal(t, "1.2.3-test", GetVersion())
}
