package main

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	storydto "odysseus/internal/modules/story/dto"
)

func TestSecretReadsLineWhenStdinIsNotATerminal(t *testing.T) {
	stdin := strings.NewReader("ann@example.com\n  hunter22 \n")
	in := bufio.NewReader(stdin)
	var out bytes.Buffer

	assert.Equal(t, "ann@example.com", prompt(&out, in, "Email: "))
	assert.Equal(t, "hunter22", secret(&out, in, stdin, "Password: "))
	assert.Equal(t, "Email: Password: ", out.String())
}

func TestPrintShare(t *testing.T) {
	share := storydto.ShareOutput{Text: "Read it http://web.test/stories/abc"}

	var out bytes.Buffer
	printShare(&out, share, nil)
	assert.Equal(t, "Read it http://web.test/stories/abc\n", out.String())

	out.Reset()
	var copied string
	printShare(&out, share, func(text string) error {
		copied = text
		return nil
	})
	assert.Equal(t, share.Text, copied)
	assert.Contains(t, out.String(), "Link copied to clipboard!")

	out.Reset()
	printShare(&out, share, func(string) error { return errors.New("no display") })
	assert.Contains(t, out.String(), share.Text)
	assert.Contains(t, out.String(), "could not copy to clipboard: no display")
}
