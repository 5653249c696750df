package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"etrade-assistant/internal/interfaces"
)

// consoleVerifier walks the operator through the browser authorization step
// and collects the verification code the brokerage displays.
type consoleVerifier struct{}

var _ interfaces.VerifierSource = (*consoleVerifier)(nil)

func newConsoleVerifier() *consoleVerifier {
	return &consoleVerifier{}
}

func (v *consoleVerifier) RequestVerifier(ctx context.Context, authorizeURL string) (string, error) {
	fmt.Println("\nAuthorize this application in your browser:")
	fmt.Println("  " + authorizeURL)
	fmt.Println()

	var code string
	prompt := &survey.Input{
		Message: "Enter the verification code shown after you approve access:",
	}
	if err := survey.AskOne(prompt, &code); err != nil {
		// Ctrl-C means the operator backed out, not a failure.
		if errors.Is(err, terminal.InterruptErr) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(code), nil
}
