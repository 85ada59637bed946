package utils

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/meysamhadeli/driftcheck/constants/lipgloss"
)

// ConfirmPrompt asks the user to confirm an action and returns their answer.
func ConfirmPrompt(message string, reader *bufio.Reader) (bool, error) {
	fmt.Print(lipgloss.BlueSky.Render(fmt.Sprintf("%s (y/N): ", message)))

	response, err := reader.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("error reading input: %w", err)
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}
