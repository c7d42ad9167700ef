package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

func promptForInput(prompt string, defaultVal string) (string, error) {
	reader := bufio.NewReader(os.Stdin)

	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", prompt, defaultVal)
	} else {
		fmt.Printf("%s: ", prompt)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}

	input = strings.TrimSpace(input)
	if input == "" && defaultVal != "" {
		return defaultVal, nil
	}

	return input, nil
}

func promptForConfirmation(prompt string) bool {
	reader := bufio.NewReader(os.Stdin)

	fmt.Printf("%s (y/N): ", prompt)
	input, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes"
}
