package main

import (
	"errors"
	"fmt"
	"os"

	"restaurantfinder/finder"
)

// Exit codes for different failure modes
const (
	ExitSuccess = 0
	ExitFailed  = 1 // Backend, network or location failure
	ExitUsage   = 2 // Invalid input, caught before any request
)

func main() {
	if err := execute(); err != nil {
		var reported reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintln(os.Stderr, "error:", userMessage(err, ""))
		}
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var ve *finder.ValidationError
	if errors.As(err, &ve) || errors.Is(err, finder.ErrLocationRequired) {
		return ExitUsage
	}
	return ExitFailed
}

// userMessage is what gets printed for err, preferring the inline text a
// browser user would see.
func userMessage(err error, postalCode string) string {
	if msg := finder.Message(err, postalCode); msg != "" {
		return msg
	}
	return fmt.Sprint(err)
}
