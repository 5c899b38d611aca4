package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
)

// startSpinner creates and starts a spinner with the given message when not in
// verbose or debug mode. Returns the spinner and a function that should be
// deferred to clean up.
func startSpinner(message string, verbose bool) (*spinner.Spinner, func()) {
	Logger.Debugf("Starting spinner with message: %s", message)
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message

	if err := s.Color("cyan"); err != nil {
		Logger.Warnf("Failed to set spinner color: %v", err)
	}

	if !verbose && !debug {
		s.Start()
		// Ensure log output is discarded unless in verbose mode
		log.SetOutput(io.Discard)
	} else {
		Logger.Infof("Running in verbose or debug mode: %s", message)
	}

	cleanup := func() {
		if !verbose && !debug {
			log.SetOutput(os.Stdout)
		}

		// Ensure the final message ends with a newline
		if s.FinalMSG != "" && !strings.HasSuffix(s.FinalMSG, "\n") {
			s.FinalMSG += "\n"
		}

		if !verbose && !debug {
			s.Stop()
		} else if s.FinalMSG != "" {
			// In verbose/debug mode the spinner never ran, so print the
			// message manually.
			fmt.Print(s.FinalMSG)
		}
	}

	return s, cleanup
}
