package tripdata

import (
	"bytes"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestFetcher_Logf(t *testing.T) {
	fetcher := &Fetcher{
		EnableLog:        true,
		EnableVerboseLog: true,
	}

	// Capture log output
	var logOutput bytes.Buffer
	logrus.SetOutput(&logOutput)
	defer logrus.SetOutput(os.Stdout)

	fetcher.logf("downloading %s\n", "https://example.com/a.zip")
	assert.Contains(t, logOutput.String(), "https://example.com/a.zip")

	fetcher.verbosef("saved %s\n", "/tmp/a.zip")
	assert.Contains(t, logOutput.String(), "/tmp/a.zip")
}

func TestFetcher_LogfDisabled(t *testing.T) {
	fetcher := &Fetcher{
		EnableLog:        false,
		EnableVerboseLog: false,
	}

	var logOutput bytes.Buffer
	logrus.SetOutput(&logOutput)
	defer logrus.SetOutput(os.Stdout)

	fetcher.logf("downloading %s\n", "https://example.com/a.zip")
	fetcher.verbosef("saved %s\n", "/tmp/a.zip")
	assert.Empty(t, logOutput.String())

	// Warnings stay visible even with logging disabled
	fetcher.warnf("fetch failed for %s\n", "202402")
	assert.Contains(t, logOutput.String(), "202402")
}
