package tts

import (
	"fmt"
	"net/http"
	"strings"
)

// ProviderError is a failed provider call. Error() returns a message fit for
// a segment failure shown to end users.
type ProviderError struct {
	Provider string
	Status   int
	Code     string
	Message  string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.humanize())
}

func (e *ProviderError) humanize() string {
	switch {
	case e.Status == http.StatusUnauthorized || strings.Contains(e.Code, "InvalidApiKey"):
		return "invalid API key, check that the provider key is configured correctly"
	case e.Status == http.StatusForbidden:
		return "API key lacks permission for the speech synthesis service"
	case e.Status == http.StatusTooManyRequests:
		return "too many requests, try again later"
	case e.Status >= 500:
		return "provider internal error, try again later"
	}
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s (%s, http %d)", msg, e.Code, e.Status)
	}
	return fmt.Sprintf("%s (http %d)", msg, e.Status)
}
