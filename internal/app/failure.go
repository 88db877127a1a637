package app

import (
	"fmt"
	"strings"
)

type FailureKind int

const (
	ValidationRejected = FailureKind(iota)
	DownloadFailed
	OutputMissing
	DeliveryFailed
)

var failureKindNames = map[FailureKind]string{
	ValidationRejected: "validation_rejected",
	DownloadFailed:     "download_failed",
	OutputMissing:      "output_missing",
	DeliveryFailed:     "delivery_failed",
}

func (k FailureKind) String() string {
	if name, ok := failureKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("failure_kind(%d)", int(k))
}

// Failure is a typed failure of one command invocation. Message is meant for logs only.
type Failure struct {
	Kind    FailureKind
	Message string
	cause   error
}

func NewFailure(kind FailureKind, message string) *Failure {
	return &Failure{Kind: kind, Message: message}
}

func (f *Failure) WithCause(cause error) *Failure {
	f.cause = cause
	return f
}

func (f *Failure) Error() string {
	msg := &strings.Builder{}
	_, _ = fmt.Fprintf(msg, "%s: %s", f.Kind, f.Message)
	if f.cause != nil {
		_, _ = fmt.Fprintf(msg, ": %v", f.cause)
	}
	return msg.String()
}

func (f *Failure) Unwrap() error {
	return f.cause
}
