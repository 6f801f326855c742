package outreach

import "fmt"

// GenerationError is returned when the completion call fails or its
// response cannot be used. It fails the whole signal.
type GenerationError struct {
	SignalID string
	Message  string
	// Reason is the text recorded on the error record: the completion
	// call's own message when it failed, otherwise Message.
	Reason string
	Cause  error
}

func newCallError(signalID string, cause error) *GenerationError {
	return &GenerationError{SignalID: signalID, Message: "completion call failed", Reason: cause.Error(), Cause: cause}
}

func newResponseError(signalID, message string, cause error) *GenerationError {
	return &GenerationError{SignalID: signalID, Message: message, Reason: message, Cause: cause}
}

func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("outreach generation failed for %s: %s: %v", e.SignalID, e.Message, e.Cause)
	}
	return fmt.Sprintf("outreach generation failed for %s: %s", e.SignalID, e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}
