package errors

import "fmt"

var (
	ErrTokenExpired    = fmt.Errorf("auth token is expired")
	ErrMalformedToken  = fmt.Errorf("auth token is malformed")
	ErrContentTooLong  = fmt.Errorf("message content exceeds the allowed length")
	ErrUnexpectedReply = fmt.Errorf("unexpected reply from the chat API")
)
