package errors

import "fmt"

var (
	ErrWorkerPanic       = fmt.Errorf("worker panic")
	ErrEmptyDisplayName  = fmt.Errorf("display name is empty")
	ErrEmptyMessageBody  = fmt.Errorf("message body is empty")
	ErrNilSenderID       = fmt.Errorf("sender id is nil")
	ErrUnknownConnection = fmt.Errorf("unknown connection")
)
