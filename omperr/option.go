package omperr

// Option is an Error option function
type Option func(*Error)

func WithMessage(msg string) Option { return func(e *Error) { e.Message = msg } }

// WithStatus attaches the server reported status to the error
func WithStatus(status, text string) Option {
	return func(e *Error) { e.Status = &StatusError{Status: status, Text: text} }
}
