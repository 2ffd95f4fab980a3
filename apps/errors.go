package apps

// ArgumentError reports a bad command-line argument, optionally naming the flag at fault.
type ArgumentError struct {
	Flag string
	msg  string
}

func NewArgumentError(msg string) *ArgumentError {
	return &ArgumentError{msg: msg}
}

// NewFlagError reports an invalid value passed to `-flag`.
func NewFlagError(flag, msg string) *ArgumentError {
	return &ArgumentError{Flag: flag, msg: msg}
}

func (err *ArgumentError) Error() string {
	if err.Flag == "" {
		return err.msg
	}
	return "-" + err.Flag + ": " + err.msg
}
