package error

type NotFoundError string

// Error for complying the error interface
func (e NotFoundError) Error() string {
	return string(e)
}

// ErrCode will return the error code based on the error data type
func (e NotFoundError) ErrCode() string {
	return "NOT_FOUND_ERROR"
}

// StatusCode will return the HTTP status code based on the error data type
func (e NotFoundError) StatusCode() int {
	return 404
}
