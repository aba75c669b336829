package services

// ServiceError pairs a message safe to show the client with the HTTP status
// the controller should answer with. Infrastructure failures are wrapped as
// 500s with a generic message; details stay in the logs.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return e.Message
}

func newServiceError(status int, message string) *ServiceError {
	return &ServiceError{StatusCode: status, Message: message}
}
