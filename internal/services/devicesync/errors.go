package devicesync

import "fmt"

// ValidationError — запрос отклонён до какого-либо сетевого вызова:
// неизвестное устройство или некорректное окно времени.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func validationErrorf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
