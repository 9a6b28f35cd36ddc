package gps

import (
	"errors"
	"fmt"
)

// ErrNotConfigured — не заданы ключ/секрет провайдера. Для любого вызова
// GPS-провайдера это фатально (в отличие от геокодера, деградации нет).
var ErrNotConfigured = errors.New("gps: app key/secret не настроены")

// ProviderError — провайдер ответил, но с бизнес-ошибкой (code != 0),
// либо не ответил вовсе. Код 0 зарезервирован за транспортными сбоями;
// для них Err хранит исходную причину.
type ProviderError struct {
	Code    int
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Code == 0 {
		return fmt.Sprintf("gps: запрос к провайдеру не удался: %s", e.Message)
	}
	return fmt.Sprintf("gps: бизнес-ошибка провайдера %d: %s", e.Code, e.Message)
}

// Unwrap отдаёт транспортную причину, чтобы errors.Is видел сквозь
// обёртку отмену контекста и таймауты.
func (e *ProviderError) Unwrap() error {
	return e.Err
}
