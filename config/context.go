package config

type contextKey string

// Ключи контекста запроса. Заполняются middleware после проверки JWT.
const (
	UserIDKey   contextKey = "user_id"
	UserRoleKey contextKey = "user_role"
)
