package http_common

// ErrorResponse DTO ответа с ошибкой
type ErrorResponse struct {
	Message string `json:"message"`
}

const UserTokenHeader = "X-user-token"

// UserIDKey is the gin context key the identity middleware stores the user id under.
const UserIDKey = "user_id"
