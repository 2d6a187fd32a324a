package common

// UsernameHeaderName is the request header carrying the caller's username.
const UsernameHeaderName = "x-username"

// AuthorizationHeaderName carries "Bearer <access token>" issued by login.
const AuthorizationHeaderName = "Authorization"

// MaxEncodedPayloadSize is the default ceiling for a base64-encoded payload.
// Encoded data is ~4/3 of the raw bytes.
const MaxEncodedPayloadSize = 12 * 1024 * 1024

// Roles.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)
