package auth

import (
	"encoding/json"
	"net/http"
)

// 错误码常量
// 客户端按 code 区分认证失败（清除本地令牌、强制重新登录）和其他错误
const (
	CodeValidationError    = "VALIDATION_ERROR"
	CodeEmailTaken         = "EMAIL_TAKEN"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeAccessDenied       = "ACCESS_DENIED"
	CodeAdminRequired      = "ADMIN_REQUIRED"
	CodeServerError        = "SERVER_ERROR"
	CodeAuthError          = "AUTH_ERROR" // 凭证存储不可达，以 503 上报
)

// ErrorDetail 结构化错误体 {"detail":{"code":..., "message":...}}
// 与上游 FastAPI 服务的错误外壳保持同构，前端只需一套解析逻辑
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorBody 错误响应外壳
type ErrorBody struct {
	Detail ErrorDetail `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeDetail 写入结构化错误响应
func writeDetail(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorBody{Detail: ErrorDetail{Code: code, Message: message}})
}
