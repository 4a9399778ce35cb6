// Package storage 定义凭证存储层抽象接口和领域错误
//
// 这些错误用于隔离业务层与底层存储引擎的错误类型，
// 各驱动实现（mongostore/repository/MockStore）负责将底层错误转换为这些领域错误。
package storage

import "errors"

var (
	// ErrNotFound 实体不存在
	// 替代 sql.ErrNoRows / mongo.ErrNoDocuments
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate 唯一键冲突（email 唯一索引）
	// 两个并发注册争用同一邮箱时，输掉插入竞争的一方收到该错误
	ErrDuplicate = errors.New("duplicate: entity already exists")
)
