package core

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 推荐面的失败语义是 "fail soft"：Engine 内部对缺数据/越界一律降级为空结果，
// DomainError 只在存储边界（UserStore）向调用方传递。
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "ALREADY_EXISTS"）
	Message string // 错误消息
	Module  string // 模块名称（如 "catalog", "userstore"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeAlreadyExists = "ALREADY_EXISTS" // 资源已存在（如重复的 user id）
	ErrorCodeOutOfRange    = "OUT_OF_RANGE"   // 矩阵索引越界
	ErrorCodeStoreFault    = "STORE_FAULT"    // 底层持久化读写失败
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
)

// 模块名称常量
const (
	ModuleCatalog   = "catalog"   // 书目/相似度矩阵模块
	ModuleUserStore = "userstore" // 用户状态存储模块
	ModuleEngine    = "engine"    // 推荐引擎模块
)

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}

// IsAlreadyExists 检查错误是否为 ALREADY_EXISTS
func IsAlreadyExists(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeAlreadyExists
	}
	return false
}

// IsStoreFault 检查错误是否为 STORE_FAULT
func IsStoreFault(err error) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == ErrorCodeStoreFault
	}
	return false
}

// UserStore 通用错误
var (
	// ErrUserNotFound 表示用户不存在
	ErrUserNotFound = NewDomainError(ModuleUserStore, ErrorCodeNotFound, "userstore: user not found")

	// ErrUserExists 表示用户 id 已被占用
	ErrUserExists = NewDomainError(ModuleUserStore, ErrorCodeAlreadyExists, "userstore: user already exists")
)
