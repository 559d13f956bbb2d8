package peerindex

import (
	"errors"
	"fmt"
)

// 不变量错误
//
// 这些错误只会作为 *InvariantError 的 panic 值出现，表示调用方存在缺陷，
// 不是可恢复的运行时状况。
var (
	// ErrDuplicateAddress 地址已被在用条目占用
	ErrDuplicateAddress = errors.New("peerindex: address already registered")

	// ErrEntryMismatch 地址/编号与记录的对端不匹配
	ErrEntryMismatch = errors.New("peerindex: entry does not match peer")

	// ErrPeerIDRange 对端编号超出范围
	ErrPeerIDRange = errors.New("peerindex: peer id out of range")

	// ErrNilPeer 对端引用为空
	ErrNilPeer = errors.New("peerindex: nil peer")

	// ErrIncomparablePeer 对端的动态类型不可比较
	ErrIncomparablePeer = errors.New("peerindex: peer type is not comparable")

	// ErrInvalidAddress 无效地址
	ErrInvalidAddress = errors.New("peerindex: invalid address")

	// ErrPoolExhausted 条目池无法继续增长
	ErrPoolExhausted = errors.New("peerindex: entry pool exhausted")

	// ErrFinished 索引已关闭
	ErrFinished = errors.New("peerindex: index finished")
)

// InvariantError 不变量被破坏
//
// 作为 panic 值抛出。实现了 error 和 Unwrap，
// 上层若 recover 可以用 errors.Is 判断类别。
type InvariantError struct {
	// Op 出错的操作
	Op string

	// Err 错误类别（上面的哨兵错误之一）
	Err error

	// Detail 现场信息
	Detail string
}

func (e *InvariantError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Err, e.Detail)
}

func (e *InvariantError) Unwrap() error {
	return e.Err
}

// violate 记录并抛出不变量错误
func violate(op string, err error, format string, args ...any) {
	ie := &InvariantError{Op: op, Err: err, Detail: fmt.Sprintf(format, args...)}
	logger.Error("invariant violated", "op", op, "err", ie)
	panic(ie)
}
