package model

import "errors"

// The messages are shown to the operator verbatim.
var (
	// ErrFormat means the input bytes are not valid JSON.
	ErrFormat = errors.New("文件格式错误，无法解析 JSON")

	// ErrSchema means a backup document is missing a required field or has
	// the wrong shape.
	ErrSchema = errors.New("备份文件格式不正确，缺少必要字段")

	// ErrNotFound means a referenced event does not exist.
	ErrNotFound = errors.New("事件不存在")

	// ErrGiftNotFound means a referenced gift record does not exist.
	ErrGiftNotFound = errors.New("礼金记录不存在")

	// ErrEmptyResult means an export found no non-abolished gift to emit.
	ErrEmptyResult = errors.New("没有可导出的礼金记录")

	// ErrValidation means input failed a business rule (missing name, negative amount).
	ErrValidation = errors.New("validation error")
)
