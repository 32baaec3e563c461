package config

import "errors"

var (
	// ErrIndexOutOfRange 角色/掉落物等下标超出配置数组范围
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrInvalidConfig 其他无法开局的配置错误
	ErrInvalidConfig = errors.New("invalid config")
)
