package service

import "errors"

// ErrInsufficientData 错误：没有任何报价可供分析
var ErrInsufficientData = errors.New("insufficient price data")
