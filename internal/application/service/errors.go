package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"xspread/internal/domain/model"
)

// ErrNoPricesAvailable 错误：所有交易所/市场都没有返回报价
var ErrNoPricesAvailable = errors.New("no prices available")

// InsufficientLiquidityError 少于两个交易所返回了有效订单簿
type InsufficientLiquidityError struct {
	Symbol    string
	Available int
	Errors    map[model.Venue]string
}

func (e *InsufficientLiquidityError) Error() string {
	venues := make([]string, 0, len(e.Errors))
	for v := range e.Errors {
		venues = append(venues, string(v))
	}
	sort.Strings(venues)

	parts := make([]string, 0, len(venues))
	for _, v := range venues {
		parts = append(parts, fmt.Sprintf("%s: %s", v, e.Errors[model.Venue(v)]))
	}
	return fmt.Sprintf("pair %s is available only on %d venue(s). errors: %s",
		e.Symbol, e.Available, strings.Join(parts, ", "))
}
