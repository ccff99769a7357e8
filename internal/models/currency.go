package models

import (
	"errors"
	"fmt"
	"strings"
)

var ErrBadCurrency = errors.New("unknown currency")

// Currency is one of the closed set of currencies a bank can operate in
type Currency int

const (
	EUR Currency = iota + 1
	GBP
	USD
)

var currencyCodes = map[Currency]string{
	EUR: "EUR",
	GBP: "GBP",
	USD: "USD",
}

// SwiftCode returns the three letter code written into MT103 messages
func (c Currency) SwiftCode() string {
	return currencyCodes[c]
}

func (c Currency) String() string {
	if code, ok := currencyCodes[c]; ok {
		return code
	}
	return fmt.Sprintf("Currency(%d)", int(c))
}

// ParseCurrency maps a code to a Currency, ignoring case
func ParseCurrency(code string) (Currency, error) {
	switch strings.ToUpper(code) {
	case "EUR":
		return EUR, nil
	case "GBP":
		return GBP, nil
	case "USD":
		return USD, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrBadCurrency, code)
}
