package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// BigInt is a raw integer amount persisted as a base-10 string
type BigInt struct {
	*big.Int
}

// NewBigInt copies v into a BigInt. A nil v yields zero.
func NewBigInt(v *big.Int) BigInt {
	if v == nil {
		return BigInt{Int: new(big.Int)}
	}
	return BigInt{Int: new(big.Int).Set(v)}
}

// ParseBigInt parses a base-10 integer string
func ParseBigInt(s string) (BigInt, error) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return BigInt{}, fmt.Errorf("invalid integer amount %q", s)
	}
	return BigInt{Int: v}, nil
}

// Big returns a copy of the value, zero when unset
func (b BigInt) Big() *big.Int {
	if b.Int == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(b.Int)
}

func (b BigInt) String() string {
	if b.Int == nil {
		return "0"
	}
	return b.Int.String()
}

// Implement the driver.Valuer interface for BigInt type
func (b BigInt) Value() (driver.Value, error) {
	return b.String(), nil
}

// Implement the sql.Scanner interface for BigInt type
func (b *BigInt) Scan(value interface{}) error {
	var raw string
	switch v := value.(type) {
	case nil:
		b.Int = new(big.Int)
		return nil
	case []byte:
		raw = string(v)
	case string:
		raw = v
	case int64:
		b.Int = big.NewInt(v)
		return nil
	default:
		return errors.New("type assertion to string failed")
	}

	if raw == "" {
		b.Int = new(big.Int)
		return nil
	}

	parsed, err := ParseBigInt(raw)
	if err != nil {
		return err
	}
	b.Int = parsed.Int
	return nil
}

func (b BigInt) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

func (b *BigInt) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		// accept bare numbers as well
		raw = string(data)
	}
	parsed, err := ParseBigInt(raw)
	if err != nil {
		return err
	}
	b.Int = parsed.Int
	return nil
}

// All returns every model managed by the migrations
func All() []interface{} {
	return []interface{}{
		&FeeConfig{},
		&SwapRecord{},
		&TokenBalance{},
		&TokenAllowance{},
		&LiquidityPool{},
		&Token{},
		&UserPreferences{},
		&PriceAlert{},
	}
}
