package models

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// NormalizeAddress validates a 0x-prefixed EVM address and returns it lower-cased
func NormalizeAddress(field, addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", NewInvalidInputError("%s is required", field)
	}
	if !strings.HasPrefix(addr, "0x") && !strings.HasPrefix(addr, "0X") {
		return "", NewInvalidInputError("%s must be a 0x-prefixed address", field)
	}
	if !common.IsHexAddress(addr) {
		return "", NewInvalidInputError("%s is not a valid address: %q", field, addr)
	}
	return strings.ToLower(common.HexToAddress(addr).Hex()), nil
}

// NormalizeOptionalAddress is NormalizeAddress that lets an empty value through
func NormalizeOptionalAddress(field, addr string) (string, error) {
	if strings.TrimSpace(addr) == "" {
		return "", nil
	}
	return NormalizeAddress(field, addr)
}

// NormalizeValue accepts a hex quantity or a decimal wei amount and returns a hex quantity.
// An empty value means zero.
func NormalizeValue(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "0x0", nil
	}
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		n, err := hexutil.DecodeBig("0x" + strings.TrimLeft(value[2:], "0"))
		if err != nil {
			if strings.Trim(value[2:], "0") == "" {
				return "0x0", nil
			}
			return "", NewInvalidInputError("value is not a valid hex quantity: %q", value)
		}
		return hexutil.EncodeBig(n), nil
	}
	n, ok := new(big.Int).SetString(value, 10)
	if !ok || n.Sign() < 0 {
		return "", NewInvalidInputError("value is not a valid wei amount: %q", value)
	}
	return hexutil.EncodeBig(n), nil
}

// NormalizeCalldata validates optional 0x-prefixed calldata
func NormalizeCalldata(data string) (string, error) {
	data = strings.TrimSpace(data)
	if data == "" || data == "0x" {
		return "", nil
	}
	if _, err := hexutil.Decode(data); err != nil {
		return "", NewInvalidInputError("data is not valid hex calldata")
	}
	return strings.ToLower(data), nil
}
