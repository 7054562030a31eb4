package tools

import (
	"encoding/hex"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/crypto/sha3"

	"github.com/walletroast/walletroast/internal/models"
)

// knownSignatures are the token calls worth naming before a user signs them.
// Only static argument types are listed so arguments decode word by word.
var knownSignatures = []string{
	"transfer(address,uint256)",
	"transferFrom(address,address,uint256)",
	"approve(address,uint256)",
	"increaseAllowance(address,uint256)",
	"setApprovalForAll(address,bool)",
	"safeTransferFrom(address,address,uint256)",
}

var signaturesBySelector = buildSelectorIndex(knownSignatures)

func buildSelectorIndex(signatures []string) map[string]string {
	index := make(map[string]string, len(signatures))
	for _, sig := range signatures {
		index[FunctionSelector(sig)] = sig
	}
	return index
}

// FunctionSelector returns the 0x-prefixed 4-byte selector of a canonical signature
func FunctionSelector(signature string) string {
	hash := sha3.NewLegacyKeccak256()
	hash.Write([]byte(signature))
	return "0x" + hex.EncodeToString(hash.Sum(nil)[:4])
}

// DecodeCalldata names the function a transaction calls and decodes its
// arguments when the selector is a known token call. It returns nil for a
// plain transfer and a selector-only result for unknown functions.
func DecodeCalldata(data string) *models.DecodedCall {
	raw, err := hexutil.Decode(data)
	if err != nil || len(raw) < 4 {
		return nil
	}

	call := &models.DecodedCall{Selector: hexutil.Encode(raw[:4])}
	signature, ok := signaturesBySelector[call.Selector]
	if !ok {
		return call
	}

	params := paramTypes(signature)
	body := raw[4:]
	if len(body) < 32*len(params) {
		return call
	}

	call.Signature = signature
	args := make([]string, len(params))
	words := make([][]byte, len(params))
	for i, typ := range params {
		words[i] = body[32*i : 32*(i+1)]
		args[i] = decodeWord(typ, words[i])
	}
	call.Args = args

	switch functionName(signature) {
	case "approve", "increaseAllowance":
		call.Approval = true
		call.UnlimitedApproval = new(big.Int).SetBytes(words[1]).Cmp(unlimitedThreshold) >= 0
	case "setApprovalForAll":
		// granting an operator every token of the collection
		call.Approval = args[1] == "true"
		call.UnlimitedApproval = call.Approval
	}
	return call
}

func paramTypes(signature string) []string {
	open := strings.Index(signature, "(")
	inner := strings.TrimSuffix(signature[open+1:], ")")
	if inner == "" {
		return nil
	}
	return strings.Split(inner, ",")
}

func functionName(signature string) string {
	return signature[:strings.Index(signature, "(")]
}

func decodeWord(typ string, word []byte) string {
	switch typ {
	case "address":
		return strings.ToLower(common.BytesToAddress(word).Hex())
	case "bool":
		if new(big.Int).SetBytes(word).Sign() != 0 {
			return "true"
		}
		return "false"
	default:
		n := new(big.Int).SetBytes(word)
		if n.Cmp(unlimitedThreshold) >= 0 {
			return "unlimited"
		}
		return n.String()
	}
}
