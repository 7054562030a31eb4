package tools

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const spender = "0x2222222222222222222222222222222222222222"

func encodeCall(signature string, words ...[]byte) string {
	raw, _ := hexutil.Decode(FunctionSelector(signature))
	for _, w := range words {
		raw = append(raw, common.LeftPadBytes(w, 32)...)
	}
	return hexutil.Encode(raw)
}

func maxUint256() *big.Int {
	return new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
}

func addressWord(addr string) []byte {
	return common.HexToAddress(addr).Bytes()
}

func TestFunctionSelector(t *testing.T) {
	assert.Equal(t, "0xa9059cbb", FunctionSelector("transfer(address,uint256)"))
	assert.Equal(t, "0x095ea7b3", FunctionSelector("approve(address,uint256)"))
	assert.Equal(t, "0x23b872dd", FunctionSelector("transferFrom(address,address,uint256)"))
	assert.Equal(t, "0xa22cb465", FunctionSelector("setApprovalForAll(address,bool)"))
}

func TestDecodeCalldata_Transfer(t *testing.T) {
	data := encodeCall("transfer(address,uint256)", addressWord(spender), big.NewInt(1500).Bytes())

	call := DecodeCalldata(data)
	require.NotNil(t, call)
	assert.Equal(t, "0xa9059cbb", call.Selector)
	assert.Equal(t, "transfer(address,uint256)", call.Signature)
	assert.Equal(t, []string{spender, "1500"}, call.Args)
	assert.False(t, call.Approval)
	assert.False(t, call.UnlimitedApproval)
}

func TestDecodeCalldata_Approvals(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		approval  bool
		unlimited bool
		lastArg   string
	}{
		{
			name:      "max uint approve",
			data:      encodeCall("approve(address,uint256)", addressWord(spender), maxUint256().Bytes()),
			approval:  true,
			unlimited: true,
			lastArg:   "unlimited",
		},
		{
			name:     "bounded approve",
			data:     encodeCall("approve(address,uint256)", addressWord(spender), big.NewInt(10).Bytes()),
			approval: true,
			lastArg:  "10",
		},
		{
			name:      "operator for a whole collection",
			data:      encodeCall("setApprovalForAll(address,bool)", addressWord(spender), []byte{1}),
			approval:  true,
			unlimited: true,
			lastArg:   "true",
		},
		{
			name:    "operator revoked",
			data:    encodeCall("setApprovalForAll(address,bool)", addressWord(spender), []byte{0}),
			lastArg: "false",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			call := DecodeCalldata(tt.data)
			require.NotNil(t, call)
			require.Len(t, call.Args, 2)
			assert.Equal(t, spender, call.Args[0])
			assert.Equal(t, tt.lastArg, call.Args[1])
			assert.Equal(t, tt.approval, call.Approval)
			assert.Equal(t, tt.unlimited, call.UnlimitedApproval)
		})
	}
}

func TestDecodeCalldata_Unknown(t *testing.T) {
	assert.Nil(t, DecodeCalldata(""))
	assert.Nil(t, DecodeCalldata("0x1234"))

	call := DecodeCalldata("0xdeadbeef" + strings.Repeat("00", 32))
	require.NotNil(t, call)
	assert.Equal(t, "0xdeadbeef", call.Selector)
	assert.Empty(t, call.Signature)
	assert.Empty(t, call.Args)

	// known selector with truncated arguments
	truncated := DecodeCalldata(FunctionSelector("approve(address,uint256)") + strings.Repeat("00", 32))
	require.NotNil(t, truncated)
	assert.Empty(t, truncated.Signature)
	assert.False(t, truncated.Approval)
}

func TestBuildInterpretPrompt_DecodedCall(t *testing.T) {
	data := encodeCall("approve(address,uint256)", addressWord(spender), maxUint256().Bytes())
	prompt := buildInterpretPrompt(InterpretInput{
		From:  sender,
		To:    pepe,
		Data:  data,
		Call:  DecodeCalldata(data),
		Floor: "HIGH",
	})

	assert.Contains(t, prompt, "- Decoded call: approve("+spender+", unlimited)")
	assert.Contains(t, prompt, "unlimited spending rights")
}
