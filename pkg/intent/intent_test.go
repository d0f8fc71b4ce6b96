package intent

import (
	"encoding/base64"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	txBytesB64 = "AAACAQDMdYtdFSLGe6VbgpuIsMksv9Ypzpvkq2jiYq0hAjUpOQIAAAAAAAAAIHGwPza+lUm6RuJV1vn9pA4y0PwVT7k/KMMbUViQS5ydACAMVn/9+BYsttUa90vgGZRDuS6CPUumztJN5cbEY3l9RgEBAQEAAAEBAHUFfdk1Tg9l6STLBoSBJbbUuehTDUlLH7p81kpqCKsaBCiJ034Ac84f1oqgmpz79O8L/UeLNDUpOUMa+LadeX93AgAAAAAAAAAgs1e67e789jSlrzOJUXq0bb7Bn/hji+3F5UoMAbze595xCSZCVjU1ItUC9G7KQjygNiBbzZe8t7YLPjRAQyGTzAIAAAAAAAAAIAujHFcrkJJhZfCmxmCHsBWxj5xkviUqB479oupdgMZu07b+hkrjyvCcX50dO30v3PszXFj7+lCNTUTuE4UI3eoCAAAAAAAAACBIv39dyVELUFTkNv72mat5R1uHFkQdViikc1lTMiSVlOD+eESUq3neyciBatafk9dHuhhrS37RaSflqKwFlwzPAgAAAAAAAAAg8gqL3hCkAho8bb0PoqshJdqQFoRP8ZmQMZDFvsGBqa11BX3ZNU4PZekkywaEgSW21LnoUw1JSx+6fNZKagirGgEAAAAAAAAAKgQAAAAAAAAA"
	digestB64  = "VMVv+/L/EG7/yhEbCQ1qiSt30JXV8yIm+4xO6yTkqeM="
)

func TestFrame(t *testing.T) {
	msg := []byte{0xde, 0xad}
	framed := Frame(msg)
	assert.Equal(t, []byte{0, 0, 0, 0xde, 0xad}, framed)

	// framing never aliases the input
	framed[3] = 0
	assert.Equal(t, byte(0xde), msg[0])

	assert.Equal(t, []byte{3, 0, 0, 1}, PersonalMessage.Frame([]byte{1}))
	assert.Equal(t, []byte{0, 0, 0}, Frame(nil))
}

func TestHashTransactionVector(t *testing.T) {
	tx, err := base64.StdEncoding.DecodeString(txBytesB64)
	require.NoError(t, err)

	digest := HashTransaction(tx)
	assert.Equal(t, digestB64, base64.StdEncoding.EncodeToString(digest[:]))
	assert.Equal(t, digest, Digest(Frame(tx)))
}

func TestHashDependsOnScope(t *testing.T) {
	msg := []byte("hello")
	assert.NotEqual(t, TransactionData.Hash(msg), PersonalMessage.Hash(msg))
}

func TestParse(t *testing.T) {
	i, payload, err := Parse([]byte{3, 1, 2, 9, 9})
	require.NoError(t, err)
	assert.Equal(t, Intent{Scope: ScopePersonalMessage, Version: 1, AppID: 2}, i)
	assert.Equal(t, []byte{9, 9}, payload)

	_, _, err = Parse([]byte{0, 0})
	assert.Error(t, err)
}

func TestScopeString(t *testing.T) {
	assert.Equal(t, "TransactionData", ScopeTransactionData.String())
	assert.Equal(t, "PersonalMessage", ScopePersonalMessage.String())
	assert.Equal(t, "Scope(9)", Scope(9).String())
}

func TestTransactionDigest(t *testing.T) {
	tx, err := base64.StdEncoding.DecodeString(txBytesB64)
	require.NoError(t, err)

	d := TransactionDigest(tx)
	assert.Equal(t, "GK3owFmAH4PLbsUKErznvvpV4GoaBdbrfYj376pbn6ZR", d)
	raw, err := base58.Decode(d)
	require.NoError(t, err)
	assert.Len(t, raw, DigestSize)
	assert.Equal(t, d, TransactionDigest(tx))
	assert.NotEqual(t, d, TransactionDigest(tx[1:]))
}
