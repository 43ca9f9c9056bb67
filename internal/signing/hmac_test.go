package signing

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paysign/internal/common/errors"
)

const (
	scenarioSecret    = "s3cr3t"
	scenarioSignature = Signature("a5f80d4b802752f15820c0d46f17d16eb78a0805b57c54dec543069631dfd884")
)

func TestSign_GoldenVector(t *testing.T) {
	sig := Sign([]byte(scenarioSecret), Build(scenarioInput()))
	assert.Equal(t, scenarioSignature, sig)
	assert.Len(t, string(sig), SignatureLength)
	assert.Equal(t, strings.ToLower(string(sig)), string(sig))
}

func TestSign_EmptyBodyVector(t *testing.T) {
	in := SignatureInput{
		Method:    MethodGet,
		Path:      "/api/v4/payments/raisboy/balance",
		Timestamp: 1706620800,
		APIKey:    "your_api_key_here",
	}
	assert.Equal(t, Signature("8fb7821a8ab7471540a680ab7107c3d4f0cd84c4c5d88aad779c38df4a379ed5"), Sign([]byte(scenarioSecret), Build(in)))
}

func TestSign_Deterministic(t *testing.T) {
	msg := Build(scenarioInput())
	assert.Equal(t, Sign([]byte(scenarioSecret), msg), Sign([]byte(scenarioSecret), msg))
}

func TestSign_KeyOrderSensitivity(t *testing.T) {
	a := scenarioInput()
	b := scenarioInput()
	a.Body = `{"a":1,"b":2}`
	b.Body = `{"b":2,"a":1}`

	assert.NotEqual(t, Sign([]byte(scenarioSecret), Build(a)), Sign([]byte(scenarioSecret), Build(b)))

	reordered := scenarioInput()
	reordered.Body = `{"amount":5000,"user_id":"2564568"}`
	assert.Equal(t, Signature("83ef3b7460c3bbf6076e542b0325849ce57f9802129252ea2031d45e6a972c6a"), Sign([]byte(scenarioSecret), Build(reordered)))
}

func TestSign_FieldSensitivity(t *testing.T) {
	base := Sign([]byte(scenarioSecret), Build(scenarioInput()))

	mutations := map[string]func(*SignatureInput){
		"method":    func(in *SignatureInput) { in.Method = MethodPut },
		"path":      func(in *SignatureInput) { in.Path += "/x" },
		"body":      func(in *SignatureInput) { in.Body = `{"user_id":"2564568","amount":5001}` },
		"timestamp": func(in *SignatureInput) { in.Timestamp++ },
		"api_key":   func(in *SignatureInput) { in.APIKey = "other_key" },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			in := scenarioInput()
			mutate(&in)
			assert.NotEqual(t, base, Sign([]byte(scenarioSecret), Build(in)))
		})
	}

	t.Run("secret", func(t *testing.T) {
		assert.NotEqual(t, base, Sign([]byte("s3cr3u"), Build(scenarioInput())))
	})
}

func TestVerify(t *testing.T) {
	msg := Build(scenarioInput())

	t.Run("round trip", func(t *testing.T) {
		assert.True(t, Verify([]byte(scenarioSecret), msg, Sign([]byte(scenarioSecret), msg)))
	})

	t.Run("wrong secret", func(t *testing.T) {
		assert.False(t, Verify([]byte("other"), msg, scenarioSignature))
	})

	t.Run("length mismatch", func(t *testing.T) {
		assert.False(t, Verify([]byte(scenarioSecret), msg, scenarioSignature[:63]))
		assert.False(t, Verify([]byte(scenarioSecret), msg, ""))
	})

	t.Run("uppercase hex rejected", func(t *testing.T) {
		assert.False(t, Verify([]byte(scenarioSecret), msg, Signature(strings.ToUpper(string(scenarioSignature)))))
	})

	t.Run("single character tamper", func(t *testing.T) {
		for i := 0; i < SignatureLength; i++ {
			tampered := []byte(scenarioSignature)
			if tampered[i] == '0' {
				tampered[i] = '1'
			} else {
				tampered[i] = '0'
			}
			assert.False(t, Verify([]byte(scenarioSecret), msg, Signature(tampered)), "position %d", i)
		}
	})
}

func TestSignInput(t *testing.T) {
	t.Run("matches Sign over Build", func(t *testing.T) {
		sig, err := SignInput(scenarioSecret, scenarioInput())
		require.NoError(t, err)
		assert.Equal(t, scenarioSignature, sig)

		ok, err := VerifyInput(scenarioSecret, scenarioInput(), sig)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("invalid utf8 secret", func(t *testing.T) {
		_, err := SignInput(string([]byte{0xc3, 0x28}), scenarioInput())
		assert.True(t, errors.IsType(err, errors.ErrTypeEncoding))

		_, err = VerifyInput(string([]byte{0xc3, 0x28}), scenarioInput(), scenarioSignature)
		assert.True(t, errors.IsType(err, errors.ErrTypeEncoding))
	})

	t.Run("invalid utf8 api key", func(t *testing.T) {
		in := scenarioInput()
		in.APIKey = string([]byte{0xff})
		_, err := SignInput(scenarioSecret, in)
		assert.True(t, errors.IsType(err, errors.ErrTypeEncoding))
	})

	t.Run("unsupported method", func(t *testing.T) {
		in := scenarioInput()
		in.Method = "OPTIONS"
		_, err := SignInput(scenarioSecret, in)
		assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
	})
}

func TestParseSignature(t *testing.T) {
	sig, err := ParseSignature(string(scenarioSignature))
	require.NoError(t, err)
	assert.Equal(t, scenarioSignature, sig)

	for _, bad := range []string{
		"",
		string(scenarioSignature[:63]),
		string(scenarioSignature) + "0",
		strings.ToUpper(string(scenarioSignature)),
		strings.Repeat("g", SignatureLength),
	} {
		_, err := ParseSignature(bad)
		assert.True(t, errors.IsType(err, errors.ErrTypeInvalidSignature), "%q", bad)
	}
}

func TestSign_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	results := make([]Signature, 64)

	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := scenarioInput()
			in.APIKey = fmt.Sprintf("key-%d", i%2)
			results[i] = Sign([]byte(scenarioSecret), Build(in))
		}(i)
	}
	wg.Wait()

	for i := 2; i < len(results); i++ {
		assert.Equal(t, results[i%2], results[i])
	}
}

func BenchmarkSign(b *testing.B) {
	msg := Build(scenarioInput())
	secret := []byte(scenarioSecret)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Sign(secret, msg)
	}
}
