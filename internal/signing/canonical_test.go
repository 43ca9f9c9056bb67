package signing

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioInput() SignatureInput {
	return SignatureInput{
		Method:    MethodPost,
		Path:      "/api/v4/payments/raisboy/deposit/create",
		Body:      `{"user_id":"2564568","amount":5000}`,
		Timestamp: 1706620800,
		APIKey:    "your_api_key_here",
	}
}

func TestBuild(t *testing.T) {
	t.Run("documented scenario", func(t *testing.T) {
		want := "POST\n/api/v4/payments/raisboy/deposit/create\n{\"user_id\":\"2564568\",\"amount\":5000}\n1706620800\nyour_api_key_here"
		assert.Equal(t, want, string(Build(scenarioInput())))
	})

	t.Run("empty body keeps its slot", func(t *testing.T) {
		in := SignatureInput{Method: MethodGet, Path: "/api/v4/balance", Timestamp: 1, APIKey: "k"}
		assert.Equal(t, "GET\n/api/v4/balance\n\n1\nk", string(Build(in)))
	})

	t.Run("four separators no trailing newline", func(t *testing.T) {
		out := Build(scenarioInput())
		count := 0
		for _, b := range out {
			if b == '\n' {
				count++
			}
		}
		assert.Equal(t, 4, count)
		assert.NotEqual(t, byte('\n'), out[len(out)-1])
		assert.NotEqual(t, byte('\n'), out[0])
	})

	t.Run("timestamp rendered as plain decimal", func(t *testing.T) {
		in := scenarioInput()
		in.Timestamp = -5
		assert.Contains(t, string(Build(in)), "\n-5\n")
	})

	t.Run("body is not normalized", func(t *testing.T) {
		in := scenarioInput()
		in.Body = "{ \"a\" : 1 }\t"
		assert.Contains(t, string(Build(in)), "{ \"a\" : 1 }\t")
	})

	t.Run("query string is signed as given", func(t *testing.T) {
		in := scenarioInput()
		in.Path = "/api/v4/payments?x=1"
		assert.Contains(t, string(Build(in)), "/api/v4/payments?x=1")
	})

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, Build(scenarioInput()), Build(scenarioInput()))
	})
}

func TestSplitCanonical(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		fields, ok := SplitCanonical(Build(scenarioInput()))
		require.True(t, ok)
		assert.Equal(t, "POST", fields[0])
		assert.Equal(t, "/api/v4/payments/raisboy/deposit/create", fields[1])
		assert.Equal(t, `{"user_id":"2564568","amount":5000}`, fields[2])
		assert.Equal(t, "1706620800", fields[3])
		assert.Equal(t, "your_api_key_here", fields[4])
	})

	t.Run("multi-line body stays whole", func(t *testing.T) {
		in := scenarioInput()
		in.Body = "{\n  \"a\": 1\n}"
		fields, ok := SplitCanonical(Build(in))
		require.True(t, ok)
		assert.Equal(t, in.Body, fields[2])
		assert.Equal(t, "your_api_key_here", fields[4])
	})

	t.Run("too few separators", func(t *testing.T) {
		for _, s := range []string{"", "POST", "POST\n/p", "POST\n/p\nbody", "POST\n/p\nbody\n1"} {
			_, ok := SplitCanonical([]byte(s))
			assert.False(t, ok, "%q", s)
		}
	})

	t.Run("empty fields", func(t *testing.T) {
		fields, ok := SplitCanonical([]byte("\n\n\n\n"))
		require.True(t, ok)
		assert.Equal(t, [FieldCount]string{}, fields)
	})
}

func TestUnescapeNewlines(t *testing.T) {
	assert.Equal(t, "POST\n/p\n\n1\nk", UnescapeNewlines(`POST\n/p\n\n1\nk`))
	assert.Equal(t, "no escapes", UnescapeNewlines("no escapes"))
}

func TestSignatureInput_Validate(t *testing.T) {
	t.Run("accepted methods", func(t *testing.T) {
		for _, m := range Methods {
			in := scenarioInput()
			in.Method = m
			assert.NoError(t, in.Validate())
		}
	})

	t.Run("method is case sensitive", func(t *testing.T) {
		in := scenarioInput()
		in.Method = "post"
		assert.Error(t, in.Validate())
	})

	t.Run("unsupported method", func(t *testing.T) {
		in := scenarioInput()
		in.Method = "HEAD"
		assert.Error(t, in.Validate())
	})

	t.Run("invalid utf8 body", func(t *testing.T) {
		in := scenarioInput()
		in.Body = string([]byte{0xff, 0xfe})
		err := in.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "body")
	})
}

func TestCredentials_String(t *testing.T) {
	c := Credentials{APIKey: "pk_1", SecretKey: "s3cr3t"}
	assert.NotContains(t, c.String(), "s3cr3t")
	assert.Contains(t, c.String(), "pk_1")

	for _, verb := range []string{"%v", "%+v", "%s", "%#v"} {
		out := fmt.Sprintf(verb, c)
		assert.NotContains(t, out, "s3cr3t", verb)
		assert.Contains(t, out, "pk_1", verb)
	}
	assert.NotContains(t, fmt.Sprintf("%#v", []Credentials{c}), "s3cr3t")
}
