package verifier

import (
	"bytes"
	"io"
	"net/http"

	"paysign/internal/common/errors"
)

// CodeBodyTooLarge marks the validation error returned for an oversized body.
const CodeBodyTooLarge = "BODY_TOO_LARGE"

// ReadBody reads r.Body up to limit bytes and replaces it with a reader over
// the same bytes, so the handler downstream sees exactly what was verified.
func ReadBody(r *http.Request, limit int64) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return []byte{}, nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	r.Body.Close()
	if err != nil {
		return nil, errors.InternalError("failed to read request body", err)
	}
	if int64(len(body)) > limit {
		return nil, errors.ValidationError("request body too large").WithContext("limit_bytes", limit).WithCode(CodeBodyTooLarge)
	}

	r.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}
