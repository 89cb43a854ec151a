package generator

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"

	"github.com/mikeboe/sensight/pkg/clients"
)

// Outcome is the classification of a failed attempt.
type Outcome int

const (
	// OutcomeFatal aborts the whole operation.
	OutcomeFatal Outcome = iota
	// OutcomeQuota means rate limited or out of quota: wait, then try the next model.
	OutcomeQuota
	// OutcomeUnavailable means the model does not exist for this key or region.
	OutcomeUnavailable
	// OutcomeTransient covers network and 5xx failures worth retrying on the same model.
	OutcomeTransient
)

func (o Outcome) String() string {
	switch o {
	case OutcomeQuota:
		return "quota"
	case OutcomeUnavailable:
		return "unavailable"
	case OutcomeTransient:
		return "transient"
	default:
		return "fatal"
	}
}

// Classify maps an error returned by a clients.Client to an Outcome.
// Typed SDK errors are checked first; message matching is the fallback for
// wrapped or proxied errors.
func Classify(err error) Outcome {
	if err == nil {
		return OutcomeFatal
	}

	var se *StreamError
	if errors.As(err, &se) {
		return OutcomeFatal
	}
	var be *clients.BlockedError
	if errors.As(err, &be) {
		return OutcomeFatal
	}
	if errors.Is(err, context.Canceled) {
		return OutcomeFatal
	}
	if errors.Is(err, clients.ErrEmptyResponse) {
		return OutcomeTransient
	}

	if code, status, ok := statusOf(err); ok {
		if o, ok := classifyStatus(code, status); ok {
			return o
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return OutcomeTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return OutcomeTransient
	}

	return classifyMessage(err.Error())
}

func statusOf(err error) (int, string, bool) {
	var gv genai.APIError
	if errors.As(err, &gv) {
		return gv.Code, gv.Status, true
	}
	var gp *genai.APIError
	if errors.As(err, &gp) && gp != nil {
		return gp.Code, gp.Status, true
	}
	var oa *openai.APIError
	if errors.As(err, &oa) {
		return oa.HTTPStatusCode, "", true
	}
	var or *openai.RequestError
	if errors.As(err, &or) {
		return or.HTTPStatusCode, "", true
	}
	return 0, "", false
}

func classifyStatus(code int, status string) (Outcome, bool) {
	switch strings.ToUpper(status) {
	case "RESOURCE_EXHAUSTED":
		return OutcomeQuota, true
	case "NOT_FOUND":
		return OutcomeUnavailable, true
	case "UNAVAILABLE", "DEADLINE_EXCEEDED", "INTERNAL":
		return OutcomeTransient, true
	}

	switch {
	case code == http.StatusTooManyRequests:
		return OutcomeQuota, true
	case code == http.StatusNotFound:
		return OutcomeUnavailable, true
	case code >= 500:
		return OutcomeTransient, true
	case code >= 400:
		return OutcomeFatal, true
	}
	return OutcomeFatal, false
}

var (
	quotaMarkers = []string{
		"429", "resource_exhausted", "resource exhausted", "quota", "rate limit", "ratelimit", "too many requests",
	}
	unavailableMarkers = []string{
		"404", "not_found", "not found", "is not supported for generatecontent", "does not exist",
	}
	transientMarkers = []string{
		"503", "502", "504", "unavailable", "connection reset", "connection refused", "timeout", "eof",
	}
)

func classifyMessage(msg string) Outcome {
	msg = strings.ToLower(msg)
	for _, m := range quotaMarkers {
		if strings.Contains(msg, m) {
			return OutcomeQuota
		}
	}
	for _, m := range unavailableMarkers {
		if strings.Contains(msg, m) {
			return OutcomeUnavailable
		}
	}
	for _, m := range transientMarkers {
		if strings.Contains(msg, m) {
			return OutcomeTransient
		}
	}
	return OutcomeFatal
}
