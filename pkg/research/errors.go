package research

import (
	"errors"
	"fmt"

	"github.com/mikeboe/sensight/pkg/generator"
	"github.com/mikeboe/sensight/pkg/intake"
	"github.com/mikeboe/sensight/pkg/prompt"
)

var (
	ErrMissingCredential = errors.New("missing API key")
	ErrEmptyInput        = errors.New("no project information supplied")
	ErrInvalidRequest    = errors.New("invalid request")
	// ErrAllEnginesExhausted is returned when every model failed on quota,
	// availability or repeated transient errors.
	ErrAllEnginesExhausted = generator.ErrAllEnginesExhausted
)

// IsInputError reports whether err was caused by the request itself and
// was detected before any network call.
func IsInputError(err error) bool {
	return errors.Is(err, ErrMissingCredential) ||
		errors.Is(err, ErrEmptyInput) ||
		errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, intake.ErrUnsupportedType) ||
		errors.Is(err, intake.ErrTooLarge)
}

type messages struct {
	missingCredential string
	emptyInput        string
	exhausted         string
	other             string
}

var userMessages = map[prompt.Language]messages{
	prompt.LanguageChinese: {
		missingCredential: "请先输入您的 API Key 才能启动大脑。",
		emptyInput:        "巧妇难为无米之炊，请先输入项目信息。",
		exhausted:         "所有模型均不可用：请检查 API Key 的权限，或等待配额重置后再试。",
		other:             "发生错误，请检查 API Key 或网络",
	},
	prompt.LanguageEnglish: {
		missingCredential: "Enter your API key first.",
		emptyInput:        "Enter the project information first.",
		exhausted:         "All models are unavailable: check credential permissions or wait for quota reset.",
		other:             "Something went wrong, check the API key or the network",
	},
}

// UserMessage renders err as the text shown to the user in lang.
func UserMessage(err error, lang prompt.Language) string {
	m, ok := userMessages[lang]
	if !ok {
		m = userMessages[prompt.DefaultLanguage]
	}
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingCredential):
		return m.missingCredential
	case errors.Is(err, ErrEmptyInput):
		return m.emptyInput
	case errors.Is(err, ErrAllEnginesExhausted):
		return m.exhausted
	case IsInputError(err):
		return err.Error()
	default:
		return fmt.Sprintf("%s: %v", m.other, err)
	}
}
