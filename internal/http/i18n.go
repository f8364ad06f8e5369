package http

import (
	"regexp"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys. English text doubles as the key.
const (
	msgBadRequestBody  = "The request body is malformed."
	msgMissingIdentity = "The X-User-ID header is required."
	msgForbidden       = "You are not allowed to perform this operation."
	msgNotFound        = "The requested resource was not found."
	msgInvalidState    = "The reservation is not in a state that allows this operation."
	msgInvalidInput    = "The request contains invalid values."
	msgInternal        = "An internal server error occurred."
	msgBlocked         = "This time slot is blocked: %s"
	msgSlotReserved    = "Time slot already reserved"
	msgQuotaExceeded   = "Weekly limit exceeded. Used: %d, New: %d, Limit: %d"
)

var supportedLanguages = []language.Tag{
	language.English,
	language.SimplifiedChinese,
}

var languageMatcher = language.NewMatcher(supportedLanguages)

var simplifiedChinese = map[string]string{
	msgBadRequestBody:  "请求体格式不正确。",
	msgMissingIdentity: "必须提供 X-User-ID 请求头。",
	msgForbidden:       "您无权执行此操作。",
	msgNotFound:        "未找到请求的资源。",
	msgInvalidState:    "预约当前的状态不允许此操作。",
	msgInvalidInput:    "请求中包含无效的值。",
	msgInternal:        "服务器内部发生错误。",
	msgBlocked:         "该时间段不可预约：%s",
	msgSlotReserved:    "该时间段已被预约",
	msgQuotaExceeded:   "超出每周预约上限。已用：%d，新增：%d，上限：%d",

	"%s is required":                     "%s 为必填项",
	"%s is invalid":                      "%s 无效",
	"%s must be formatted as YYYY-MM-DD": "%s 必须为 YYYY-MM-DD 格式",
	"%s must be greater than %s":         "%s 必须大于 %s",
	"%s must be at least %s":             "%s 不能小于 %s",
	"%s must be at most %s":              "%s 不能大于 %s",
	"%s must be at least %s characters":  "%s 至少需要 %s 个字符",
	"%s must be at most %s characters":   "%s 最多 %s 个字符",
	"%s does not exist":                  "%s 不存在",
	"%s must be after %s":                "%s 必须晚于 %s",
	"%s must not be before %s":           "%s 不能早于 %s",
	"%s and %s cannot both be set":       "%s 和 %s 不能同时设置",
	"no fields to update":                "没有需要更新的字段",
}

var messages = buildCatalog()

func buildCatalog() *catalog.Builder {
	builder := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, translated := range simplifiedChinese {
		if err := builder.SetString(language.English, key, key); err != nil {
			panic(err)
		}
		if err := builder.SetString(language.SimplifiedChinese, key, translated); err != nil {
			panic(err)
		}
	}
	return builder
}

func newPrinter(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(messages))
}

// matchLanguage picks the supported language closest to an Accept-Language
// header value. Unparseable or unsupported values select English.
func matchLanguage(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return supportedLanguages[0]
	}
	_, index, confidence := languageMatcher.Match(tags...)
	if confidence == language.No {
		return supportedLanguages[0]
	}
	return supportedLanguages[index]
}

var fieldMessagePatterns = []struct {
	pattern *regexp.Regexp
	key     string
}{
	{regexp.MustCompile(`^(\w+) is required$`), "%s is required"},
	{regexp.MustCompile(`^(\w+) is invalid$`), "%s is invalid"},
	{regexp.MustCompile(`^(\w+) must be formatted as YYYY-MM-DD$`), "%s must be formatted as YYYY-MM-DD"},
	{regexp.MustCompile(`^(\w+) must be greater than (\d+)$`), "%s must be greater than %s"},
	{regexp.MustCompile(`^(\w+) must be at least (\d+)$`), "%s must be at least %s"},
	{regexp.MustCompile(`^(\w+) must be at most (\d+)$`), "%s must be at most %s"},
	{regexp.MustCompile(`^(\w+) must be at least (\d+) characters$`), "%s must be at least %s characters"},
	{regexp.MustCompile(`^(\w+) must be at most (\d+) characters$`), "%s must be at most %s characters"},
	{regexp.MustCompile(`^(\w+) does not exist$`), "%s does not exist"},
	{regexp.MustCompile(`^(\w+) must be after (\w+)$`), "%s must be after %s"},
	{regexp.MustCompile(`^(\w+) must not be before (\w+)$`), "%s must not be before %s"},
	{regexp.MustCompile(`^(\w+) and (\w+) cannot both be set$`), "%s and %s cannot both be set"},
	{regexp.MustCompile(`^no fields to update$`), "no fields to update"},
}

// translateFieldMessage renders a validation message produced by the
// application layer in the printer's language. Unknown messages pass through.
func translateFieldMessage(p *message.Printer, msg string) string {
	for _, entry := range fieldMessagePatterns {
		groups := entry.pattern.FindStringSubmatch(msg)
		if groups == nil {
			continue
		}
		args := make([]any, 0, len(groups)-1)
		for _, group := range groups[1:] {
			args = append(args, group)
		}
		return p.Sprintf(entry.key, args...)
	}
	return msg
}
