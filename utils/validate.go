package utils

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
)

var customErrorMessages = map[string]string{
	"required": "不能为空",
	"oneof":    "必须是[{0}]中的一个",
	"min":      "长度必须至少为{0}",
	"max":      "长度不能超过{0}",
	"gt":       "必须大于{0}",
	"gte":      "必须大于或等于{0}",
	"lte":      "必须小于或等于{0}",
	"dive":     "元素不合法",
}

// NewValidator 创建一个支持中文错误信息的验证器
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()

	// 优先使用 comment 标签作为字段名
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("comment"), ",", 2)[0]
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		}
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	zhTrans := zh.New()
	uni := ut.New(zhTrans, zhTrans)
	trans, _ := uni.GetTranslator("zh")
	_ = zh_translations.RegisterDefaultTranslations(validate, trans)

	for tag, msg := range customErrorMessages {
		registerCustomTranslation(validate, trans, tag, msg)
	}
	return validate, trans
}

func registerCustomTranslation(validate *validator.Validate, trans ut.Translator, tag string, message string) {
	_ = validate.RegisterTranslation(tag, trans, func(ut ut.Translator) error {
		return ut.Add(tag, message, true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		switch tag {
		case "oneof":
			return fe.Field() + "必须是[" + fe.Param() + "]中的一个"
		case "min", "max", "gt", "gte", "lte":
			t, _ := ut.T(fe.Tag(), fe.Param())
			return fe.Field() + t
		default:
			return fe.Field() + message
		}
	})
}

// ValidateStruct 验证结构体并返回中文错误信息
func ValidateStruct(validate *validator.Validate, trans ut.Translator, s interface{}) (string, error) {
	err := validate.Struct(s)
	if err == nil {
		return "", nil
	}

	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error(), err
	}
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		messages = append(messages, e.Translate(trans))
	}
	return strings.Join(messages, "; "), err
}
