package webutil

import (
	"log"
	"reflect"
	"strings"

	"github.com/go-playground/locales/ja"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	ja_translations "github.com/go-playground/validator/v10/translations/ja"
)

// Validator はアプリケーション全体で共有されるバリデータ
var Validator *validator.Validate

// Trans はエラーメッセージの翻訳に使う
var Trans ut.Translator

var fieldNameTranslations = map[string]string{
	"progress":    "進捗",
	"completed":   "完了フラグ",
	"finishDate":  "完了日",
	"score":       "スコア",
	"attempted":   "受験フラグ",
	"certificate": "証明書フラグ",
	"questions":   "設問",
	"question":    "設問文",
	"options":     "選択肢",
	"answer":      "正解",
	"answers":     "回答",
}

func translatedField(fe validator.FieldError) string {
	if name, ok := fieldNameTranslations[fe.Field()]; ok {
		return name
	}
	return fe.Field()
}

// registerTranslation はタグのメッセージを上書きする。{0} はフィールド名、{1} はパラメータ
func registerTranslation(tag, msg string) {
	err := Validator.RegisterTranslation(tag, Trans, func(t ut.Translator) error {
		return t.Add(tag, msg, true)
	}, func(t ut.Translator, fe validator.FieldError) string {
		s, _ := t.T(tag, translatedField(fe), fe.Param())
		return s
	})
	if err != nil {
		log.Fatal(err)
	}
}

func init() {
	Validator = validator.New()

	// JSONタグ名をフィールド名として使う
	Validator.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	japanese := ja.New()
	uni := ut.New(japanese, japanese)
	var found bool
	Trans, found = uni.GetTranslator("ja")
	if !found {
		log.Fatal("translator not found")
	}
	if err := ja_translations.RegisterDefaultTranslations(Validator, Trans); err != nil {
		log.Fatal(err)
	}

	registerTranslation("required", "{0}は必須項目です。")
	registerTranslation("gte", "{0}は{1}以上で指定してください。")
	registerTranslation("lte", "{0}は{1}以下で指定してください。")
	registerTranslation("min", "{0}は{1}件以上必要です。")
	registerTranslation("oneof", "{0}は[{1}]のいずれかで指定してください。")
	registerTranslation("datetime", "{0}は{1}形式で指定してください。")
}
