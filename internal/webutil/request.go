package webutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go_course_progress/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// DecodeJSONBody はリクエストボディをデコードし、validate タグで検証する
func DecodeJSONBody(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return model.NewAppError("INVALID_BODY", "リクエストボディが必要です。", "", model.ErrInvalidInput)
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return model.NewAppError("INVALID_BODY", "リクエストボディの形式が正しくありません。", "",
			fmt.Errorf("%w: %v", model.ErrInvalidInput, err))
	}

	if err := Validator.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return NewValidationErrorResponse(verrs)
		}
		return model.NewAppError("VALIDATION_ERROR", "入力値が不正です。", "", model.ErrInvalidInput)
	}
	return nil
}

// URLParamUint はパスパラメータを正の整数として読み取る
func URLParamUint(r *http.Request, name string) (uint, error) {
	raw := chi.URLParam(r, name)
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || n == 0 {
		return 0, model.NewAppError("INVALID_PATH_PARAM", fmt.Sprintf("%sの形式が正しくありません。", name), name, model.ErrInvalidInput)
	}
	return uint(n), nil
}

// URLParamUUID はパスパラメータを UUID として読み取る
func URLParamUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, model.NewAppError("INVALID_PATH_PARAM", fmt.Sprintf("%sの形式が正しくありません。", name), name, model.ErrInvalidInput)
	}
	return id, nil
}
