//go:generate mockery --name RemoteStore --output ./mocks --outpkg mocks --case=underscore
package syncclient

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go_course_progress/internal/model"

	"github.com/go-resty/resty/v2"
)

// RemoteStore はリモートの進捗ストア
type RemoteStore interface {
	Upsert(ctx context.Context, u model.ProgressUpdate) (*model.ProgressResponse, error)
	FetchUnit(ctx context.Context, courseID, unitID uint) (*model.ProgressResponse, error)
	FetchAll(ctx context.Context) ([]model.ProgressResponse, error)
}

// StatusError は 2xx 以外の応答
type StatusError struct {
	StatusCode int
	Detail     model.ErrorDetail
	sentinel   error
}

func (e *StatusError) Error() string {
	if e.Detail.Message != "" {
		return fmt.Sprintf("remote store returned %d (%s): %s", e.StatusCode, e.Detail.Code, e.Detail.Message)
	}
	return fmt.Sprintf("remote store returned %d", e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return e.sentinel
}

func sentinelFor(status int) error {
	switch status {
	case http.StatusUnauthorized:
		return model.ErrUnauthorized
	case http.StatusForbidden:
		return model.ErrForbidden
	case http.StatusNotFound:
		return model.ErrNotFound
	case http.StatusConflict:
		return model.ErrConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return model.ErrInvalidInput
	default:
		return model.ErrInternalServer
	}
}

// HTTPStore は REST API 経由のリモートストア
type HTTPStore struct {
	client *resty.Client
}

var _ RemoteStore = (*HTTPStore)(nil)

// NewHTTPStore は baseURL (例: http://localhost:8080) の API に接続する。
// token は送信のたびに呼ばれ、空ならヘッダを付けない
func NewHTTPStore(baseURL string, timeout time.Duration, token func() string) *HTTPStore {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
			if token == nil {
				return nil
			}
			if t := token(); t != "" {
				r.SetAuthToken(t)
			}
			return nil
		})
	return &HTTPStore{client: client}
}

func (s *HTTPStore) Upsert(ctx context.Context, u model.ProgressUpdate) (*model.ProgressResponse, error) {
	var out model.ProgressResponse
	var apiErr model.APIErrorResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParams(unitPath(u.Key.CourseID, u.Key.UnitID)).
		SetBody(ToRequest(u)).
		SetResult(&out).
		SetError(&apiErr).
		Put("/api/v1/progress/courses/{course_id}/units/{unit_id}")
	if err != nil {
		return nil, fmt.Errorf("HTTPStore.Upsert: %w", err)
	}
	if resp.IsError() {
		return nil, statusError(resp, apiErr)
	}
	return &out, nil
}

func (s *HTTPStore) FetchUnit(ctx context.Context, courseID, unitID uint) (*model.ProgressResponse, error) {
	var out model.ProgressResponse
	var apiErr model.APIErrorResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetPathParams(unitPath(courseID, unitID)).
		SetResult(&out).
		SetError(&apiErr).
		Get("/api/v1/progress/courses/{course_id}/units/{unit_id}")
	if err != nil {
		return nil, fmt.Errorf("HTTPStore.FetchUnit: %w", err)
	}
	if resp.IsError() {
		return nil, statusError(resp, apiErr)
	}
	return &out, nil
}

func (s *HTTPStore) FetchAll(ctx context.Context) ([]model.ProgressResponse, error) {
	var out []model.ProgressResponse
	var apiErr model.APIErrorResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&apiErr).
		Get("/api/v1/progress")
	if err != nil {
		return nil, fmt.Errorf("HTTPStore.FetchAll: %w", err)
	}
	if resp.IsError() {
		return nil, statusError(resp, apiErr)
	}
	return out, nil
}

func unitPath(courseID, unitID uint) map[string]string {
	return map[string]string{
		"course_id": strconv.FormatUint(uint64(courseID), 10),
		"unit_id":   strconv.FormatUint(uint64(unitID), 10),
	}
}

func statusError(resp *resty.Response, apiErr model.APIErrorResponse) *StatusError {
	return &StatusError{
		StatusCode: resp.StatusCode(),
		Detail:     apiErr.Error,
		sentinel:   sentinelFor(resp.StatusCode()),
	}
}
