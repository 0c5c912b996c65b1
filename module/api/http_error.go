package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kweaver-ai/kweaver-go-lib/rest"
	"github.com/pkg/errors"
)

const ModuleName = "RecurringIncident"

const (
	codeInvalidParameter = ModuleName + ".InvalidParameter"
	codeInternalError    = ModuleName + ".InternalError"
)

var errorCodeList = []string{
	codeInvalidParameter,
	codeInternalError,
}

func init() {
	rest.Register(errorCodeList)
}

type ErrorInfo struct {
	httpCode  int
	errorCode string
}

var (
	InvalidParameter = ErrorInfo{httpCode: http.StatusBadRequest, errorCode: codeInvalidParameter}
	InternalError    = ErrorInfo{httpCode: http.StatusInternalServerError, errorCode: codeInternalError}
)

func NewRestHTTPError(ctx context.Context, info ErrorInfo) *rest.HTTPError {
	return rest.NewHTTPError(ctx, info.httpCode, info.errorCode)
}

// HandleValidateError 每个校验失败的字段一条明细，字段名使用 json 名称。
func HandleValidateError(ctx context.Context, err error) *rest.HTTPError {
	details := validationDetails(err)
	return NewRestHTTPError(ctx, InvalidParameter).WithErrorDetails(strings.Join(details, "; "))
}

func validationDetails(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	details := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := e.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		detail := fmt.Sprintf("%s 不满足 %s", field, e.Tag())
		if e.Param() != "" {
			detail += "=" + e.Param()
		}
		details = append(details, detail)
	}
	return details
}
