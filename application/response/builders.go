// Package response provides one constructor per response body variant.
// Builders are pure: nothing reaches the host until a body is handed to a
// correlator.
package response

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/cynthia-web/plugin-sdk-go/domain/entities"
	"github.com/cynthia-web/plugin-sdk-go/domain/errors"
)

// NoneOk builds a success body without data.
func NoneOk() entities.ResponseBody {
	return entities.NoneOkBody{}
}

// OkString builds a success body carrying a single string.
func OkString(value string) entities.ResponseBody {
	return entities.OkStringBody{Value: value}
}

// OkJSON builds a success body carrying structured data.
func OkJSON(value any) entities.ResponseBody {
	return entities.OkJSONBody{Value: value}
}

// WebResponse builds the answer to a web-content request. The header map is
// copied so later changes by the caller do not leak into the response.
func WebResponse(headers map[string]string, body string) entities.ResponseBody {
	appended := make(map[string]string, len(headers))
	for k, v := range headers {
		appended[k] = v
	}
	return entities.WebResponseBody{AppendHeaders: appended, ResponseBody: body}
}

// Error builds a failure body. message may be anything: strings and byte
// slices are used as-is, errors through errors.Message, Stringers through
// String, scalars through fmt and everything else as JSON. When none of that
// yields non-blank text, including when a method panics, the body carries
// entities.DefaultErrorMessage.
func Error(message any) entities.ResponseBody {
	return entities.ErrorBody{Message: stringify(message)}
}

// FromError builds a failure body from err.
func FromError(err error) entities.ResponseBody {
	if err == nil {
		return Error(nil)
	}
	return Error(err)
}

func stringify(v any) (s string) {
	defer func() {
		if recover() != nil {
			s = entities.DefaultErrorMessage
		}
	}()
	s = describe(v)
	if strings.TrimSpace(s) == "" {
		return entities.DefaultErrorMessage
	}
	return s
}

func describe(v any) string {
	if v == nil || isNilValue(v) {
		return ""
	}

	switch m := v.(type) {
	case string:
		return m
	case []byte:
		return string(m)
	case error:
		return errors.Message(m)
	case fmt.Stringer:
		return m.String()
	}

	switch reflect.ValueOf(v).Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return fmt.Sprint(v)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

func isNilValue(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
