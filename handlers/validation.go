package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"claim-prediction-api/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// registerFieldNames makes validation errors report form field names
// instead of Go struct field names.
func registerFieldNames() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// fieldErrors turns a binding error into messages keyed by field name.
// Errors that cannot be tied to a field are keyed by "_".
func fieldErrors(err error) map[string]string {
	out := map[string]string{}

	var verrs validator.ValidationErrors
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &verrs):
		for _, fe := range verrs {
			out[fe.Field()] = describe(fe)
		}
	case errors.As(err, &typeErr) && typeErr.Field != "":
		out[typeErr.Field] = fmt.Sprintf("must be a %s", typeErr.Type)
	default:
		out["_"] = err.Error()
	}
	return out
}

func describe(fe validator.FieldError) string {
	label := fe.Field()
	if f, ok := models.FieldByName(fe.Field()); ok {
		label = f.Label
	}
	switch fe.Tag() {
	case "gte":
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s failed %q validation", label, fe.Tag())
	}
}

// blankNumbers reports numeric controls that were submitted empty. Form
// binding reads an empty number as zero, which for some fields is in range.
func blankNumbers(submitted url.Values) map[string]string {
	out := map[string]string{}
	for _, f := range models.Fields {
		if f.Control == models.ControlSelect {
			continue
		}
		vals, ok := submitted[f.Name]
		if ok && (len(vals) == 0 || strings.TrimSpace(vals[0]) == "") {
			out[f.Name] = fmt.Sprintf("%s is required", f.Label)
		}
	}
	return out
}
