package transform

import (
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"

	"go-vis-pipeline/internal/model"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type filterProps struct {
	Test       string         `mapstructure:"test"       validate:"required"`
	ExprFields []*model.Field `mapstructure:"exprFields" validate:"omitempty,dive,required"`
}

type formulaProps struct {
	Field      string         `mapstructure:"field"      validate:"required"`
	Expr       string         `mapstructure:"expr"       validate:"required"`
	ExprFields []*model.Field `mapstructure:"exprFields" validate:"omitempty,dive,required"`
}

type sortProps struct {
	By         []*model.Field `mapstructure:"by"         validate:"required,min=1,dive,required"`
	Descending bool           `mapstructure:"descending"`
}

type facetProps struct {
	Keys []*model.Field `mapstructure:"keys" validate:"required,min=1,dive,required"`
}

type statsProps struct {
	Field  string `mapstructure:"field"  validate:"required"`
	Median bool   `mapstructure:"median"`
}

// Types lists the transform types Decode understands
var Types = []string{TypeFilter, TypeFormula, TypeSort, TypeFacet, TypeStats}

// Decode builds a transform for pipelineName from a type and property bag.
// Field properties accept either field objects or accessor strings such as
// "data.price".
func Decode(pipelineName string, req model.TransformRequest) (Transform, error) {
	switch req.Type {
	case TypeFilter:
		var p filterProps
		if err := decodeProps(req, &p); err != nil {
			return nil, err
		}
		return NewFilter(pipelineName, p.Test, p.ExprFields)
	case TypeFormula:
		var p formulaProps
		if err := decodeProps(req, &p); err != nil {
			return nil, err
		}
		return NewFormula(pipelineName, p.Field, p.Expr, p.ExprFields)
	case TypeSort:
		var p sortProps
		if err := decodeProps(req, &p); err != nil {
			return nil, err
		}
		return NewSort(pipelineName, p.By, p.Descending), nil
	case TypeFacet:
		var p facetProps
		if err := decodeProps(req, &p); err != nil {
			return nil, err
		}
		return NewFacet(pipelineName, p.Keys), nil
	case TypeStats:
		var p statsProps
		if err := decodeProps(req, &p); err != nil {
			return nil, err
		}
		return NewStats(pipelineName, p.Field, p.Median), nil
	default:
		return nil, &model.ValidationError{
			Subject: "transform",
			Reason:  fmt.Sprintf("unknown type %q", req.Type),
		}
	}
}

func decodeProps(req model.TransformRequest, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       fieldHook,
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(req.Properties); err != nil {
		return &model.ValidationError{Subject: req.Type + " transform", Reason: "malformed properties", Err: err}
	}
	if err := validate.Struct(out); err != nil {
		return &model.ValidationError{Subject: req.Type + " transform", Reason: "invalid properties", Err: err}
	}
	return nil
}

var (
	fieldType    = reflect.TypeOf(model.Field{})
	fieldPtrType = reflect.TypeOf(&model.Field{})
)

// fieldHook lets accessor strings stand in for field objects
func fieldHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}
	switch to {
	case fieldPtrType:
		return model.ParseField(reflect.ValueOf(data).String()), nil
	case fieldType:
		return *model.ParseField(reflect.ValueOf(data).String()), nil
	}
	return data, nil
}
