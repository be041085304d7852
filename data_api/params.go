package data_api

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/rdsdataservice"
)

func LongParam(name string, v int64) *rdsdataservice.SqlParameter {
	return param(name, &rdsdataservice.Field{LongValue: aws.Int64(v)})
}

func StringParam(name, v string) *rdsdataservice.SqlParameter {
	return param(name, &rdsdataservice.Field{StringValue: aws.String(v)})
}

func DoubleParam(name string, v float64) *rdsdataservice.SqlParameter {
	return param(name, &rdsdataservice.Field{DoubleValue: aws.Float64(v)})
}

func BoolParam(name string, v bool) *rdsdataservice.SqlParameter {
	return param(name, &rdsdataservice.Field{BooleanValue: aws.Bool(v)})
}

func NullParam(name string) *rdsdataservice.SqlParameter {
	return param(name, &rdsdataservice.Field{IsNull: aws.Bool(true)})
}

// OptionalString binds NULL when v is nil.
func OptionalString(name string, v *string) *rdsdataservice.SqlParameter {
	if v == nil {
		return NullParam(name)
	}
	return StringParam(name, *v)
}

// OptionalLong binds NULL when v is nil.
func OptionalLong(name string, v *int64) *rdsdataservice.SqlParameter {
	if v == nil {
		return NullParam(name)
	}
	return LongParam(name, *v)
}

func param(name string, value *rdsdataservice.Field) *rdsdataservice.SqlParameter {
	return &rdsdataservice.SqlParameter{
		Name:  aws.String(name),
		Value: value,
	}
}
