package main

import (
	"reflect"

	"github.com/alecthomas/kong"
)

// optionalMapper decodes into a freshly allocated value so fields left unset stay nil and pick up the
// conf defaults.
type optionalMapper struct {
	elem   kong.Mapper
	isBool bool
}

func (m optionalMapper) Decode(ctx *kong.DecodeContext, target reflect.Value) error {
	v := reflect.New(target.Type().Elem())
	if err := m.elem.Decode(ctx, v.Elem()); err != nil {
		return err
	}
	target.Set(v)
	return nil
}

func (m optionalMapper) IsBool() bool {
	return m.isBool
}

// optionalMappers registers mappers for the *int, *bool and *string fields of conf.Config.
func optionalMappers() []kong.Option {
	defaults := kong.NewRegistry().RegisterDefaults()
	var opts []kong.Option
	for _, zero := range []interface{}{0, false, ""} {
		typ := reflect.TypeOf(zero)
		mapper := optionalMapper{elem: defaults.ForType(typ), isBool: typ.Kind() == reflect.Bool}
		opts = append(opts, kong.TypeMapper(reflect.PtrTo(typ), mapper))
	}
	return opts
}
