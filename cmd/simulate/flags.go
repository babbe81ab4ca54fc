package main

import (
	"strconv"
)

// optionalFloat is a float flag that distinguishes "unset" from zero.
type optionalFloat struct {
	value *float64
}

func (f *optionalFloat) String() string {
	if f == nil || f.value == nil {
		return ""
	}
	return strconv.FormatFloat(*f.value, 'f', -1, 64)
}

func (f *optionalFloat) Set(s string) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	f.value = &v
	return nil
}

// optionalInt is an int flag that distinguishes "unset" from zero.
type optionalInt struct {
	value *int
}

func (f *optionalInt) String() string {
	if f == nil || f.value == nil {
		return ""
	}
	return strconv.Itoa(*f.value)
}

func (f *optionalInt) Set(s string) error {
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	f.value = &v
	return nil
}

// envOr returns the environment value for key, or def when unset.
func envOr(lookup func(string) (string, bool), key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}
