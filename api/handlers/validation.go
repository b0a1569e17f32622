package handlers

import "fmt"

func errRequired(field string) error {
	return fmt.Errorf("%s is required", field)
}

func errNegative(field string) error {
	return fmt.Errorf("%s must not be negative", field)
}
