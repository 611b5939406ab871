package provider

import "fmt"

// ErrProviderNotFound reports a fetch routed to a name nothing is
// registered under.
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	return fmt.Sprintf("no provider registered under %q", e.Name)
}

// ErrModelNotSupported reports a provider asked for a model it mounts
// no fetcher for.
type ErrModelNotSupported struct {
	Provider string
	Model    ModelType
}

func (e *ErrModelNotSupported) Error() string {
	return fmt.Sprintf("model %q not available from provider %q", e.Model, e.Provider)
}

// ErrMissingParam reports a query lacking a parameter the fetcher's
// spec requires.
type ErrMissingParam struct {
	Param string
}

func (e *ErrMissingParam) Error() string {
	return fmt.Sprintf("required parameter %q is missing or empty", e.Param)
}

// ErrInvalidCredentials reports credentials rejected at Init.
type ErrInvalidCredentials struct {
	Provider string
	Detail   string
}

func (e *ErrInvalidCredentials) Error() string {
	return fmt.Sprintf("provider %q rejected credentials: %s", e.Provider, e.Detail)
}

// ValidateParams checks that every required key is present and
// non-empty.
func ValidateParams(params QueryParams, required []string) error {
	for _, key := range required {
		if params[key] == "" {
			return &ErrMissingParam{Param: key}
		}
	}
	return nil
}
