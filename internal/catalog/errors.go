package catalog

import "fmt"

// CatalogLoadError reports that the catalog source could not be read or parsed.
// The catalog stays unloaded and the next query retries the load.
type CatalogLoadError struct {
	Source string
	Err    error
}

func (e *CatalogLoadError) Error() string {
	return fmt.Sprintf("load catalog from %s: %v", e.Source, e.Err)
}

func (e *CatalogLoadError) Unwrap() error {
	return e.Err
}
