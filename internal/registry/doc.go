// Package registry maps the function names used in configuration files
// (e.g. "transform.upper") to compiled task functions.
//
// Modules register their functions at startup. Validate then checks that
// every task declared in the loaded model names a registered function, so a
// typo is reported before anything is submitted.
package registry
