//go:build !ORT

package provider

import "github.com/knights-analytics/hugot"

// newHugotSession uses the pure Go backend so the default build needs no cgo.
func newHugotSession() (*hugot.Session, error) {
	return hugot.NewGoSession()
}
