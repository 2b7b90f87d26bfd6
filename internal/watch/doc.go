// Package watch turns filesystem activity into reconciliation triggers.
package watch
