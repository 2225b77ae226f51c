// Package server exposes a built stop index over HTTP with gin. GET answers
// can be cached in Redis through Cache.
package server
