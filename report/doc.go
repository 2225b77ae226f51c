// Package report writes join results to XLSX workbooks and reads point
// sheets from them.
package report
