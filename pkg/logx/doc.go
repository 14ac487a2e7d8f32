// Package logx is a thin structured-logging layer over zerolog.
//
// Components hold a Logger value and attach fields with the Field helpers
// (String, Int64, Err, ...). The zero Logger is a safe no-op, which keeps
// constructors usable in tests without log plumbing.
//
// The Service variant supports swapping sinks and level at runtime, so a
// config reload can change logging without restarting the process.
package logx
