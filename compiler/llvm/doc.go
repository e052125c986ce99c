// Package llvm is a compiler backend built on libfaust and its LLVM JIT.
//
// The package requires libfaust with LLVM support and is only built with the
// faust build tag:
//
//	go build -tags faust ./...
//
// Programs are compiled with the -double option, so zones and sample buffers
// are float64 on both sides. Factory creation and deletion go through a
// package mutex since libfaust keeps global state for them.
package llvm
