//go:build faust

package main

import "pipelined.dev/faust/compiler/llvm"

func init() {
	backends["llvm"] = llvm.Compiler{}
}
