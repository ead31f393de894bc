package main

import "github.com/ukri-bench/varbuild/cmd/varbuild/internal"

func main() {
	internal.Execute()
}
