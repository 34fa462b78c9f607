package main

import (
	"context"

	"github.com/isdelr/blog-be/cmd"
)

func main() {
	cmd.Execute(context.Background())
}
