// Command blogctl administers a blog database without going through HTTP.
//
//	blogctl migrate                 apply pending schema migrations
//	blogctl user add <username>     create an account (password is prompted)
//	blogctl posts list [--page N]   print one page of posts
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(newApp()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
