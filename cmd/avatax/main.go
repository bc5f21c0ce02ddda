// Copyright 2019 James Cote
// All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// avatax quotes, posts and cancels tax documents from the command
// line.  Credentials are read from AVATAX_ACCOUNT_NUMBER and
// AVATAX_LICENSE_KEY.
package main

import (
	"fmt"
	"os"

	"github.com/jfcote87/avatax/cmd/avatax/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
